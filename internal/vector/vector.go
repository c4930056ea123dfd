// Package vector implements the fixed-size f64 vectors that cross every
// model/observer/predictor boundary in the runtime: state, input, output,
// and process-noise vectors are all the same value type.
package vector

import (
	"fmt"

	"github.com/cuemby/prognose/internal/errs"
)

// Vector is a fixed-size slice of float64. Clone, FromSlice, Add, Sub and
// Scale always return a fresh backing array; plain assignment of a
// Vector shares the backing array, as with any Go slice.
type Vector []float64

// New allocates a zeroed Vector of the given size.
func New(size int) Vector {
	return make(Vector, size)
}

// FromSlice copies src into a new Vector.
func FromSlice(src []float64) Vector {
	v := make(Vector, len(src))
	copy(v, src)
	return v
}

// Clone returns a deep copy of v.
func (v Vector) Clone() Vector {
	return FromSlice(v)
}

// Add returns the element-wise sum of v and other. Panics with a
// SizeMismatch error if the sizes differ — crossing a model boundary with
// mismatched sizes is a SizeMismatch the caller should have already
// rejected.
func (v Vector) Add(other Vector) Vector {
	if len(v) != len(other) {
		panic(errs.New(errs.SizeMismatch, "vector.Add", "len %d != len %d", len(v), len(other)))
	}
	out := make(Vector, len(v))
	for i := range v {
		out[i] = v[i] + other[i]
	}
	return out
}

// Sub returns the element-wise difference v - other.
func (v Vector) Sub(other Vector) Vector {
	if len(v) != len(other) {
		panic(errs.New(errs.SizeMismatch, "vector.Sub", "len %d != len %d", len(v), len(other)))
	}
	out := make(Vector, len(v))
	for i := range v {
		out[i] = v[i] - other[i]
	}
	return out
}

// Scale returns v with every element multiplied by k.
func (v Vector) Scale(k float64) Vector {
	out := make(Vector, len(v))
	for i := range v {
		out[i] = v[i] * k
	}
	return out
}

// CheckSize returns a SizeMismatch error tagged with op if v does not
// have exactly want elements.
func CheckSize(op string, v Vector, want int) error {
	if len(v) != want {
		return errs.New(errs.SizeMismatch, op, "expected size %d, got %d", want, len(v))
	}
	return nil
}

func (v Vector) String() string {
	return fmt.Sprintf("%v", []float64(v))
}
