package message

import (
	"math"

	"github.com/cuemby/prognose/internal/errs"
)

// UDataKind names which variant a UData value holds.
type UDataKind int

const (
	UDataPoint UDataKind = iota
	UDataMeanCovariance
	UDataSamples
)

// UData is a quantity with uncertainty: a point value, a mean+covariance
// pair, or a vector of samples. Only the accessors matching Kind() are
// valid; the others return an OutOfRange error rather than garbage.
type UData struct {
	kind       UDataKind
	point      float64
	mean       []float64
	covariance [][]float64
	samples    []float64
}

// NewPoint builds a point-variant UData.
func NewPoint(v float64) UData {
	return UData{kind: UDataPoint, point: v}
}

// NewMeanCovariance builds a mean+covariance-variant UData over a vector
// belief. covariance must be square with side len(mean).
func NewMeanCovariance(mean []float64, covariance [][]float64) UData {
	return UData{kind: UDataMeanCovariance, mean: mean, covariance: covariance}
}

// NewSamples builds a samples-variant UData.
func NewSamples(samples []float64) UData {
	return UData{kind: UDataSamples, samples: samples}
}

// Kind reports which variant u holds.
func (u UData) Kind() UDataKind { return u.kind }

// Point returns the point value. Valid only for UDataPoint.
func (u UData) Point() (float64, error) {
	if u.kind != UDataPoint {
		return 0, errs.New(errs.OutOfRange, "UData.Point", "UData is not a point variant")
	}
	return u.point, nil
}

// Mean returns the mean vector. Valid only for UDataMeanCovariance.
func (u UData) Mean() ([]float64, error) {
	if u.kind != UDataMeanCovariance {
		return nil, errs.New(errs.OutOfRange, "UData.Mean", "UData is not a mean+covariance variant")
	}
	return u.mean, nil
}

// Covariance returns the covariance matrix. Valid only for
// UDataMeanCovariance.
func (u UData) Covariance() ([][]float64, error) {
	if u.kind != UDataMeanCovariance {
		return nil, errs.New(errs.OutOfRange, "UData.Covariance", "UData is not a mean+covariance variant")
	}
	return u.covariance, nil
}

// Samples returns the sample realizations. Valid only for UDataSamples.
func (u UData) Samples() ([]float64, error) {
	if u.kind != UDataSamples {
		return nil, errs.New(errs.OutOfRange, "UData.Samples", "UData is not a samples variant")
	}
	return u.samples, nil
}

// Get returns a single representative scalar regardless of variant: the
// point value, the first mean element, or the mean of the finite
// samples (unfired events are recorded as +Inf/NaN per §4.6 and are
// excluded). Used by callers (tests, example programs) that only want a
// best estimate and don't care about the full uncertainty.
func (u UData) Get() float64 {
	switch u.kind {
	case UDataPoint:
		return u.point
	case UDataMeanCovariance:
		if len(u.mean) == 0 {
			return math.NaN()
		}
		return u.mean[0]
	case UDataSamples:
		sum, n := 0.0, 0
		for _, s := range u.samples {
			if !math.IsNaN(s) && !math.IsInf(s, 1) {
				sum += s
				n++
			}
		}
		if n == 0 {
			return math.NaN()
		}
		return sum / float64(n)
	default:
		return math.NaN()
	}
}
