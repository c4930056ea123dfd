package observer

import (
	"github.com/cuemby/prognose/internal/errs"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/model"
	"github.com/cuemby/prognose/internal/vector"
)

// TestObserver is a trivial pass-through Observer used across the
// asyncobserver/asyncpredictor/prognoser test suites: it runs the
// wrapped model's state equation with no correction from the
// observation, so its belief is deterministic given a deterministic
// model. Grounded on original_source/Test/gsapTests/MockClasses.h's
// TestObserver, which likewise never applies a correction.
type TestObserver struct {
	m model.Model

	initialized bool
	t           float64
	mean        vector.Vector
}

// NewTestObserver wraps m.
func NewTestObserver(m model.Model) *TestObserver {
	return &TestObserver{m: m}
}

func (o *TestObserver) IsInitialized() bool { return o.initialized }

func (o *TestObserver) Initialize(t0 float64, x0, u0 vector.Vector) {
	if o.initialized {
		return
	}
	o.mean = x0.Clone()
	o.t = t0
	o.initialized = true
}

func (o *TestObserver) Step(t float64, u, z vector.Vector) error {
	if !o.initialized {
		return errs.New(errs.NotSupported, "observer.TestObserver.Step", "observer not initialized")
	}
	o.mean = o.m.StateEqn(o.t, o.mean, u, t-o.t)
	o.t = t
	return nil
}

func (o *TestObserver) GetStateMean() (vector.Vector, error) {
	if !o.initialized {
		return nil, errs.New(errs.NotSupported, "observer.TestObserver.GetStateMean", "observer not initialized")
	}
	return o.mean.Clone(), nil
}

func (o *TestObserver) GetStateEstimate() ([]message.UData, error) {
	if !o.initialized {
		return nil, errs.New(errs.NotSupported, "observer.TestObserver.GetStateEstimate", "observer not initialized")
	}
	out := make([]message.UData, len(o.mean))
	for i, v := range o.mean {
		out[i] = message.NewMeanCovariance([]float64{v}, [][]float64{{0}})
	}
	return out, nil
}

var _ Observer = (*TestObserver)(nil)
