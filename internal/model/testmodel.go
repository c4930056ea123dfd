package model

import (
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/vector"
)

// TestModel is a minimal two-input, one-output, single-event model used
// across the bus/observer/predictor test suites (and in end-to-end
// tests of the async wrappers and the builder). It is grounded on
// original_source/Test/gsapTests/MockClasses.h's TestModel /
// TestPrognosticsModel: state is a direct copy of the input vector and
// never otherwise evolves, which makes observer/predictor behavior easy
// to predict by hand in a test.
type TestModel struct{}

// NewTestModel returns a TestModel.
func NewTestModel() *TestModel { return &TestModel{} }

func (TestModel) StateSize() int { return 2 }

func (TestModel) Inputs() []message.ID {
	return []message.ID{message.TestInput0ID, message.TestInput1ID}
}

func (TestModel) Outputs() []message.ID {
	return []message.ID{message.TestOutput0ID}
}

func (TestModel) Events() []message.ID {
	return []message.ID{message.TestEvent0ID}
}

func (TestModel) Observables() []string { return nil }

func (TestModel) DefaultTimeStep() float64 { return 1.0 }

// StateEqn is the identity: state never decays or drifts on its own.
func (TestModel) StateEqn(t float64, x, u vector.Vector, dt float64) vector.Vector {
	return x.Clone()
}

func (m TestModel) StateEqnNoise(t float64, x, u, n vector.Vector, dt float64) vector.Vector {
	return StateEqnNoiseFromPure(m.StateEqn)(t, x, u, n, dt)
}

// OutputEqn returns the product of the two state elements — a
// deliberately simple nonlinear map so observer tests exercise more
// than addition.
func (TestModel) OutputEqn(t float64, x vector.Vector) vector.Vector {
	return vector.Vector{x[0] * x[1]}
}

func (m TestModel) OutputEqnNoise(t float64, x, n vector.Vector) vector.Vector {
	return m.OutputEqn(t, x).Add(n)
}

// ThresholdEqn never fires; predictor tests that need a fired event use
// a dedicated stub instead of driving this model's simulation loop.
func (TestModel) ThresholdEqn(t float64, x vector.Vector) []bool {
	return []bool{false}
}

func (TestModel) EventStateEqn(x vector.Vector) []float64 {
	return []float64{1.0}
}

// Initialize copies the input vector verbatim into the initial state,
// ignoring the first observation (as the original mock does).
func (TestModel) Initialize(u, z vector.Vector) vector.Vector {
	return u.Clone()
}

func (TestModel) ObservablesEqn(t float64, x vector.Vector) []float64 {
	return nil
}
