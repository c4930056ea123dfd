// Package model defines the SystemModel / PrognosticsModel contract
// (spec §4.4): a deterministic set of state/output/threshold/event-state
// equations over fixed-size vectors, plus the declared input/output/
// event/observable id lists a model is built from.
package model

import (
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/vector"
)

// Model is the contract every system/prognostics model implements. All
// equations are pure: deterministic functions of their arguments, no
// hidden or global mutable state.
type Model interface {
	// StateSize is the number of state variables, fixed at construction.
	StateSize() int

	// Inputs are the ids whose scalar messages collectively form an
	// input vector, in order.
	Inputs() []message.ID

	// Outputs are the ids whose scalar messages collectively form an
	// output vector, in order.
	Outputs() []message.ID

	// Events are the ids the model can signal. Empty for plain system
	// models that are not also prognostics models.
	Events() []message.ID

	// Observables are derived scalar names; may be empty.
	Observables() []string

	// DefaultTimeStep is the step size (seconds) a predictor should
	// advance by absent other guidance; 1s unless a model needs a
	// different resolution.
	DefaultTimeStep() float64

	// StateEqn advances x by dt seconds given input u, with no process
	// noise.
	StateEqn(t float64, x, u vector.Vector, dt float64) vector.Vector

	// StateEqnNoise is StateEqn plus per-element process noise
	// accumulation: x'[i] += dt * n[i].
	StateEqnNoise(t float64, x, u, n vector.Vector, dt float64) vector.Vector

	// OutputEqn computes the noise-free output vector for state x.
	OutputEqn(t float64, x vector.Vector) vector.Vector

	// OutputEqnNoise is OutputEqn plus additive output noise n.
	OutputEqnNoise(t float64, x, n vector.Vector) vector.Vector

	// ThresholdEqn reports, for each event in Events(), whether it has
	// fired in state x at time t.
	ThresholdEqn(t float64, x vector.Vector) []bool

	// EventStateEqn reports, for each event in Events(), a
	// remaining-margin scalar in [0,1]; 0 means fired.
	EventStateEqn(x vector.Vector) []float64

	// Initialize computes an initial state consistent with a first
	// observation (u, z).
	Initialize(u, z vector.Vector) vector.Vector

	// ObservablesEqn computes the optional derived outputs named by
	// Observables(). Returns an empty slice if there are none.
	ObservablesEqn(t float64, x vector.Vector) []float64
}

// StateEqnNoiseFromPure implements the universal invariant (spec §8.5):
// state_eqn(t, x, u, n, dt) = state_eqn(t, x, u, 0, dt) + dt*n. Models
// whose noise is purely additive can build StateEqnNoise from their
// StateEqn with this helper instead of repeating the accumulation.
func StateEqnNoiseFromPure(stateEqn func(t float64, x, u vector.Vector, dt float64) vector.Vector) func(t float64, x, u, n vector.Vector, dt float64) vector.Vector {
	return func(t float64, x, u, n vector.Vector, dt float64) vector.Vector {
		xp := stateEqn(t, x, u, dt)
		return xp.Add(n.Scale(dt))
	}
}
