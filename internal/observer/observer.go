// Package observer implements the Observer contract (spec §4.5): a
// recursive Bayesian state estimator owning a model and a posterior
// belief over the state, plus an unscented Kalman filter reference
// implementation.
package observer

import (
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/model"
	"github.com/cuemby/prognose/internal/vector"
)

// Observer is the capability an AsyncObserver wrapper needs: seed a
// belief, advance it, and answer for the current belief.
type Observer interface {
	IsInitialized() bool
	Initialize(t0 float64, x0, u0 vector.Vector)
	Step(t float64, u, z vector.Vector) error
	GetStateEstimate() ([]message.UData, error)
	GetStateMean() (vector.Vector, error)
}

var _ Observer = (*UnscentedKalmanFilter)(nil)
