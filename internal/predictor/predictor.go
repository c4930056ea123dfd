// Package predictor implements the Predictor contract (spec §4.6): from
// an uncertain current state, simulate forward to the first threshold
// crossing and report a sampled distribution of event times, plus a
// Monte-Carlo reference implementation.
package predictor

import (
	"github.com/cuemby/prognose/internal/message"
)

// Predictor is the capability an AsyncPredictor wrapper needs.
type Predictor interface {
	Predict(tNow float64, stateEstimate []message.UData) (message.Prediction, error)
}

// Trajectory is what a predictor needs from a trajectory service: the
// savepoint set and a position for a given time.
type Trajectory interface {
	SavePoints() []message.Timestamp
	GetPoint(t message.Timestamp) (message.Point3D, error)
}

var _ Predictor = (*MonteCarlo)(nil)
