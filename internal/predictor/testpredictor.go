package predictor

import "github.com/cuemby/prognose/internal/message"

// TestPredictor is a fixed-contract Predictor used across the
// asyncpredictor/prognoser test suites: rather than simulating forward,
// it reports the arithmetic mean of the state estimate's elements as
// the sole event's time-of-event. Grounded on
// original_source/Test/gsapTests/MockClasses.h's TestPredictor, which is
// likewise a stub rather than a running simulation.
type TestPredictor struct {
	EventID message.ID
}

// NewTestPredictor returns a TestPredictor signaling id.
func NewTestPredictor(id message.ID) *TestPredictor {
	return &TestPredictor{EventID: id}
}

// Predict implements Predictor.
func (p *TestPredictor) Predict(tNow float64, stateEstimate []message.UData) (message.Prediction, error) {
	sum := 0.0
	for _, u := range stateEstimate {
		sum += u.Get()
	}
	mean := sum / float64(len(stateEstimate))

	event := message.ProgEvent{
		ID:         p.EventID,
		EventState: []message.UData{message.NewMeanCovariance([]float64{1.0}, [][]float64{{0}})},
		ToE:        message.NewPoint(mean),
		Points:     []message.Point4D{{Time: message.FromSeconds(tNow)}},
	}
	return message.Prediction{Events: []message.ProgEvent{event}}, nil
}
