// Package asyncpredictor implements the AsyncPredictor wrapper (spec
// §4.8): it consumes ModelStateEstimate messages, runs a Predictor under
// a timed mutex, and publishes either the whole Prediction or one
// ProgEvent per event, dropping state estimates that arrive while busy.
package asyncpredictor

import (
	"time"

	"github.com/cuemby/prognose/internal/bus"
	"github.com/cuemby/prognose/internal/log"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/metrics"
	"github.com/cuemby/prognose/internal/predictor"
)

const lockTimeout = 10 * time.Millisecond

// AsyncPredictor wraps a Predictor for message-driven prediction on one
// bus source.
type AsyncPredictor struct {
	b      *bus.Bus
	pred   predictor.Predictor
	source string
	batch  bool

	mu chan struct{}
}

// New constructs an AsyncPredictor over pred, subscribed to
// ModelStateEstimate on source. If batch is true a whole Prediction
// message is published per accepted state estimate; otherwise one
// ProgEvent message is published per event.
func New(b *bus.Bus, pred predictor.Predictor, source string, batch bool) *AsyncPredictor {
	ap := &AsyncPredictor{b: b, pred: pred, source: source, batch: batch, mu: make(chan struct{}, 1)}
	b.Subscribe(ap, source, message.ModelStateEstimateID, ap.onMessage)
	return ap
}

// Close unsubscribes the wrapper from the bus.
func (ap *AsyncPredictor) Close() {
	ap.b.Unsubscribe(ap)
}

func (ap *AsyncPredictor) onMessage(m *message.Message) {
	select {
	case ap.mu <- struct{}{}:
		defer func() { <-ap.mu }()
	case <-time.After(lockTimeout):
		metrics.PredictorDropsTotal.WithLabelValues(ap.source).Inc()
		return
	}

	estimate, ok := m.Payload.([]message.UData)
	if !ok {
		log.WithSource(ap.source).Warn().Msg("asyncpredictor: ModelStateEstimate with unexpected payload type")
		return
	}

	prediction, err := ap.pred.Predict(m.Timestamp.Seconds(), estimate)
	if err != nil {
		log.WithSource(ap.source).Warn().Err(err).Msg("asyncpredictor: predict failed, dropping")
		return
	}

	if ap.batch {
		ap.b.Publish(message.New(message.PredictionID, ap.source, m.Timestamp, prediction))
		return
	}
	for _, ev := range prediction.Events {
		ap.b.Publish(message.New(ev.ID, ap.source, m.Timestamp, ev))
	}
}
