package asyncpredictor

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/prognose/internal/asyncobserver"
	"github.com/cuemby/prognose/internal/bus"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/metrics"
	"github.com/cuemby/prognose/internal/model"
	"github.com/cuemby/prognose/internal/observer"
	"github.com/cuemby/prognose/internal/predictor"
)

// slowPredictor blocks in Predict until released, so concurrent arrivals
// can be made to contend for the wrapper's timed mutex deterministically.
type slowPredictor struct {
	release chan struct{}
}

func (p *slowPredictor) Predict(tNow float64, stateEstimate []message.UData) (message.Prediction, error) {
	<-p.release
	return message.Prediction{}, nil
}

func TestAsyncPredictorEmitsOneProgEventAfterStateEstimate(t *testing.T) {
	// Scenario 4 (spec §8): continuation of scenario 3.
	b := bus.New(bus.Deferred)
	defer b.Close()

	m := model.NewTestModel()
	obs := observer.NewTestObserver(m)
	ao := asyncobserver.New(b, m, obs, "test")
	defer ao.Close()

	pred := predictor.NewTestPredictor(message.TestEvent0ID)
	ap := New(b, pred, "test", false)
	defer ap.Close()

	var events []*message.Message
	b.Subscribe("event-sink", "test", message.TestEvent0ID, func(m *message.Message) {
		events = append(events, m)
	})

	t0 := message.FromSeconds(0)
	b.Publish(message.New(message.TestInput0ID, "test", t0, 1.0))
	b.Publish(message.New(message.TestInput1ID, "test", t0, 2.0))
	b.Publish(message.New(message.TestOutput0ID, "test", t0, 3.0))
	b.WaitAll()
	assert.Empty(t, events, "no prediction yet: the observer has only initialized")

	t1 := message.FromSeconds(1)
	b.Publish(message.New(message.TestInput0ID, "test", t1, 1.0))
	b.Publish(message.New(message.TestInput1ID, "test", t1, 2.0))
	b.Publish(message.New(message.TestOutput0ID, "test", t1, 3.0))
	b.WaitAll()

	require.Len(t, events, 1)
	ev, ok := events[0].Payload.(message.ProgEvent)
	require.True(t, ok)
	assert.InDelta(t, 1.5, ev.ToE.Get(), 1e-9)

	es, err := ev.EventState[0].Mean()
	require.NoError(t, err)
	assert.Equal(t, 1.0, es[0])
}

func TestAsyncPredictorBatchModePublishesWholePrediction(t *testing.T) {
	b := bus.New(bus.Deferred)
	defer b.Close()

	pred := predictor.NewTestPredictor(message.TestEvent0ID)
	ap := New(b, pred, "batch-test", true)
	defer ap.Close()

	var predictions []*message.Message
	b.Subscribe("prediction-sink", "batch-test", message.PredictionID, func(m *message.Message) {
		predictions = append(predictions, m)
	})

	est := []message.UData{message.NewPoint(1), message.NewPoint(2)}
	b.Publish(message.New(message.ModelStateEstimateID, "batch-test", message.FromSeconds(5), est))
	b.WaitAll()

	require.Len(t, predictions, 1)
	p, ok := predictions[0].Payload.(message.Prediction)
	require.True(t, ok)
	require.Len(t, p.Events, 1)
}

// TestDropCountEqualsBusyArrivals is invariant 7 (spec §8): under
// sustained publishing faster than the predictor can keep up, the
// number of dropped state estimates equals the number that arrived
// while the wrapper's mutex was held.
func TestDropCountEqualsBusyArrivals(t *testing.T) {
	const source = "drop-test"
	b := bus.New(bus.Deferred)
	defer b.Close()

	release := make(chan struct{})
	ap := New(b, &slowPredictor{release: release}, source, true)
	defer ap.Close()

	before := testutil.ToFloat64(metrics.PredictorDropsTotal.WithLabelValues(source))

	const arrivals = 5
	est := []message.UData{message.NewPoint(1)}
	msg := message.New(message.ModelStateEstimateID, source, message.FromSeconds(0), est)

	var wg sync.WaitGroup
	wg.Add(arrivals)
	for i := 0; i < arrivals; i++ {
		go func() {
			defer wg.Done()
			ap.onMessage(msg)
		}()
	}

	// Give every goroutine time to either acquire the mutex or time out
	// trying, then release the one holding it.
	time.Sleep(lockTimeout + 20*time.Millisecond)
	close(release)
	wg.Wait()

	after := testutil.ToFloat64(metrics.PredictorDropsTotal.WithLabelValues(source))
	assert.Equal(t, float64(arrivals-1), after-before, "exactly one arrival holds the mutex; the rest are dropped")
}
