package asyncobserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/prognose/internal/bus"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/model"
	"github.com/cuemby/prognose/internal/observer"
)

func TestAsyncObserverInitializeThenStep(t *testing.T) {
	// Scenario 3 (spec §8).
	b := bus.New(bus.Deferred)
	defer b.Close()

	m := model.NewTestModel()
	obs := observer.NewTestObserver(m)

	ao := New(b, m, obs, "test")
	defer ao.Close()

	var estimates []*message.Message
	b.Subscribe("estimate-sink", "test", message.ModelStateEstimateID, func(m *message.Message) {
		estimates = append(estimates, m)
	})

	t0 := message.FromSeconds(0)
	b.Publish(message.New(message.TestInput0ID, "test", t0, 1.0))
	b.Publish(message.New(message.TestInput1ID, "test", t0, 2.0))
	b.Publish(message.New(message.TestOutput0ID, "test", t0, 3.0))
	b.WaitAll()

	assert.Empty(t, estimates, "the initialize round must not publish a state estimate")
	assert.True(t, obs.IsInitialized())

	t1 := message.FromSeconds(1)
	b.Publish(message.New(message.TestInput0ID, "test", t1, 1.0))
	b.Publish(message.New(message.TestInput1ID, "test", t1, 2.0))
	b.Publish(message.New(message.TestOutput0ID, "test", t1, 3.0))
	b.WaitAll()

	require.Len(t, estimates, 1)
	est, ok := estimates[0].Payload.([]message.UData)
	require.True(t, ok)
	require.Len(t, est, 2)

	mean0, err := est[0].Mean()
	require.NoError(t, err)
	mean1, err := est[1].Mean()
	require.NoError(t, err)
	assert.Equal(t, 1.0, mean0[0])
	assert.Equal(t, 2.0, mean1[0])

	// Invariant 6 (spec §8): the observer is initialized exactly once
	// across its lifetime, even across further rounds.
	t2 := message.FromSeconds(2)
	b.Publish(message.New(message.TestInput0ID, "test", t2, 5.0))
	b.Publish(message.New(message.TestInput1ID, "test", t2, 9.0))
	b.Publish(message.New(message.TestOutput0ID, "test", t2, 45.0))
	b.WaitAll()

	require.Len(t, estimates, 2, "third round steps the already-initialized observer rather than re-initializing")
	assert.True(t, obs.IsInitialized())
}
