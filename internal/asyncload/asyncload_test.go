package asyncload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/prognose/internal/bus"
	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/load"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/vector"
)

func TestListenerForwardsIntoAddLoad(t *testing.T) {
	b := bus.New(bus.Deferred)
	defer b.Close()

	cfg := config.New(nil)
	cfg.Set("LoadEstimator.Loading", "0", "0")
	cfg.Set("LoadEstimator.Window", "1")
	m, err := load.NewMovingAverage(cfg)
	require.NoError(t, err)
	require.True(t, m.CanAddLoad())

	l := New(b, m, "unit-test")
	defer l.Close()

	b.Publish(message.New(message.ModelInputVectorID, "unit-test", message.FromSeconds(0), vector.FromSlice([]float64{2, 4})))
	b.WaitAll()

	v, err := m.EstimateLoad(0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 4}, v, 1e-9, "listener must forward the aggregated input vector into AddLoad")
}

func TestListenerSkipsWhenEstimatorCannotAddLoad(t *testing.T) {
	b := bus.New(bus.Deferred)
	defer b.Close()

	cfg := config.New(nil)
	cfg.Set("LoadEstimator.Loading", "1", "2")
	c, err := load.NewConst(cfg)
	require.NoError(t, err)
	require.False(t, c.CanAddLoad())

	l := New(b, c, "unit-test")
	defer l.Close()

	// Must not panic or call AddLoad (which would error for Const); the
	// estimator's loading stays exactly what was configured.
	b.Publish(message.New(message.ModelInputVectorID, "unit-test", message.FromSeconds(0), vector.FromSlice([]float64{99, 99})))
	b.WaitAll()

	v, err := c.EstimateLoad(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, v)
}
