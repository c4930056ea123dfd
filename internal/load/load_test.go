package load

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/errs"
)

func TestConstReturnsFixedLoading(t *testing.T) {
	cfg := config.New(nil)
	cfg.Set("LoadEstimator.Loading", "1.5", "2.5")

	c, err := NewConst(cfg)
	require.NoError(t, err)

	v, err := c.EstimateLoad(100)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5}, v)
	assert.False(t, c.CanAddLoad())

	err = c.AddLoad([]float64{1, 2})
	assert.Error(t, err)
}

func TestMovingAverageTracksRunningMean(t *testing.T) {
	cfg := config.New(nil)
	cfg.Set("LoadEstimator.Loading", "0", "0")
	cfg.Set("LoadEstimator.Window", "3")

	m, err := NewMovingAverage(cfg)
	require.NoError(t, err)
	require.True(t, m.CanAddLoad())

	require.NoError(t, m.AddLoad([]float64{2, 4}))
	require.NoError(t, m.AddLoad([]float64{4, 8}))

	v, err := m.EstimateLoad(0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 4}, v, 1e-9)
}

func TestMovingAverageWindowOneAlwaysReportsLastSample(t *testing.T) {
	cfg := config.New(nil)
	cfg.Set("LoadEstimator.Loading", "0", "0")
	cfg.Set("LoadEstimator.Window", "1")

	m, err := NewMovingAverage(cfg)
	require.NoError(t, err)

	v, err := m.EstimateLoad(0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0}, v, 1e-9, "seed value before any AddLoad")

	require.NoError(t, m.AddLoad([]float64{3, 6}))
	v, err = m.EstimateLoad(0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 6}, v, 1e-9)

	require.NoError(t, m.AddLoad([]float64{9, 12}))
	v, err = m.EstimateLoad(0)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{9, 12}, v, 1e-9, "window of 1 always reports only the most recent sample")
}

func TestMovingAverageRejectsNonPositiveWindow(t *testing.T) {
	cfg := config.New(nil)
	cfg.Set("LoadEstimator.Loading", "0")
	cfg.Set("LoadEstimator.Window", "0")

	_, err := NewMovingAverage(cfg)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.OutOfRange))
}

func TestProfileAdvancesThroughSegments(t *testing.T) {
	cfg := config.New(nil)
	cfg.Set("LoadEstimator.LoadingProfileLength", "2")
	cfg.Set("LoadEstimator.Element[0].Duration", "10")
	cfg.Set("LoadEstimator.Element[0].Loads", "1")
	cfg.Set("LoadEstimator.Element[1].Duration", "5")
	cfg.Set("LoadEstimator.Element[1].Loads", "2")

	p, err := NewProfile(cfg)
	require.NoError(t, err)

	v, err := p.EstimateLoad(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, v)

	v, err = p.EstimateLoad(12)
	require.NoError(t, err)
	assert.Equal(t, []float64{2}, v)

	_, err = p.EstimateLoad(16)
	assert.Error(t, err)
}

func TestGaussianBroadcastsScalarStdDev(t *testing.T) {
	cfg := config.New(nil)
	cfg.Set("LoadEstimator.Loading", "10", "20")
	cfg.Set("LoadEstimator.StdDev", "0.01")

	g, err := NewGaussian(cfg)
	require.NoError(t, err)

	v, err := g.EstimateLoad(0)
	require.NoError(t, err)
	assert.InDelta(t, 10, v[0], 1)
	assert.InDelta(t, 20, v[1], 1)
}
