package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/vector"
)

func TestEOLInitializeSeedsQMobile(t *testing.T) {
	m, err := NewEOL(config.New(nil))
	require.NoError(t, err)

	x := m.Initialize(vector.New(1), vector.New(0))
	assert.Equal(t, m.qMobile0, x[EOLStateQMobile])
}

func TestEOLEventStateDecreasesWithWear(t *testing.T) {
	m, err := NewEOL(config.New(nil))
	require.NoError(t, err)

	x0 := m.Initialize(vector.New(1), vector.New(0))
	es0 := m.EventStateEqn(x0)

	x1 := m.StateEqn(0, x0, vector.Vector{5.0}, 3600)
	es1 := m.EventStateEqn(x1)

	require.Len(t, es0, 1)
	require.Len(t, es1, 1)
	assert.Less(t, es1[0], es0[0])
}

func TestEOLThresholdFiresAtMinCapacity(t *testing.T) {
	m, err := NewEOL(config.New(nil))
	require.NoError(t, err)

	x := vector.New(3)
	x[EOLStateQMobile] = m.minCapacity
	fired := m.ThresholdEqn(0, x)
	require.Len(t, fired, 1)
	assert.True(t, fired[0])
}
