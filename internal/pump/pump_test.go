package pump

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/vector"
)

func TestNewDefaults(t *testing.T) {
	m, err := New(config.New(nil))
	require.NoError(t, err)
	assert.Equal(t, 5, m.StateSize())
	assert.Len(t, m.Events(), 3)
}

func TestInitializeAtRatedSpeed(t *testing.T) {
	m, err := New(config.New(nil))
	require.NoError(t, err)

	x := m.Initialize(vector.New(3), vector.New(3))
	assert.InDelta(t, 3600*2*3.14159265/60, x[StateW], 1e-3)
}

func TestStateEqnWearsImpellerOverTime(t *testing.T) {
	m, err := New(config.New(nil))
	require.NoError(t, err)

	x0 := m.Initialize(vector.New(3), vector.New(3))
	x1 := m.StateEqn(0, x0, vector.Vector{440, 3e5, 1e5}, 3600)
	assert.Less(t, x1[StateA], x0[StateA])
	assert.Greater(t, x1[StateRRadial], x0[StateRRadial])
}

func TestThresholdEqnFiresOnOilOverheat(t *testing.T) {
	m, err := New(config.New(nil))
	require.NoError(t, err)

	x := m.Initialize(vector.New(3), vector.New(3))
	x[StateTOil] = 400

	fired := m.ThresholdEqn(0, x)
	require.Len(t, fired, 3)
	assert.True(t, fired[1])
	assert.False(t, fired[0])
}
