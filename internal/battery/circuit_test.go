package battery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/vector"
)

func TestCircuitNewDefaults(t *testing.T) {
	m, err := NewCircuit(config.New(nil))
	require.NoError(t, err)
	assert.Equal(t, 4, m.StateSize())
	assert.Equal(t, []message.ID{message.AmperesID}, m.Inputs())
}

func TestCircuitInitializeFullyCharged(t *testing.T) {
	m, err := NewCircuit(config.New(nil))
	require.NoError(t, err)

	x := m.Initialize(vector.New(1), vector.New(0))
	assert.Equal(t, m.cMax, x[CircuitStateQb])
}

func TestCircuitStateEqnDepletesCharge(t *testing.T) {
	m, err := NewCircuit(config.New(nil))
	require.NoError(t, err)

	x0 := m.Initialize(vector.New(1), vector.New(0))
	x1 := m.StateEqn(0, x0, vector.Vector{2.0}, 1.0)
	assert.Less(t, x1[CircuitStateQb], x0[CircuitStateQb])
}

func TestCircuitThresholdEqnNotFiredWhenFull(t *testing.T) {
	m, err := NewCircuit(config.New(nil))
	require.NoError(t, err)

	x := m.Initialize(vector.New(1), vector.New(0))
	fired := m.ThresholdEqn(0, x)
	require.Len(t, fired, 1)
	assert.False(t, fired[0])
}
