package predictor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/load"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/trajectory"
	"github.com/cuemby/prognose/internal/vector"
)

// linearDecayModel is a one-state model whose threshold fires once the
// state crosses zero, used to exercise the Monte-Carlo walk loop
// end-to-end with a deterministic expected time-of-event.
type linearDecayModel struct{}

func (linearDecayModel) StateSize() int                { return 1 }
func (linearDecayModel) Inputs() []message.ID          { return []message.ID{message.TestInput0ID} }
func (linearDecayModel) Outputs() []message.ID         { return []message.ID{message.TestOutput0ID} }
func (linearDecayModel) Events() []message.ID          { return []message.ID{message.TestEvent0ID} }
func (linearDecayModel) Observables() []string         { return nil }
func (linearDecayModel) DefaultTimeStep() float64      { return 1.0 }

func (linearDecayModel) StateEqn(t float64, x, u vector.Vector, dt float64) vector.Vector {
	return vector.Vector{x[0] - u[0]*dt}
}

func (m linearDecayModel) StateEqnNoise(t float64, x, u, n vector.Vector, dt float64) vector.Vector {
	xp := m.StateEqn(t, x, u, dt)
	return vector.Vector{xp[0] + dt*n[0]}
}

func (linearDecayModel) OutputEqn(t float64, x vector.Vector) vector.Vector {
	return vector.Vector{x[0]}
}

func (m linearDecayModel) OutputEqnNoise(t float64, x, n vector.Vector) vector.Vector {
	return vector.Vector{m.OutputEqn(t, x)[0] + n[0]}
}

func (linearDecayModel) ThresholdEqn(t float64, x vector.Vector) []bool {
	return []bool{x[0] <= 0}
}

func (linearDecayModel) EventStateEqn(x vector.Vector) []float64 {
	state := x[0] / 100.0
	if state < 0 {
		state = 0
	}
	if state > 1 {
		state = 1
	}
	return []float64{state}
}

func (linearDecayModel) Initialize(u, z vector.Vector) vector.Vector {
	return vector.Vector{100}
}

func (linearDecayModel) ObservablesEqn(t float64, x vector.Vector) []float64 { return nil }

func TestMonteCarloPredictsDeterministicEventTime(t *testing.T) {
	m := linearDecayModel{}

	cfg := config.New(nil)
	cfg.Set("LoadEstimator.Loading", "10")
	le, err := load.NewConst(cfg)
	require.NoError(t, err)

	cfg.Set("Predictor.SampleCount", "20")
	cfg.Set("Predictor.Horizon", "50")
	cfg.Set("Model.ProcessNoise", "0")

	traj := trajectory.New()
	mc, err := New(m, le, traj, cfg)
	require.NoError(t, err)

	belief := []message.UData{message.NewMeanCovariance([]float64{100}, [][]float64{{0}})}
	pred, err := mc.Predict(0, belief)
	require.NoError(t, err)
	require.Len(t, pred.Events, 1)

	samples, err := pred.Events[0].ToE.Samples()
	require.NoError(t, err)
	require.Len(t, samples, 20)
	for _, s := range samples {
		assert.InDelta(t, 10.0, s, 1e-6)
	}
}

func TestMonteCarloToESampleCountMatchesConfig(t *testing.T) {
	// Property 8 (spec §8).
	m := linearDecayModel{}
	cfg := config.New(nil)
	cfg.Set("LoadEstimator.Loading", "10")
	le, err := load.NewConst(cfg)
	require.NoError(t, err)
	cfg.Set("Predictor.SampleCount", "7")
	cfg.Set("Predictor.Horizon", "2")
	cfg.Set("Model.ProcessNoise", "0")

	traj := trajectory.New()
	mc, err := New(m, le, traj, cfg)
	require.NoError(t, err)

	belief := []message.UData{message.NewMeanCovariance([]float64{100}, [][]float64{{0}})}
	pred, err := mc.Predict(0, belief)
	require.NoError(t, err)

	samples, err := pred.Events[0].ToE.Samples()
	require.NoError(t, err)
	assert.Len(t, samples, 7)
	for _, s := range samples {
		assert.True(t, math.IsNaN(s), "horizon of 2s is too short to reach threshold at 10s")
	}
}

func TestTestPredictorContract(t *testing.T) {
	// Scenario 4 (spec §8).
	tp := NewTestPredictor(message.TestEvent0ID)
	belief := []message.UData{message.NewPoint(1), message.NewPoint(2)}

	pred, err := tp.Predict(5, belief)
	require.NoError(t, err)
	require.Len(t, pred.Events, 1)

	toe := pred.Events[0].ToE.Get()
	assert.InDelta(t, 1.5, toe, 1e-9)

	es, err := pred.Events[0].EventState[0].Mean()
	require.NoError(t, err)
	assert.Equal(t, 1.0, es[0])
}
