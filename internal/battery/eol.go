package battery

import (
	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/vector"
)

// EOL state indices, mirroring BatteryEOL.h's stateIndices.
const (
	EOLStateRo          = 0
	EOLStateQMobile     = 1
	EOLStateTDiffusion  = 2
)

// EOLModel tracks slow, cycle-scale aging of a battery's internal
// resistance, mobile charge capacity, and diffusion time constant, and
// exposes a single observable — remaining capacity — checked against a
// minimum-capacity End-of-Life threshold; it has no measured outputs. It deliberately does not embed
// or wrap Model/CircuitModel: per BatteryEOL.h it tracks aging
// parameters for a *reference* discharge at nominalDischargeCurrent
// rather than stepping a discharge model's full state each call.
type EOLModel struct {
	wRo, wQMobile, wTDiffusion float64
	nominalDischargeCurrent    float64
	minCapacity                float64
	qMobile0                   float64
}

// NewEOL builds an EOLModel from optional Battery.EOL.WRo,
// .WQMobile, .WTDiffusion, .NominalDischargeCurrent, .MinCapacity,
// .QMobile0 config keys.
func NewEOL(cfg *config.ConfigMap) (*EOLModel, error) {
	m := &EOLModel{
		wRo:                     1e-5,
		wQMobile:                -1e-2,
		wTDiffusion:             1e-3,
		nominalDischargeCurrent: 1.0,
		minCapacity:             2000,
		qMobile0:                7600,
	}
	for key, dst := range map[string]*float64{
		"Battery.EOL.WRo":                     &m.wRo,
		"Battery.EOL.WQMobile":                &m.wQMobile,
		"Battery.EOL.WTDiffusion":             &m.wTDiffusion,
		"Battery.EOL.NominalDischargeCurrent": &m.nominalDischargeCurrent,
		"Battery.EOL.MinCapacity":             &m.minCapacity,
		"Battery.EOL.QMobile0":                &m.qMobile0,
	} {
		if err := overrideDouble(cfg, key, dst); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (EOLModel) StateSize() int { return 3 }

func (EOLModel) Inputs() []message.ID { return []message.ID{message.AmperesID} }

func (EOLModel) Outputs() []message.ID { return nil }

func (EOLModel) Events() []message.ID { return []message.ID{message.BatteryEolID} }

func (EOLModel) Observables() []string { return []string{"Capacity"} }

func (EOLModel) DefaultTimeStep() float64 { return 3600.0 } // aging evolves on a cycle timescale

// StateEqn drifts the three aging parameters linearly in current draw,
// a coarse stand-in for the cycle-count-driven wear curves the original
// fits empirically.
func (m *EOLModel) StateEqn(t float64, x, u vector.Vector, dt float64) vector.Vector {
	i := u[0]
	xp := x.Clone()
	xp[EOLStateRo] = x[EOLStateRo] + dt*m.wRo*i
	xp[EOLStateQMobile] = x[EOLStateQMobile] + dt*m.wQMobile*i
	xp[EOLStateTDiffusion] = x[EOLStateTDiffusion] + dt*m.wTDiffusion*i
	return xp
}

func (m *EOLModel) StateEqnNoise(t float64, x, u, n vector.Vector, dt float64) vector.Vector {
	xp := m.StateEqn(t, x, u, dt)
	return xp.Add(n.Scale(dt))
}

func (EOLModel) OutputEqn(t float64, x vector.Vector) vector.Vector { return nil }

func (EOLModel) OutputEqnNoise(t float64, x, n vector.Vector) vector.Vector { return nil }

func (m *EOLModel) ThresholdEqn(t float64, x vector.Vector) []bool {
	return []bool{m.simulateReferenceDischarge(x) <= m.minCapacity}
}

// simulateReferenceDischarge estimates remaining capacity at the
// reference nominalDischargeCurrent from the present aging state,
// standing in for BatteryEOL.h's full reference-discharge simulation.
func (m *EOLModel) simulateReferenceDischarge(x vector.Vector) float64 {
	cap := x[EOLStateQMobile] - x[EOLStateRo]*1e4*m.nominalDischargeCurrent
	if cap < 0 {
		cap = 0
	}
	return cap
}

func (m *EOLModel) EventStateEqn(x vector.Vector) []float64 {
	cap := m.simulateReferenceDischarge(x)
	frac := (cap - m.minCapacity) / (m.qMobile0 - m.minCapacity)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return []float64{frac}
}

func (m *EOLModel) Initialize(u, z vector.Vector) vector.Vector {
	x := vector.New(3)
	x[EOLStateQMobile] = m.qMobile0
	return x
}

func (m *EOLModel) ObservablesEqn(t float64, x vector.Vector) []float64 {
	return []float64{m.simulateReferenceDischarge(x)}
}
