// Package battery implements representative battery models (spec
// C13 and SPEC_FULL's supplemented features): an electro-chemical
// BatteryModel and a simpler CircuitBatteryModel, each an independent
// SystemModel/PrognosticsModel with its own state size and input id, per
// original_source/inc/Models/{BatteryModel,CircuitBatteryModel}.h. Only
// the shape of the equations is reproduced — the electrochemistry
// coefficient tables are out of scope.
package battery

import (
	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/vector"
)

// State indices for Model, mirroring BatteryModel.h's stateIndices.
const (
	StateTb  = 0 // battery temperature
	StateVo  = 1 // ohmic overpotential
	StateVsn = 2 // negative electrode surface overpotential
	StateVsp = 3 // positive electrode surface overpotential
	StateQnB = 4 // negative electrode bulk charge
	StateQnS = 5 // negative electrode surface charge
	StateQpB = 6 // positive electrode bulk charge
	StateQpS = 7 // positive electrode surface charge
)

// Model is a representative electro-chemical battery model: 8 states,
// one input (Watts load), two outputs (terminal voltage, case
// temperature), and a single End-of-Discharge event.
type Model struct {
	qMax      float64 // maximum electrode charge
	ro        float64 // ohmic resistance
	veod      float64 // end-of-discharge voltage threshold
	ambientT  float64
	tauDecay  float64 // RC time constant for Vo/Vsn/Vsp relaxation
}

// New builds a Model from optional Battery.QMax, Battery.Ro,
// Battery.VEOD, Battery.AmbientTemperature, Battery.TauDecay config
// keys, defaulting any that are absent.
func New(cfg *config.ConfigMap) (*Model, error) {
	m := &Model{qMax: 7600, ro: 0.117, veod: 3.0, ambientT: 292.1, tauDecay: 10}
	if err := overrideDouble(cfg, "Battery.QMax", &m.qMax); err != nil {
		return nil, err
	}
	if err := overrideDouble(cfg, "Battery.Ro", &m.ro); err != nil {
		return nil, err
	}
	if err := overrideDouble(cfg, "Battery.VEOD", &m.veod); err != nil {
		return nil, err
	}
	if err := overrideDouble(cfg, "Battery.AmbientTemperature", &m.ambientT); err != nil {
		return nil, err
	}
	if err := overrideDouble(cfg, "Battery.TauDecay", &m.tauDecay); err != nil {
		return nil, err
	}
	return m, nil
}

func overrideDouble(cfg *config.ConfigMap, key string, dst *float64) error {
	if cfg == nil || !cfg.Has(key) {
		return nil
	}
	v, err := cfg.GetDouble(key)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (Model) StateSize() int { return 8 }

func (Model) Inputs() []message.ID { return []message.ID{message.WattsID} }

func (Model) Outputs() []message.ID {
	return []message.ID{message.VoltsID, message.CentigradeID}
}

func (Model) Events() []message.ID { return []message.ID{message.BatteryEodID} }

func (Model) Observables() []string { return nil }

func (Model) DefaultTimeStep() float64 { return 1.0 }

// StateEqn advances charge depletion proportional to power draw and
// relaxes the three overpotentials toward a load-dependent steady state.
func (m *Model) StateEqn(t float64, x, u vector.Vector, dt float64) vector.Vector {
	p := u[0]
	qnB, qnS, qpB, qpS := x[StateQnB], x[StateQnS], x[StateQpB], x[StateQpS]

	// Approximate current draw from power and present terminal voltage.
	v := m.terminalVoltage(x)
	i := 0.0
	if v > 1e-6 {
		i = p / v
	}

	dq := i * dt
	xp := x.Clone()
	xp[StateQnB] = qnB - dq*0.5
	xp[StateQnS] = qnS - dq*0.5
	xp[StateQpB] = qpB - dq*0.5
	xp[StateQpS] = qpS - dq*0.5

	steady := m.ro * i
	xp[StateVo] = x[StateVo] + dt*(steady-x[StateVo])/m.tauDecay
	xp[StateVsn] = x[StateVsn] + dt*(0.5*steady-x[StateVsn])/m.tauDecay
	xp[StateVsp] = x[StateVsp] + dt*(0.5*steady-x[StateVsp])/m.tauDecay

	// Simple Newtonian cooling toward ambient plus ohmic self-heating.
	xp[StateTb] = x[StateTb] + dt*((m.ambientT-x[StateTb])/50.0+i*i*m.ro*0.01)

	return xp
}

func (m *Model) StateEqnNoise(t float64, x, u, n vector.Vector, dt float64) vector.Vector {
	xp := m.StateEqn(t, x, u, dt)
	return xp.Add(n.Scale(dt))
}

// terminalVoltage derives an open-circuit-minus-overpotential voltage
// from remaining charge fraction and the three overpotential states.
func (m *Model) terminalVoltage(x vector.Vector) float64 {
	frac := (x[StateQnB] + x[StateQnS]) / m.qMax
	if frac < 0 {
		frac = 0
	}
	ocv := 3.0 + 1.2*frac
	return ocv - x[StateVo] - x[StateVsn] - x[StateVsp]
}

func (m *Model) OutputEqn(t float64, x vector.Vector) vector.Vector {
	return vector.Vector{m.terminalVoltage(x), x[StateTb] - 273.15}
}

func (m *Model) OutputEqnNoise(t float64, x, n vector.Vector) vector.Vector {
	return m.OutputEqn(t, x).Add(n)
}

func (m *Model) ThresholdEqn(t float64, x vector.Vector) []bool {
	return []bool{m.terminalVoltage(x) <= m.veod}
}

func (m *Model) EventStateEqn(x vector.Vector) []float64 {
	frac := (x[StateQnB] + x[StateQnS]) / m.qMax
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return []float64{frac}
}

// Initialize seeds a fully charged state consistent with a first
// observation; z is used only to seed temperature.
func (m *Model) Initialize(u, z vector.Vector) vector.Vector {
	x := vector.New(8)
	x[StateTb] = m.ambientT
	if len(z) > 1 {
		x[StateTb] = z[1] + 273.15
	}
	x[StateQnB] = m.qMax * 0.5
	x[StateQnS] = m.qMax * 0.5
	x[StateQpB] = m.qMax * 0.5
	x[StateQpS] = m.qMax * 0.5
	return x
}

func (m *Model) ObservablesEqn(t float64, x vector.Vector) []float64 { return nil }
