package battery

import (
	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/vector"
)

// Circuit state indices, mirroring CircuitBatteryModel.h's stateIndices.
const (
	CircuitStateTb  = 0
	CircuitStateQb  = 1
	CircuitStateQcp = 2
	CircuitStateQcs = 3
)

// CircuitModel is the simpler equivalent-circuit battery model:
// 4 states, one input (Amperes), independent of Model and with its own
// state size and input id — spec §9 deliberately keeps the two as
// distinct implementations of the same contract rather than subtyping
// one from the other.
type CircuitModel struct {
	cMax     float64 // bulk capacitance, coulombs at rated voltage
	v0       float64
	rp       float64
	rs, cs   float64
	ambientT float64
	veod     float64
}

// NewCircuit builds a CircuitModel from optional Battery.Circuit.CMax,
// .V0, .Rp, .Rs, .Cs, .VEOD, .AmbientTemperature config keys.
func NewCircuit(cfg *config.ConfigMap) (*CircuitModel, error) {
	m := &CircuitModel{cMax: 7500, v0: 4.2, rp: 0.015, rs: 0.05, cs: 4000, ambientT: 292.1, veod: 3.0}
	for key, dst := range map[string]*float64{
		"Battery.Circuit.CMax":              &m.cMax,
		"Battery.Circuit.V0":                &m.v0,
		"Battery.Circuit.Rp":                &m.rp,
		"Battery.Circuit.Rs":                &m.rs,
		"Battery.Circuit.Cs":                &m.cs,
		"Battery.Circuit.VEOD":              &m.veod,
		"Battery.Circuit.AmbientTemperature": &m.ambientT,
	} {
		if err := overrideDouble(cfg, key, dst); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (CircuitModel) StateSize() int { return 4 }

func (CircuitModel) Inputs() []message.ID { return []message.ID{message.AmperesID} }

func (CircuitModel) Outputs() []message.ID {
	return []message.ID{message.CentigradeID, message.VoltsID}
}

func (CircuitModel) Events() []message.ID { return []message.ID{message.BatteryEodID} }

func (CircuitModel) Observables() []string { return nil }

func (CircuitModel) DefaultTimeStep() float64 { return 1.0 }

func (m *CircuitModel) StateEqn(t float64, x, u vector.Vector, dt float64) vector.Vector {
	i := u[0]
	xp := x.Clone()
	xp[CircuitStateQb] = x[CircuitStateQb] - i*dt
	xp[CircuitStateQcp] = x[CircuitStateQcp] + dt*(i-x[CircuitStateQcp]/(m.rp*m.cMax/m.cs))/m.cs
	xp[CircuitStateQcs] = x[CircuitStateQcs] + dt*(i-x[CircuitStateQcs]/(m.rs*m.cs))
	xp[CircuitStateTb] = x[CircuitStateTb] + dt*((m.ambientT-x[CircuitStateTb])/50.0+i*i*m.rs*0.01)
	return xp
}

func (m *CircuitModel) StateEqnNoise(t float64, x, u, n vector.Vector, dt float64) vector.Vector {
	xp := m.StateEqn(t, x, u, dt)
	return xp.Add(n.Scale(dt))
}

func (m *CircuitModel) terminalVoltage(x vector.Vector) float64 {
	frac := x[CircuitStateQb] / m.cMax
	if frac < 0 {
		frac = 0
	}
	return m.v0*frac - x[CircuitStateQcp]/m.cMax - x[CircuitStateQcs]/m.cMax
}

func (m *CircuitModel) OutputEqn(t float64, x vector.Vector) vector.Vector {
	return vector.Vector{x[CircuitStateTb] - 273.15, m.terminalVoltage(x)}
}

func (m *CircuitModel) OutputEqnNoise(t float64, x, n vector.Vector) vector.Vector {
	return m.OutputEqn(t, x).Add(n)
}

func (m *CircuitModel) ThresholdEqn(t float64, x vector.Vector) []bool {
	return []bool{m.terminalVoltage(x) <= m.veod}
}

func (m *CircuitModel) EventStateEqn(x vector.Vector) []float64 {
	frac := x[CircuitStateQb] / m.cMax
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return []float64{frac}
}

func (m *CircuitModel) Initialize(u, z vector.Vector) vector.Vector {
	x := vector.New(4)
	x[CircuitStateQb] = m.cMax
	x[CircuitStateTb] = m.ambientT
	if len(z) > 0 {
		x[CircuitStateTb] = z[0] + 273.15
	}
	return x
}

func (m *CircuitModel) ObservablesEqn(t float64, x vector.Vector) []float64 { return nil }
