// Package valve implements a representative pneumatic valve model (a
// supplemented feature), grounded on
// original_source/inc/Models/PneumaticValveModel.h. Only the shape of
// the leak/friction degradation equations is reproduced: the full
// plug-dynamics model is reduced to displacement and velocity plus the
// four wear parameters that drive its four failure modes; the spring
// constant is fixed and there is no spring-failure event.
package valve

import (
	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/vector"
)

// State indices, a reduced form of PneumaticValveModel.h's plug state.
const (
	StateX       = 0 // plug displacement
	StateV       = 1 // plug velocity
	StateABottom = 2 // external bottom leak area (wears up)
	StateATop    = 3 // external top leak area (wears up)
	StateAInt    = 4 // internal leak area (wears up)
	StateR       = 5 // friction parameter (wears up)
)

// Model is the reduced pneumatic valve model: plug position and
// velocity respond to supply and chamber pressures against a spring and
// friction load, while three leak areas and the friction coefficient
// degrade monotonically with plug travel.
type Model struct {
	mass, spring, k, r0         float64
	aBottomWearRate, aTopWearRate, aIntWearRate, rWearRate float64
	abMax, atMax, aiMax, rMax   float64
}

// New builds a Model from optional PneumaticValve.Mass, .SpringK,
// .PistonArea, .FrictionR0, .ABottomWearRate, .ATopWearRate, .AIntWearRate,
// .FrictionWearRate, .AbMax, .AtMax, .AiMax, .RMax config keys.
func New(cfg *config.ConfigMap) (*Model, error) {
	m := &Model{
		mass:             50.0,
		spring:           4.8e4,
		k:                0.08107,
		r0:               6e-3,
		aBottomWearRate:  1e-10,
		aTopWearRate:     1e-10,
		aIntWearRate:     1e-11,
		rWearRate:        1e3,
		abMax:            4e-5,
		atMax:            4e-5,
		aiMax:            1.7e-6,
		rMax:             4e6,
	}
	for key, dst := range map[string]*float64{
		"PneumaticValve.Mass":             &m.mass,
		"PneumaticValve.SpringK":          &m.spring,
		"PneumaticValve.PistonArea":       &m.k,
		"PneumaticValve.FrictionR0":       &m.r0,
		"PneumaticValve.ABottomWearRate":  &m.aBottomWearRate,
		"PneumaticValve.ATopWearRate":     &m.aTopWearRate,
		"PneumaticValve.AIntWearRate":     &m.aIntWearRate,
		"PneumaticValve.FrictionWearRate": &m.rWearRate,
		"PneumaticValve.AbMax":            &m.abMax,
		"PneumaticValve.AtMax":            &m.atMax,
		"PneumaticValve.AiMax":            &m.aiMax,
		"PneumaticValve.RMax":             &m.rMax,
	} {
		if err := overrideDouble(cfg, key, dst); err != nil {
			return nil, err
		}
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

func (Model) StateSize() int { return 6 }

func (Model) Inputs() []message.ID {
	return []message.ID{message.PascalID, message.PascalID, message.PascalID, message.PascalID}
}

func (Model) Outputs() []message.ID {
	return []message.ID{message.MetersCubedPerSecondID, message.PascalID, message.PascalID, message.MetersID}
}

// Events omits PneumaticValveSpringFailure: this reduced model does not
// carry a degrading spring-constant state (see Model doc comment), so
// there is nothing for that event's threshold to evaluate.
func (Model) Events() []message.ID {
	return []message.ID{
		message.PneumaticValveExternalBottomLeakID,
		message.PneumaticValveExternalTopLeakID,
		message.PneumaticValveInternalLeakID,
		message.PneumaticValveFrictionFailureID,
	}
}

func (Model) Observables() []string { return nil }

func (Model) DefaultTimeStep() float64 { return 1.0 }

func (m *Model) StateEqn(t float64, x, u vector.Vector, dt float64) vector.Vector {
	pBot, pTop, pL, pR := u[0], u[1], u[2], u[3]
	pos, vel, aBot, aTop, aInt, r := x[StateX], x[StateV], x[StateABottom], x[StateATop], x[StateAInt], x[StateR]

	springForce := m.spring * pos
	pistonForce := (pBot - pTop) * m.k
	frictionForce := (m.r0 + r) * vel
	leakLoss := (aBot + aTop + aInt) * 1e6

	accel := (pistonForce - springForce - frictionForce - leakLoss) / m.mass
	velNext := vel + dt*accel
	posNext := pos + dt*velNext
	if posNext < 0 {
		posNext = 0
	}
	if posNext > 0.0381 {
		posNext = 0.0381
	}

	travel := absf(velNext) * dt
	return vector.Vector{
		posNext,
		velNext,
		aBot + m.aBottomWearRate*travel,
		aTop + m.aTopWearRate*travel,
		aInt + m.aIntWearRate*travel,
		r + m.rWearRate*travel*1e-6,
	}
}

func (m *Model) StateEqnNoise(t float64, x, u, n vector.Vector, dt float64) vector.Vector {
	xp := m.StateEqn(t, x, u, dt)
	return xp.Add(n.Scale(dt))
}

func (m *Model) OutputEqn(t float64, x vector.Vector) vector.Vector {
	flow := absf(x[StateV]) * m.k
	return vector.Vector{flow, x[StateABottom] * 1e6, x[StateATop] * 1e6, x[StateX]}
}

func (m *Model) OutputEqnNoise(t float64, x, n vector.Vector) vector.Vector {
	return m.OutputEqn(t, x).Add(n)
}

func (m *Model) ThresholdEqn(t float64, x vector.Vector) []bool {
	return []bool{
		x[StateABottom] >= m.abMax,
		x[StateATop] >= m.atMax,
		x[StateAInt] >= m.aiMax,
		x[StateR] >= m.rMax,
	}
}

func (m *Model) EventStateEqn(x vector.Vector) []float64 {
	return []float64{
		clamp(1-x[StateABottom]/m.abMax, 0, 1),
		clamp(1-x[StateATop]/m.atMax, 0, 1),
		clamp(1-x[StateAInt]/m.aiMax, 0, 1),
		clamp(1-x[StateR]/m.rMax, 0, 1),
	}
}

func (m *Model) Initialize(u, z vector.Vector) vector.Vector {
	return vector.New(6)
}

func (m *Model) ObservablesEqn(t float64, x vector.Vector) []float64 { return nil }

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
