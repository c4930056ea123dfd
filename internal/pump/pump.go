// Package pump implements a representative centrifugal pump model (a
// supplemented feature), grounded on
// original_source/inc/Models/CentrifugalPumpModel.h. Only the shape of
// the wear/thermal equations is reproduced: the full eleven-state
// fluid-dynamic model is reduced to the states that drive its three
// failure modes (impeller wear, oil overheat, radial bearing overheat)
// plus shaft speed and flow.
package pump

import (
	"math"

	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/vector"
)

// State indices, a reduced form of CentrifugalPumpModel.h's x0 fields.
const (
	StateW        = 0 // shaft angular velocity, rad/s
	StateQ        = 1 // flow rate
	StateA        = 2 // impeller area (wears down over life)
	StateRRadial  = 3 // radial bearing friction coefficient (wears up)
	StateTOil     = 4 // bearing oil temperature
)

// Model is the reduced centrifugal pump model: shaft speed and flow
// respond to supply voltage and discharge/suction pressure, while
// impeller wear and bearing friction slowly degrade and couple back
// into the flow and thermal dynamics.
type Model struct {
	aAreaWear float64 // impeller area wear rate per rad shaft travel
	rWearRate float64 // radial friction wear rate
	c         float64 // pump flow coefficient
	inertia   float64 // lumped rotor inertia
	hOil      float64 // oil heat-transfer coefficient
	ambientT  float64
	aLim      float64 // impeller area failure threshold
	tOilLim   float64 // oil overtemperature threshold
	rRadialLim float64 // radial bearing friction failure threshold
}

// New builds a Model from optional CentrifugalPump.AreaWearRate,
// .FrictionWearRate, .C, .Inertia, .HOil, .AmbientTemperature, .ALim,
// .ToLim, .TrLim config keys.
func New(cfg *config.ConfigMap) (*Model, error) {
	m := &Model{
		aAreaWear:  1e-7,
		rWearRate:  1e-9,
		c:          8.24e-5,
		inertia:    50,
		hOil:       1.0,
		ambientT:   290,
		aLim:       9.5,
		tOilLim:    350,
		rRadialLim: 1.8e-3,
	}
	for key, dst := range map[string]*float64{
		"CentrifugalPump.AreaWearRate":       &m.aAreaWear,
		"CentrifugalPump.FrictionWearRate":   &m.rWearRate,
		"CentrifugalPump.C":                  &m.c,
		"CentrifugalPump.Inertia":            &m.inertia,
		"CentrifugalPump.HOil":               &m.hOil,
		"CentrifugalPump.AmbientTemperature": &m.ambientT,
		"CentrifugalPump.ALim":               &m.aLim,
		"CentrifugalPump.ToLim":              &m.tOilLim,
		"CentrifugalPump.TrLim":              &m.rRadialLim,
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

func (Model) StateSize() int { return 5 }

func (Model) Inputs() []message.ID {
	return []message.ID{message.VoltsID, message.PascalID, message.PascalID}
}

func (Model) Outputs() []message.ID {
	return []message.ID{message.MetersCubedPerSecondID, message.KelvinID, message.RadiansPerSecondID}
}

func (Model) Events() []message.ID {
	return []message.ID{
		message.CentrifugalPumpImpellerWearFailureID,
		message.CentrifugalPumpOilOverheatID,
		message.CentrifugalPumpRadialBearingOverheatID,
	}
}

func (Model) Observables() []string { return nil }

func (Model) DefaultTimeStep() float64 { return 1.0 }

func (m *Model) StateEqn(t float64, x, u vector.Vector, dt float64) vector.Vector {
	voltage, pDischarge, pSuction := u[0], u[1], u[2]
	w, q, area, rRadial, tOil := x[StateW], x[StateQ], x[StateA], x[StateRRadial], x[StateTOil]

	dP := pDischarge - pSuction
	torqueLoad := rRadial*w*w + dP*area*1e-4
	wNext := w + dt*(voltage*0.02-torqueLoad)/m.inertia
	qNext := q + dt*(m.c*area*w-q)

	wearDrive := math.Abs(w) * dt
	areaNext := area - m.aAreaWear*wearDrive
	rNext := rRadial + m.rWearRate*wearDrive

	tOilNext := tOil + dt*((m.ambientT-tOil)/200.0+rRadial*w*w*m.hOil*1e-3)

	return vector.Vector{wNext, qNext, areaNext, rNext, tOilNext}
}

func (m *Model) StateEqnNoise(t float64, x, u, n vector.Vector, dt float64) vector.Vector {
	xp := m.StateEqn(t, x, u, dt)
	return xp.Add(n.Scale(dt))
}

func (m *Model) OutputEqn(t float64, x vector.Vector) vector.Vector {
	return vector.Vector{x[StateQ], x[StateTOil], x[StateW]}
}

func (m *Model) OutputEqnNoise(t float64, x, n vector.Vector) vector.Vector {
	return m.OutputEqn(t, x).Add(n)
}

func (m *Model) ThresholdEqn(t float64, x vector.Vector) []bool {
	return []bool{
		x[StateA] <= m.aLim,
		x[StateTOil] >= m.tOilLim,
		x[StateRRadial] >= m.rRadialLim,
	}
}

func (m *Model) EventStateEqn(x vector.Vector) []float64 {
	areaFrac := clamp((x[StateA]-m.aLim)/(12.7084-m.aLim), 0, 1)
	oilFrac := clamp((m.tOilLim-x[StateTOil])/(m.tOilLim-m.ambientT), 0, 1)
	radialFrac := clamp((m.rRadialLim-x[StateRRadial])/(m.rRadialLim-1.8e-6), 0, 1)
	return []float64{areaFrac, oilFrac, radialFrac}
}

func (m *Model) Initialize(u, z vector.Vector) vector.Vector {
	x := vector.New(5)
	x[StateW] = 3600 * 2 * math.Pi / 60
	x[StateA] = 12.7084
	x[StateRRadial] = 1.8e-6
	x[StateTOil] = m.ambientT
	return x
}

func (m *Model) ObservablesEqn(t float64, x vector.Vector) []float64 { return nil }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
