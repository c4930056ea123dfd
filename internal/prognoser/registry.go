// Package prognoser implements the builder and AsyncPrognoser (spec
// §4.9): reading a ConfigMap, it constructs a TrajectoryService, load
// estimator, model, observer and predictor in dependency order, wraps
// the observer and predictor for message-driven operation, and owns
// their combined lifecycle.
//
// Concrete model/observer/predictor/load-estimator implementations
// register themselves on a Builder-owned Registry rather than a
// process-global factory table (spec §9's "global factory singletons"
// design note), so a process can host more than one independently
// configured registry.
package prognoser

import (
	"github.com/cuemby/prognose/internal/battery"
	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/load"
	"github.com/cuemby/prognose/internal/model"
	"github.com/cuemby/prognose/internal/observer"
	"github.com/cuemby/prognose/internal/predictor"
	"github.com/cuemby/prognose/internal/pump"
	"github.com/cuemby/prognose/internal/valve"
)

// ModelFactory builds a model from config.
type ModelFactory func(cfg *config.ConfigMap) (model.Model, error)

// ObserverFactory builds an observer over m from config.
type ObserverFactory func(m model.Model, cfg *config.ConfigMap) (observer.Observer, error)

// PredictorFactory builds a predictor over m, a load estimator, and a
// trajectory from config.
type PredictorFactory func(m model.Model, loadEst load.Estimator, traj predictor.Trajectory, cfg *config.ConfigMap) (predictor.Predictor, error)

// LoadFactory builds a load estimator from config.
type LoadFactory func(cfg *config.ConfigMap) (load.Estimator, error)

// Registry is a Builder-owned table of named component constructors.
type Registry struct {
	models     map[string]ModelFactory
	observers  map[string]ObserverFactory
	predictors map[string]PredictorFactory
	loads      map[string]LoadFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		models:     make(map[string]ModelFactory),
		observers:  make(map[string]ObserverFactory),
		predictors: make(map[string]PredictorFactory),
		loads:      make(map[string]LoadFactory),
	}
}

// RegisterModel binds name to f.
func (r *Registry) RegisterModel(name string, f ModelFactory) { r.models[name] = f }

// RegisterObserver binds name to f.
func (r *Registry) RegisterObserver(name string, f ObserverFactory) { r.observers[name] = f }

// RegisterPredictor binds name to f.
func (r *Registry) RegisterPredictor(name string, f PredictorFactory) { r.predictors[name] = f }

// RegisterLoad binds name to f.
func (r *Registry) RegisterLoad(name string, f LoadFactory) { r.loads[name] = f }

// NewDefaultRegistry returns a Registry with the reference
// implementations registered: "UKF" for observer, "MonteCarlo" for
// predictor, "Const"/"Gaussian"/"MovingAverage"/"Profile" for load, plus
// "Battery"/"CircuitBattery"/"BatteryEOL"/"CentrifugalPump"/"PneumaticValve"
// models.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterModel("Battery", func(cfg *config.ConfigMap) (model.Model, error) { return battery.New(cfg) })
	r.RegisterModel("CircuitBattery", func(cfg *config.ConfigMap) (model.Model, error) { return battery.NewCircuit(cfg) })
	r.RegisterModel("BatteryEOL", func(cfg *config.ConfigMap) (model.Model, error) { return battery.NewEOL(cfg) })
	r.RegisterModel("CentrifugalPump", func(cfg *config.ConfigMap) (model.Model, error) { return pump.New(cfg) })
	r.RegisterModel("PneumaticValve", func(cfg *config.ConfigMap) (model.Model, error) { return valve.New(cfg) })

	r.RegisterObserver("UKF", func(m model.Model, cfg *config.ConfigMap) (observer.Observer, error) {
		n := m.StateSize()
		mm := len(m.Outputs())
		q, err := cfg.GetDoubleVector("Observer.Q", n*n)
		if err != nil {
			return nil, err
		}
		rr, err := cfg.GetDoubleVector("Observer.R", mm*mm)
		if err != nil {
			return nil, err
		}
		return observer.New(m, q, rr)
	})

	r.RegisterPredictor("MonteCarlo", func(m model.Model, loadEst load.Estimator, traj predictor.Trajectory, cfg *config.ConfigMap) (predictor.Predictor, error) {
		return predictor.New(m, loadEst, traj, cfg)
	})

	r.RegisterLoad("Const", func(cfg *config.ConfigMap) (load.Estimator, error) { return load.NewConst(cfg) })
	r.RegisterLoad("Gaussian", func(cfg *config.ConfigMap) (load.Estimator, error) { return load.NewGaussian(cfg) })
	r.RegisterLoad("MovingAverage", func(cfg *config.ConfigMap) (load.Estimator, error) { return load.NewMovingAverage(cfg) })
	r.RegisterLoad("Profile", func(cfg *config.ConfigMap) (load.Estimator, error) { return load.NewProfile(cfg) })

	return r
}
