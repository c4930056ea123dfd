package prognoser

import (
	"github.com/cuemby/prognose/internal/asyncload"
	"github.com/cuemby/prognose/internal/asyncobserver"
	"github.com/cuemby/prognose/internal/asyncpredictor"
	"github.com/cuemby/prognose/internal/bus"
	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/errs"
	"github.com/cuemby/prognose/internal/load"
	"github.com/cuemby/prognose/internal/model"
	"github.com/cuemby/prognose/internal/observer"
	"github.com/cuemby/prognose/internal/predictor"
	"github.com/cuemby/prognose/internal/trajectory"
)

// AsyncPrognoser owns the full wired-up pipeline for one source: a
// TrajectoryService, load estimator, model, observer and predictor, and
// the AsyncObserver/AsyncPredictor wrappers connecting them to the bus.
// Close tears everything down in reverse creation order.
type AsyncPrognoser struct {
	Trajectory *trajectory.Service
	LoadEst    load.Estimator
	Model      model.Model
	Observer   observer.Observer
	Predictor  predictor.Predictor

	trajectoryWrapper *trajectory.AsyncWrapper
	observerWrapper   *asyncobserver.AsyncObserver
	predictorWrapper  *asyncpredictor.AsyncPredictor
	loadListener      *asyncload.Listener
}

// Close unsubscribes every wrapper from the bus, in the reverse of
// construction order (load listener, predictor, observer, trajectory).
func (p *AsyncPrognoser) Close() {
	if p.loadListener != nil {
		p.loadListener.Close()
	}
	if p.predictorWrapper != nil {
		p.predictorWrapper.Close()
	}
	if p.observerWrapper != nil {
		p.observerWrapper.Close()
	}
	if p.trajectoryWrapper != nil {
		p.trajectoryWrapper.Close()
	}
}

// Builder reads a ConfigMap and constructs an AsyncPrognoser against a
// Registry of named component factories.
type Builder struct {
	Registry *Registry
}

// NewBuilder returns a Builder over registry.
func NewBuilder(registry *Registry) *Builder {
	return &Builder{Registry: registry}
}

// Build wires a full AsyncPrognoser for source from cfg, per spec §4.9's
// construction order: trajectory service, load estimator (default
// MovingAverage), model, observer, predictor, the async wrappers, and
// finally a load listener forwarding ModelInputVector into the load
// estimator when it accepts samples.
func (b *Builder) Build(bb *bus.Bus, cfg *config.ConfigMap, source string, batch bool) (*AsyncPrognoser, error) {
	modelName, err := cfg.GetString("model")
	if err != nil {
		return nil, err
	}
	observerName, err := cfg.GetString("observer")
	if err != nil {
		return nil, err
	}
	predictorName, err := cfg.GetString("predictor")
	if err != nil {
		return nil, err
	}
	loadName := "MovingAverage"
	if cfg.Has("LoadEstimator") {
		loadName, err = cfg.GetString("LoadEstimator")
		if err != nil {
			return nil, err
		}
	}

	modelFactory, ok := b.Registry.models[modelName]
	if !ok {
		return nil, errs.New(errs.ConfigMissing, "prognoser.Build", "no model registered as %q", modelName)
	}
	observerFactory, ok := b.Registry.observers[observerName]
	if !ok {
		return nil, errs.New(errs.ConfigMissing, "prognoser.Build", "no observer registered as %q", observerName)
	}
	predictorFactory, ok := b.Registry.predictors[predictorName]
	if !ok {
		return nil, errs.New(errs.ConfigMissing, "prognoser.Build", "no predictor registered as %q", predictorName)
	}
	loadFactory, ok := b.Registry.loads[loadName]
	if !ok {
		return nil, errs.New(errs.ConfigMissing, "prognoser.Build", "no load estimator registered as %q", loadName)
	}

	traj := trajectory.New()
	trajWrapper := trajectory.NewAsyncWrapper(bb, traj, source)

	loadEst, err := loadFactory(cfg)
	if err != nil {
		trajWrapper.Close()
		return nil, err
	}

	m, err := modelFactory(cfg)
	if err != nil {
		trajWrapper.Close()
		return nil, err
	}

	obs, err := observerFactory(m, cfg)
	if err != nil {
		trajWrapper.Close()
		return nil, err
	}

	pred, err := predictorFactory(m, loadEst, traj, cfg)
	if err != nil {
		trajWrapper.Close()
		return nil, err
	}

	obsWrapper := asyncobserver.New(bb, m, obs, source)
	predWrapper := asyncpredictor.New(bb, pred, source, batch)
	loadListener := asyncload.New(bb, loadEst, source)

	return &AsyncPrognoser{
		Trajectory: traj,
		LoadEst:    loadEst,
		Model:      m,
		Observer:   obs,
		Predictor:  pred,

		trajectoryWrapper: trajWrapper,
		observerWrapper:   obsWrapper,
		predictorWrapper:  predWrapper,
		loadListener:      loadListener,
	}, nil
}
