package predictor

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/errs"
	"github.com/cuemby/prognose/internal/load"
	"github.com/cuemby/prognose/internal/log"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/metrics"
	"github.com/cuemby/prognose/internal/model"
	"github.com/cuemby/prognose/internal/vector"
)

// MonteCarlo is the reference Predictor: for each sample, draw an
// initial state from the observer's belief, walk forward under the
// model and process noise at the model's default time step, and record
// the first time each event's threshold fires.
type MonteCarlo struct {
	m          model.Model
	loadEst    load.Estimator
	trajectory Trajectory

	sampleCount  int
	horizon      float64
	processNoise []float64
	concurrency  int
}

// New builds a MonteCarlo predictor from Predictor.SampleCount,
// Predictor.Horizon, and Model.ProcessNoise in cfg.
func New(m model.Model, loadEst load.Estimator, trajectory Trajectory, cfg *config.ConfigMap) (*MonteCarlo, error) {
	sampleCount, err := cfg.GetInt("Predictor.SampleCount")
	if err != nil {
		return nil, err
	}
	horizon, err := cfg.GetDouble("Predictor.Horizon")
	if err != nil {
		return nil, err
	}
	processNoise, err := cfg.GetDoubleVector("Model.ProcessNoise", m.StateSize())
	if err != nil {
		return nil, err
	}

	return &MonteCarlo{
		m: m, loadEst: loadEst, trajectory: trajectory,
		sampleCount: sampleCount, horizon: horizon, processNoise: processNoise,
		concurrency: 8,
	}, nil
}

// sampleRecord is what one Monte-Carlo sample contributes to the
// assembled Prediction: per-event time-of-event, and per-savepoint
// captured state and event-state.
type sampleRecord struct {
	eventTimes  []float64   // per event, NaN if never fired
	savedStates [][]float64 // per savepoint, state vector at first crossing (nil if unreached)
	savedEvents [][]float64 // per savepoint, event_state vector at first crossing
}

// Predict implements Predictor.
func (mc *MonteCarlo) Predict(tNow float64, stateEstimate []message.UData) (message.Prediction, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.PredictionDuration, "montecarlo")
	metrics.PredictionSampleCount.WithLabelValues("montecarlo").Observe(float64(mc.sampleCount))

	n := mc.m.StateSize()
	mean := make([]float64, n)
	stddev := make([]float64, n)
	var sampleSets [][]float64 // non-nil only if belief is *samples*

	for i, u := range stateEstimate {
		switch u.Kind() {
		case message.UDataSamples:
			s, err := u.Samples()
			if err != nil {
				return message.Prediction{}, err
			}
			if sampleSets == nil {
				sampleSets = make([][]float64, n)
			}
			sampleSets[i] = s
		default:
			m, err := u.Mean()
			if err != nil {
				return message.Prediction{}, err
			}
			mean[i] = m[0]
			cov, err := u.Covariance()
			if err != nil {
				return message.Prediction{}, err
			}
			stddev[i] = math.Sqrt(cov[0][0])
		}
	}

	var chol *mat.Cholesky
	if sampleSets == nil && maxOf(stddev) > 1e-12 {
		cov := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			cov.SetSym(i, i, stddev[i]*stddev[i])
		}
		chol = new(mat.Cholesky)
		if ok := chol.Factorize(cov); !ok {
			return message.Prediction{}, errs.New(errs.NumericalFailure, "predictor.Predict", "cholesky factorization of initial covariance failed")
		}
	}

	savepoints := filterFutureSavepoints(mc.trajectory.SavePoints(), tNow)
	savepointTimes := append([]float64{tNow}, timestampsToSeconds(savepoints)...)

	events := mc.m.Events()
	records := make([]sampleRecord, mc.sampleCount)

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(mc.concurrency)

	for s := 0; s < mc.sampleCount; s++ {
		s := s
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			rng := rand.New(rand.NewSource(int64(s) + 1))
			x0 := drawInitialState(mean, chol, sampleSets, n, rng)
			records[s] = mc.walkSample(tNow, x0, savepointTimes, events, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return message.Prediction{}, err
	}

	progEvents := make([]message.ProgEvent, len(events))
	for ei, id := range events {
		toeSamples := make([]float64, mc.sampleCount)
		eventState := make([]message.UData, len(savepointTimes))
		systemState := make([][]message.UData, len(savepointTimes))
		points := make([]message.Point4D, len(savepointTimes))

		for sp := range savepointTimes {
			esAcross := make([]float64, mc.sampleCount)
			stateAcross := make([][]float64, n)
			for k := range stateAcross {
				stateAcross[k] = make([]float64, mc.sampleCount)
			}
			for s, rec := range records {
				if rec.savedEvents[sp] == nil {
					esAcross[s] = math.NaN()
					for k := range stateAcross {
						stateAcross[k][s] = math.NaN()
					}
					continue
				}
				esAcross[s] = rec.savedEvents[sp][ei]
				for k := range stateAcross {
					stateAcross[k][s] = rec.savedStates[sp][k]
				}
			}
			eventState[sp] = message.NewSamples(esAcross)
			stateUData := make([]message.UData, n)
			for k := range stateAcross {
				stateUData[k] = message.NewSamples(stateAcross[k])
			}
			systemState[sp] = stateUData

			if sp == 0 {
				points[sp] = message.Point4D{Time: message.FromSeconds(tNow)}
			} else {
				ts := message.FromSeconds(savepointTimes[sp])
				p, err := mc.trajectory.GetPoint(ts)
				if err != nil {
					log.Logger.Debug().Err(err).Msg("predictor: no trajectory position for savepoint")
				}
				points[sp] = message.Point4D{Time: ts, Point: p}
			}
		}

		for s, rec := range records {
			toeSamples[s] = rec.eventTimes[ei]
		}

		progEvents[ei] = message.ProgEvent{
			ID:          id,
			EventState:  eventState,
			SystemState: systemState,
			ToE:         message.NewSamples(toeSamples),
			Points:      points,
			Tag:         uuid.NewString(),
		}
	}

	return message.Prediction{Events: progEvents}, nil
}

func filterFutureSavepoints(all []message.Timestamp, tNow float64) []message.Timestamp {
	out := make([]message.Timestamp, 0, len(all))
	nowTs := message.FromSeconds(tNow)
	for _, sp := range all {
		if sp > nowTs {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func timestampsToSeconds(ts []message.Timestamp) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = t.Seconds()
	}
	return out
}

func maxOf(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	return m
}

func drawInitialState(mean []float64, chol *mat.Cholesky, sampleSets [][]float64, n int, rng *rand.Rand) vector.Vector {
	x := vector.New(n)
	if sampleSets != nil {
		for i := 0; i < n; i++ {
			pool := sampleSets[i]
			if len(pool) == 0 {
				x[i] = 0
				continue
			}
			x[i] = pool[rng.Intn(len(pool))]
		}
		return x
	}

	if chol == nil {
		copy(x, mean)
		return x
	}

	var l mat.TriDense
	chol.LTo(&l)
	z := make([]float64, n)
	for i := range z {
		z[i] = rng.NormFloat64()
	}
	for i := 0; i < n; i++ {
		v := mean[i]
		for j := 0; j <= i; j++ {
			v += l.At(i, j) * z[j]
		}
		x[i] = v
	}
	return x
}

// walkSample advances x forward from tNow until every event has fired
// or the horizon is reached, recording the first time-of-event per
// event and the state/event-state captured at each savepoint.
func (mc *MonteCarlo) walkSample(tNow float64, x vector.Vector, savepointTimes []float64, events []message.ID, rng *rand.Rand) sampleRecord {
	n := mc.m.StateSize()
	dt := mc.m.DefaultTimeStep()
	if dt <= 0 {
		dt = 1.0
	}

	rec := sampleRecord{
		eventTimes:  make([]float64, len(events)),
		savedStates: make([][]float64, len(savepointTimes)),
		savedEvents: make([][]float64, len(savepointTimes)),
	}
	for i := range rec.eventTimes {
		rec.eventTimes[i] = math.NaN()
	}

	fired := make([]bool, len(events))
	nextSavepoint := 0

	captureIfDue := func(t float64, x vector.Vector) {
		for nextSavepoint < len(savepointTimes) && t >= savepointTimes[nextSavepoint]-1e-9 {
			rec.savedStates[nextSavepoint] = append([]float64(nil), x...)
			rec.savedEvents[nextSavepoint] = mc.m.EventStateEqn(x)
			nextSavepoint++
		}
	}
	captureIfDue(tNow, x)

	t := tNow
	for {
		allFired := true
		for _, f := range fired {
			if !f {
				allFired = false
				break
			}
		}
		if allFired || t-tNow >= mc.horizon {
			break
		}

		u, err := mc.loadEst.EstimateLoad(t)
		if err != nil {
			if errs.Is(err, errs.OutOfRange) {
				break
			}
			break
		}

		noise := vector.New(n)
		for i := 0; i < n; i++ {
			sigma := math.Sqrt(mc.processNoise[i] / dt)
			noise[i] = rng.NormFloat64() * sigma
		}

		x = mc.m.StateEqnNoise(t, x, vector.FromSlice(u), noise, dt)
		t += dt

		thresholds := mc.m.ThresholdEqn(t, x)
		for i, th := range thresholds {
			if th && !fired[i] {
				fired[i] = true
				rec.eventTimes[i] = t
			}
		}

		captureIfDue(t, x)
	}

	for nextSavepoint < len(savepointTimes) {
		rec.savedStates[nextSavepoint] = nil
		rec.savedEvents[nextSavepoint] = nil
		nextSavepoint++
	}

	return rec
}
