// Package load implements the LoadEstimator contract (spec §4.10): a
// component that produces an input-vector estimate for a future time,
// in four variants (constant, gaussian, moving-average, scheduled
// profile).
package load

import (
	"math"
	"math/rand"
	"strconv"
	"sync"

	"github.com/cuemby/prognose/internal/config"
	"github.com/cuemby/prognose/internal/errs"
)

// Estimator is the capability set a predictor needs: estimate a load
// vector for a time, and optionally accept fresh samples.
type Estimator interface {
	EstimateLoad(t float64) ([]float64, error)
	CanAddLoad() bool
	AddLoad(sample []float64) error
}

// Const always returns the configured loading vector.
type Const struct {
	mu      sync.Mutex
	loading []float64
}

// NewConst reads LoadEstimator.Loading from cfg.
func NewConst(cfg *config.ConfigMap) (*Const, error) {
	v, err := cfg.GetDoubleVector("LoadEstimator.Loading", -1)
	if err != nil {
		return nil, err
	}
	return &Const{loading: v}, nil
}

func (c *Const) EstimateLoad(t float64) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, len(c.loading))
	copy(out, c.loading)
	return out, nil
}

func (c *Const) CanAddLoad() bool { return false }

func (c *Const) AddLoad(sample []float64) error {
	return errs.New(errs.NotSupported, "load.Const.AddLoad", "Const load estimator does not accept samples")
}

// Gaussian returns base loading plus independent per-element N(0, sigma)
// noise; sigma may be a single broadcast value or one per element.
type Gaussian struct {
	mu      sync.Mutex
	loading []float64
	stddev  []float64
	rng     *rand.Rand
}

// NewGaussian reads LoadEstimator.Loading and LoadEstimator.StdDev from
// cfg.
func NewGaussian(cfg *config.ConfigMap) (*Gaussian, error) {
	loading, err := cfg.GetDoubleVector("LoadEstimator.Loading", -1)
	if err != nil {
		return nil, err
	}
	stddev, err := cfg.GetDoubleVector("LoadEstimator.StdDev", -1)
	if err != nil {
		return nil, err
	}
	if len(stddev) == 1 && len(loading) > 1 {
		broadcast := make([]float64, len(loading))
		for i := range broadcast {
			broadcast[i] = stddev[0]
		}
		stddev = broadcast
	}
	if len(stddev) != len(loading) {
		return nil, errs.New(errs.SizeMismatch, "load.NewGaussian", "StdDev has %d values, Loading has %d", len(stddev), len(loading))
	}
	return &Gaussian{loading: loading, stddev: stddev, rng: rand.New(rand.NewSource(1))}, nil
}

func (g *Gaussian) EstimateLoad(t float64) ([]float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]float64, len(g.loading))
	for i := range out {
		out[i] = g.loading[i] + g.rng.NormFloat64()*g.stddev[i]
	}
	return out, nil
}

func (g *Gaussian) CanAddLoad() bool { return false }

func (g *Gaussian) AddLoad(sample []float64) error {
	return errs.New(errs.NotSupported, "load.Gaussian.AddLoad", "Gaussian load estimator does not accept samples")
}

// MovingAverage keeps a ring of recent per-element samples and reports
// the running mean. Window defaults to 10 if unset.
type MovingAverage struct {
	mu     sync.Mutex
	window int
	ring   [][]float64 // each entry is one n-element sample
	next   int
	full   bool
	n      int
}

// NewMovingAverage reads LoadEstimator.Loading (seed) and optionally
// LoadEstimator.Window from cfg.
func NewMovingAverage(cfg *config.ConfigMap) (*MovingAverage, error) {
	seed, err := cfg.GetDoubleVector("LoadEstimator.Loading", -1)
	if err != nil {
		return nil, err
	}
	window := 10
	if cfg.Has("LoadEstimator.Window") {
		w, err := cfg.GetInt("LoadEstimator.Window")
		if err != nil {
			return nil, err
		}
		window = w
	}
	if window < 1 {
		return nil, errs.New(errs.OutOfRange, "load.NewMovingAverage", "LoadEstimator.Window must be >= 1, got %d", window)
	}
	m := &MovingAverage{window: window, ring: make([][]float64, window), n: len(seed)}
	m.ring[0] = append([]float64(nil), seed...)
	m.next = 0
	if window == 1 {
		m.full = true
	} else {
		m.next = 1
	}
	return m, nil
}

func (m *MovingAverage) EstimateLoad(t float64) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := m.next
	if m.full {
		count = m.window
	}
	out := make([]float64, m.n)
	if count == 0 {
		return out, nil
	}
	for i := 0; i < count; i++ {
		for j := 0; j < m.n; j++ {
			out[j] += m.ring[i][j]
		}
	}
	for j := range out {
		out[j] /= float64(count)
	}
	return out, nil
}

func (m *MovingAverage) CanAddLoad() bool { return true }

func (m *MovingAverage) AddLoad(sample []float64) error {
	if len(sample) != m.n {
		return errs.New(errs.SizeMismatch, "load.MovingAverage.AddLoad", "sample has %d elements, want %d", len(sample), m.n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ring[m.next] = append([]float64(nil), sample...)
	m.next++
	if m.next == m.window {
		m.next = 0
		m.full = true
	}
	return nil
}

// profileSegment is one (duration, load) entry of a Profile.
type profileSegment struct {
	duration float64
	load     []float64
}

// Profile walks an ordered list of (duration, load) segments, advancing
// by elapsed time since the first call.
type Profile struct {
	mu       sync.Mutex
	segments []profileSegment
	t0       float64
	started  bool
}

// NewProfile reads LoadEstimator.LoadingProfileLength and, for each i,
// LoadEstimator.Element[i].Duration / .Loads from cfg.
func NewProfile(cfg *config.ConfigMap) (*Profile, error) {
	n, err := cfg.GetInt("LoadEstimator.LoadingProfileLength")
	if err != nil {
		return nil, err
	}
	segs := make([]profileSegment, n)
	for i := 0; i < n; i++ {
		dur, err := cfg.GetDouble(keyFor(i, "Duration"))
		if err != nil {
			return nil, err
		}
		loads, err := cfg.GetDoubleVector(keyFor(i, "Loads"), -1)
		if err != nil {
			return nil, err
		}
		segs[i] = profileSegment{duration: dur, load: loads}
	}
	return &Profile{segments: segs}, nil
}

func keyFor(i int, suffix string) string {
	return "LoadEstimator.Element[" + strconv.Itoa(i) + "]." + suffix
}

func (p *Profile) EstimateLoad(t float64) ([]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		p.t0 = t
		p.started = true
	}
	elapsed := t - p.t0

	cumulative := 0.0
	for _, seg := range p.segments {
		cumulative += seg.duration
		if elapsed < cumulative || math.Abs(elapsed-cumulative) < 1e-9 {
			out := make([]float64, len(seg.load))
			copy(out, seg.load)
			return out, nil
		}
	}
	return nil, errs.New(errs.OutOfRange, "load.Profile.EstimateLoad", "time %v exceeds profile length", t)
}

func (p *Profile) CanAddLoad() bool { return false }

func (p *Profile) AddLoad(sample []float64) error {
	return errs.New(errs.NotSupported, "load.Profile.AddLoad", "Profile load estimator does not accept samples")
}
