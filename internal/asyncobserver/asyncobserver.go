// Package asyncobserver implements the AsyncObserver wrapper (spec
// §4.7): it aggregates a model's input and output ids into vectors via
// two MessageWatchers, initializes the wrapped Observer exactly once,
// then steps it on every subsequent complete (input, output) pair and
// publishes a ModelStateEstimate.
package asyncobserver

import (
	"time"

	"github.com/cuemby/prognose/internal/bus"
	"github.com/cuemby/prognose/internal/log"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/metrics"
	"github.com/cuemby/prognose/internal/model"
	"github.com/cuemby/prognose/internal/observer"
	"github.com/cuemby/prognose/internal/vector"
	"github.com/cuemby/prognose/internal/watcher"
)

// lockTimeout is the back-pressure deadline for the wrapper's timed
// mutex acquire (spec §5).
const lockTimeout = 10 * time.Millisecond

// AsyncObserver wraps an Observer for message-driven initialization and
// stepping on one bus source.
type AsyncObserver struct {
	b      *bus.Bus
	m      model.Model
	obs    observer.Observer
	source string

	inputsWatcher  *watcher.Watcher
	outputsWatcher *watcher.Watcher

	mu chan struct{} // size-1 channel used as a timed mutex

	lastInput, lastOutput *message.Message
	haveInput, haveOutput bool
}

// New constructs an AsyncObserver over obs for m, subscribed on source.
// (The reference builder always constructs obs for m, so threading m
// through separately here only makes that existing relationship
// explicit to the wrapper, which needs m.Inputs()/Outputs() to size its
// watchers.)
func New(b *bus.Bus, m model.Model, obs observer.Observer, source string) *AsyncObserver {
	ao := &AsyncObserver{
		b: b, m: m, obs: obs, source: source,
		mu: make(chan struct{}, 1),
	}

	if len(m.Inputs()) == 0 {
		ao.haveInput = true
	} else {
		ao.inputsWatcher = watcher.New(b, source, m.Inputs(), message.ModelInputVectorID)
	}
	if len(m.Outputs()) == 0 {
		ao.haveOutput = true
	} else {
		ao.outputsWatcher = watcher.New(b, source, m.Outputs(), message.ModelOutputVectorID)
	}

	b.Subscribe(ao, source, message.ModelInputVectorID, ao.onInput)
	b.Subscribe(ao, source, message.ModelOutputVectorID, ao.onOutput)

	return ao
}

// Close unsubscribes the wrapper and its watchers from the bus.
func (ao *AsyncObserver) Close() {
	if ao.inputsWatcher != nil {
		ao.inputsWatcher.Close()
	}
	if ao.outputsWatcher != nil {
		ao.outputsWatcher.Close()
	}
	ao.b.Unsubscribe(ao)
}

func (ao *AsyncObserver) onInput(m *message.Message) {
	ao.onMessage(m, true)
}

func (ao *AsyncObserver) onOutput(m *message.Message) {
	ao.onMessage(m, false)
}

func (ao *AsyncObserver) onMessage(m *message.Message, isInput bool) {
	select {
	case ao.mu <- struct{}{}:
		defer func() { <-ao.mu }()
	case <-time.After(lockTimeout):
		metrics.ObserverDropsTotal.WithLabelValues(ao.source).Inc()
		return
	}

	if isInput {
		ao.lastInput = m
		ao.haveInput = true
	} else {
		ao.lastOutput = m
		ao.haveOutput = true
	}

	if !ao.haveInput || !ao.haveOutput {
		return
	}

	ao.process()

	if ao.inputsWatcher != nil {
		ao.haveInput = false
	}
	if ao.outputsWatcher != nil {
		ao.haveOutput = false
	}
}

func (ao *AsyncObserver) process() {
	u := vectorFrom(ao.lastInput, len(ao.m.Inputs()))
	z := vectorFrom(ao.lastOutput, len(ao.m.Outputs()))
	t := newerSeconds(ao.lastInput, ao.lastOutput)

	if !ao.obs.IsInitialized() {
		x0 := ao.m.Initialize(u, z)
		ao.obs.Initialize(t, x0, u)
		metrics.ObserverInitializedTotal.WithLabelValues(ao.source).Inc()
		return
	}

	if err := ao.obs.Step(t, u, z); err != nil {
		log.WithSource(ao.source).Warn().Err(err).Msg("asyncobserver: step failed, dropping")
		return
	}
	metrics.ObserverStepsTotal.WithLabelValues(ao.source).Inc()

	estimate, err := ao.obs.GetStateEstimate()
	if err != nil {
		log.WithSource(ao.source).Warn().Err(err).Msg("asyncobserver: get_state_estimate failed")
		return
	}
	ao.b.Publish(message.New(message.ModelStateEstimateID, ao.source, message.FromSeconds(t), estimate))
}

func vectorFrom(m *message.Message, size int) vector.Vector {
	if m == nil {
		return vector.New(size)
	}
	if v, ok := m.Vector(); ok {
		return v
	}
	if v, ok := m.Scalar(); ok {
		return vector.Vector{v}
	}
	return vector.New(size)
}

func newerSeconds(a, b *message.Message) float64 {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return b.Timestamp.Seconds()
	case b == nil:
		return a.Timestamp.Seconds()
	}
	if a.Timestamp > b.Timestamp {
		return a.Timestamp.Seconds()
	}
	return b.Timestamp.Seconds()
}
