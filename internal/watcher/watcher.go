// Package watcher implements MessageWatcher: an aggregator that
// subscribes to N scalar ids on one source and emits a single vector
// message once every id has reported a fresh value in the current
// round.
package watcher

import (
	"sync"

	"github.com/cuemby/prognose/internal/bus"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/vector"
)

// Watcher aggregates scalar messages for ids[0..N) on source into a
// single vector message published as publishID, once per "round" (a
// round ends at emission).
type Watcher struct {
	b         *bus.Bus
	source    string
	ids       []message.ID
	publishID message.ID

	mu      sync.Mutex
	values  vector.Vector
	present []bool
}

// New subscribes a Watcher to each id in ids on source and returns it.
// Call Close to unsubscribe.
func New(b *bus.Bus, source string, ids []message.ID, publishID message.ID) *Watcher {
	w := &Watcher{
		b:         b,
		source:    source,
		ids:       append([]message.ID(nil), ids...),
		publishID: publishID,
		values:    vector.New(len(ids)),
		present:   make([]bool, len(ids)),
	}
	for i, id := range ids {
		idx := i
		b.Subscribe(w, source, id, func(m *message.Message) { w.onMessage(idx, m) })
	}
	return w
}

// Close unsubscribes the watcher from the bus.
func (w *Watcher) Close() {
	w.b.Unsubscribe(w)
}

func (w *Watcher) onMessage(idx int, m *message.Message) {
	v, ok := m.Scalar()
	if !ok {
		return
	}

	w.mu.Lock()
	w.values[idx] = v
	w.present[idx] = true

	complete := true
	for _, p := range w.present {
		if !p {
			complete = false
			break
		}
	}

	var snapshot vector.Vector
	if complete {
		snapshot = w.values.Clone()
		for i := range w.present {
			w.present[i] = false
		}
	}
	w.mu.Unlock()

	if complete {
		w.b.Publish(message.New(w.publishID, w.source, m.Timestamp, snapshot))
	}
}
