// Package bus implements the MessageBus: the scheduling core that
// routes messages from publishers to subscribers by (source, id), in
// either a deferred (single-threaded, cooperative) or async (one
// delivery goroutine per source) scheduling mode.
//
// Grounded on the teacher's pkg/events broker (subscriber map guarded by
// a mutex, buffered channel hand-off, best-effort delivery) generalized
// from a single untyped broadcast topic to routed (source, id) delivery
// with an explicit deferred-vs-async scheduling choice and an ordering
// guarantee per (source, handler) pair.
package bus

import (
	"sync"
	"time"

	"github.com/cuemby/prognose/internal/log"
	"github.com/cuemby/prognose/internal/message"
	"github.com/cuemby/prognose/internal/metrics"
)

// Handler receives a delivered message. It must not block indefinitely;
// a handler that panics is recovered, logged, and does not affect
// delivery to other subscribers.
type Handler func(*message.Message)

// Mode selects the bus's scheduling model.
type Mode int

const (
	// Deferred queues publishes and dispatches them cooperatively, in
	// FIFO order, on whichever goroutine calls WaitAll/WaitFor/WaitUntil.
	Deferred Mode = iota
	// Async dispatches each publish from a per-source delivery
	// goroutine, so sources fan out concurrently while preserving
	// publish order within a source.
	Async
)

type subscription struct {
	owner  any
	source string
	id     message.ID
	fn     Handler
}

// Bus is the message routing core. The zero value is not usable; build
// one with New.
type Bus struct {
	mode Mode

	mu   sync.Mutex
	subs map[string][]*subscription // keyed by source

	// Deferred mode.
	qmu   sync.Mutex
	queue []*message.Message

	// Async mode.
	wg        sync.WaitGroup
	workersMu sync.Mutex
	workers   map[string]chan *message.Message
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// New creates a Bus in the given scheduling mode.
func New(mode Mode) *Bus {
	return &Bus{
		mode:    mode,
		subs:    make(map[string][]*subscription),
		workers: make(map[string]chan *message.Message),
		stopCh:  make(chan struct{}),
	}
}

// Subscribe registers fn, owned by owner, to receive messages from
// source whose id matches (exactly, or via the message.All wildcard).
// The same owner may subscribe more than once; duplicate subscriptions
// deliver twice.
func (b *Bus) Subscribe(owner any, source string, id message.ID, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[source] = append(b.subs[source], &subscription{owner: owner, source: source, id: id, fn: fn})
}

// Unsubscribe removes every subscription owned by owner, across all
// sources.
func (b *Bus) Unsubscribe(owner any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for src, list := range b.subs {
		b.subs[src] = filterOwner(list, owner, "")
	}
}

// UnsubscribeSource removes only owner's subscriptions for source.
func (b *Bus) UnsubscribeSource(owner any, source string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[source] = filterOwner(b.subs[source], owner, source)
}

func filterOwner(list []*subscription, owner any, source string) []*subscription {
	out := list[:0:0]
	for _, s := range list {
		if s.owner == owner && (source == "" || s.source == source) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Publish enqueues message for delivery to every subscription matching
// its source and id.
func (b *Bus) Publish(m *message.Message) {
	metrics.MessagesPublishedTotal.WithLabelValues(m.Source).Inc()
	switch b.mode {
	case Deferred:
		b.qmu.Lock()
		b.queue = append(b.queue, m)
		metrics.QueueDepth.Set(float64(len(b.queue)))
		b.qmu.Unlock()
	case Async:
		b.wg.Add(1)
		ch := b.workerFor(m.Source)
		ch <- m
	}
}

func (b *Bus) workerFor(source string) chan *message.Message {
	b.workersMu.Lock()
	defer b.workersMu.Unlock()
	ch, ok := b.workers[source]
	if ok {
		return ch
	}
	ch = make(chan *message.Message, 256)
	b.workers[source] = ch
	go b.runWorker(source, ch)
	return ch
}

func (b *Bus) runWorker(source string, ch chan *message.Message) {
	for {
		select {
		case m := <-ch:
			b.deliver(m)
			b.wg.Done()
		case <-b.stopCh:
			return
		}
	}
}

// deliver copies out the matching subscription list under lock, then
// invokes each handler outside the lock so a handler is free to
// subscribe or unsubscribe (including itself) without deadlocking.
func (b *Bus) deliver(m *message.Message) {
	b.mu.Lock()
	list := b.subs[m.Source]
	matching := make([]*subscription, 0, len(list))
	for _, s := range list {
		if s.id.Matches(m.ID) {
			matching = append(matching, s)
		}
	}
	b.mu.Unlock()

	for _, s := range matching {
		b.invoke(s, m)
	}
}

func (b *Bus) invoke(s *subscription, m *message.Message) {
	defer func() {
		if r := recover(); r != nil {
			metrics.HandlerPanicsTotal.WithLabelValues(m.Source).Inc()
			log.WithSource(m.Source).Error().
				Interface("panic", r).
				Uint64("message_id", uint64(m.ID)).
				Msg("bus: subscriber handler panicked, message dropped for this subscriber")
		}
	}()
	s.fn(m)
	metrics.MessagesDeliveredTotal.WithLabelValues(m.Source).Inc()
}

// WaitAll blocks until every message published before the call has been
// fully processed by every matching subscriber.
func (b *Bus) WaitAll() {
	switch b.mode {
	case Deferred:
		b.drain()
	case Async:
		b.wg.Wait()
	}
}

// drain dispatches the deferred queue in FIFO order on the caller's
// goroutine until empty. New publishes made from within a handler are
// appended to the same queue and are drained in the same pass.
func (b *Bus) drain() {
	for {
		b.qmu.Lock()
		if len(b.queue) == 0 {
			b.qmu.Unlock()
			return
		}
		m := b.queue[0]
		b.queue = b.queue[1:]
		metrics.QueueDepth.Set(float64(len(b.queue)))
		b.qmu.Unlock()

		b.deliver(m)
	}
}

// WaitFor is like WaitAll, but is guaranteed to block for at least d
// regardless of how quickly the queue drains. This intentionally
// doubles as a "settle" primitive for tests and example programs.
func (b *Bus) WaitFor(d time.Duration) {
	start := time.Now()
	b.WaitAll()
	if elapsed := time.Since(start); elapsed < d {
		time.Sleep(d - elapsed)
	}
}

// WaitUntil is WaitFor(time.Until(deadline)).
func (b *Bus) WaitUntil(deadline time.Time) {
	b.WaitFor(time.Until(deadline))
}

// Close stops all async-mode delivery goroutines. Safe to call more
// than once; a no-op in Deferred mode.
func (b *Bus) Close() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}
