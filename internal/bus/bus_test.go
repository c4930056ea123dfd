package bus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/prognose/internal/message"
)

func countingHandler(n *int32) Handler {
	return func(m *message.Message) {
		atomic.AddInt32(n, 1)
	}
}

func TestBusFanOut(t *testing.T) {
	// Scenario 1 (spec §8): three subscribers subscribe to
	// (source="A", TestInput0), (source="A", All), (source="B", All).
	for _, mode := range []Mode{Deferred, Async} {
		t.Run(modeName(mode), func(t *testing.T) {
			b := New(mode)
			defer b.Close()

			var n1, n2, n3 int32
			owner1, owner2, owner3 := new(int), new(int), new(int)
			b.Subscribe(owner1, "A", message.TestInput0ID, countingHandler(&n1))
			b.Subscribe(owner2, "A", message.All, countingHandler(&n2))
			b.Subscribe(owner3, "B", message.All, countingHandler(&n3))

			b.Publish(message.New(message.TestInput0ID, "A", message.Now(), 1.0))
			b.Publish(message.New(message.TestInput1ID, "A", message.Now(), 2.0))
			b.Publish(message.New(message.TestInput0ID, "B", message.Now(), 3.0))

			b.WaitAll()

			assert.EqualValues(t, 1, n1)
			assert.EqualValues(t, 2, n2)
			assert.EqualValues(t, 1, n3)
		})
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New(Deferred)
	var n int32
	owner := new(int)
	b.Subscribe(owner, "A", message.All, countingHandler(&n))
	b.Publish(message.New(message.TestInput0ID, "A", message.Now(), 1.0))
	b.WaitAll()
	require.EqualValues(t, 1, n)

	b.Unsubscribe(owner)
	b.Publish(message.New(message.TestInput0ID, "A", message.Now(), 1.0))
	b.WaitAll()
	assert.EqualValues(t, 1, n, "no further deliveries after Unsubscribe")
}

func TestUnsubscribeSourceScoped(t *testing.T) {
	b := New(Deferred)
	var n int32
	owner := new(int)
	b.Subscribe(owner, "A", message.All, countingHandler(&n))
	b.Subscribe(owner, "B", message.All, countingHandler(&n))

	b.UnsubscribeSource(owner, "A")

	b.Publish(message.New(message.TestInput0ID, "A", message.Now(), 1.0))
	b.Publish(message.New(message.TestInput0ID, "B", message.Now(), 1.0))
	b.WaitAll()

	assert.EqualValues(t, 1, n, "only the B subscription should still be live")
}

func TestOrderingPerSourceHandler(t *testing.T) {
	for _, mode := range []Mode{Deferred, Async} {
		t.Run(modeName(mode), func(t *testing.T) {
			b := New(mode)
			defer b.Close()

			var mu sync.Mutex
			var seen []float64
			owner := new(int)
			b.Subscribe(owner, "A", message.All, func(m *message.Message) {
				mu.Lock()
				v, _ := m.Scalar()
				seen = append(seen, v)
				mu.Unlock()
			})

			for i := 0; i < 50; i++ {
				b.Publish(message.New(message.TestInput0ID, "A", message.Now(), float64(i)))
			}
			b.WaitAll()

			require.Len(t, seen, 50)
			for i, v := range seen {
				assert.Equal(t, float64(i), v, "messages for a (source, handler) pair must arrive in publish order")
			}
		})
	}
}

func TestHandlerPanicDoesNotPoisonBus(t *testing.T) {
	b := New(Deferred)
	owner1, owner2 := new(int), new(int)
	var n int32
	b.Subscribe(owner1, "A", message.All, func(m *message.Message) {
		panic("boom")
	})
	b.Subscribe(owner2, "A", message.All, countingHandler(&n))

	b.Publish(message.New(message.TestInput0ID, "A", message.Now(), 1.0))
	b.WaitAll()

	assert.EqualValues(t, 1, n, "a panicking handler must not prevent other subscribers from receiving the message")
}

func TestWaitForSleepsAtLeastDuration(t *testing.T) {
	b := New(Deferred)
	start := time.Now()
	b.WaitFor(30 * time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func modeName(m Mode) string {
	if m == Deferred {
		return "deferred"
	}
	return "async"
}
