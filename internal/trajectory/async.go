package trajectory

import (
	"github.com/cuemby/prognose/internal/bus"
	"github.com/cuemby/prognose/internal/log"
	"github.com/cuemby/prognose/internal/message"
)

// SetWaypointPayload is the struct payload carried by a RouteSetWP
// message.
type SetWaypointPayload struct {
	ETA   message.Timestamp
	Point message.Point3D
}

// DeleteWaypointPayload is the struct payload carried by a
// RouteDeleteWP message.
type DeleteWaypointPayload struct {
	ETA message.Timestamp
}

// AsyncWrapper subscribes a Service to RouteStart/RouteEnd/RouteClear/
// RouteDeleteWP/RouteSetWP messages on source and forwards each to the
// corresponding Service method, per spec §4.3.
type AsyncWrapper struct {
	svc    *Service
	b      *bus.Bus
	source string
}

// NewAsyncWrapper wraps svc for message-driven updates on source.
func NewAsyncWrapper(b *bus.Bus, svc *Service, source string) *AsyncWrapper {
	w := &AsyncWrapper{svc: svc, b: b, source: source}

	b.Subscribe(w, source, message.RouteStartID, w.onRouteStart)
	b.Subscribe(w, source, message.RouteEndID, w.onRouteEnd)
	b.Subscribe(w, source, message.RouteClearID, w.onRouteClear)
	b.Subscribe(w, source, message.RouteSetWPID, w.onRouteSetWP)
	b.Subscribe(w, source, message.RouteDeleteWPID, w.onRouteDeleteWP)

	return w
}

// Close unsubscribes the wrapper from the bus.
func (w *AsyncWrapper) Close() {
	w.b.Unsubscribe(w)
}

// Service returns the underlying TrajectoryService.
func (w *AsyncWrapper) Service() *Service { return w.svc }

func (w *AsyncWrapper) onRouteStart(m *message.Message) {
	log.WithSource(w.source).Debug().Msg("trajectory: route started")
}

func (w *AsyncWrapper) onRouteEnd(m *message.Message) {
	log.WithSource(w.source).Debug().Msg("trajectory: route ended")
}

func (w *AsyncWrapper) onRouteClear(m *message.Message) {
	w.svc.ClearWaypoints()
}

func (w *AsyncWrapper) onRouteSetWP(m *message.Message) {
	p, ok := m.Payload.(SetWaypointPayload)
	if !ok {
		log.WithSource(w.source).Warn().Msg("trajectory: RouteSetWP with unexpected payload type")
		return
	}
	w.svc.SetWaypoint(p.ETA, p.Point)
}

func (w *AsyncWrapper) onRouteDeleteWP(m *message.Message) {
	p, ok := m.Payload.(DeleteWaypointPayload)
	if !ok {
		log.WithSource(w.source).Warn().Msg("trajectory: RouteDeleteWP with unexpected payload type")
		return
	}
	w.svc.DeleteWaypoint(p.ETA)
}
