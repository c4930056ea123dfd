// Package asyncload implements the load-listener component (spec
// §4.10/§5): it subscribes to a source's aggregated ModelInputVector
// messages and forwards each one into a load estimator's AddLoad when
// the estimator reports CanAddLoad, so that estimator mutation happens
// only on the bus's delivery thread.
//
// Grounded on original_source/inc/Loading/LoadListener.h, which
// subscribes to MessageId::ModelInputVector and calls addLoad when
// canAddLoad is true.
package asyncload

import (
	"github.com/cuemby/prognose/internal/bus"
	"github.com/cuemby/prognose/internal/load"
	"github.com/cuemby/prognose/internal/log"
	"github.com/cuemby/prognose/internal/message"
)

// Listener forwards ModelInputVector messages on one bus source into a
// load estimator, when that estimator accepts samples.
type Listener struct {
	b      *bus.Bus
	source string
}

// New subscribes a Listener to ModelInputVector on source, forwarding
// into loadEst.AddLoad whenever loadEst.CanAddLoad() is true. Call
// Close to unsubscribe.
func New(b *bus.Bus, loadEst load.Estimator, source string) *Listener {
	l := &Listener{b: b, source: source}
	b.Subscribe(l, source, message.ModelInputVectorID, func(m *message.Message) {
		if !loadEst.CanAddLoad() {
			return
		}
		v, ok := m.Vector()
		if !ok {
			return
		}
		if err := loadEst.AddLoad(v); err != nil {
			log.WithSource(source).Warn().Err(err).Msg("asyncload: add_load failed, dropping sample")
		}
	})
	return l
}

// Close unsubscribes the listener from the bus.
func (l *Listener) Close() {
	l.b.Unsubscribe(l)
}
