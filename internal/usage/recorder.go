// Package usage records script deliveries without blocking the request that
// triggered them.
package usage

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

// DefaultQueueSize is used when no positive queue size is configured
const DefaultQueueSize = 256

// CountryLocator resolves an ip address to a country code
type CountryLocator interface {
	Country(ip string) string
}

// Recorder persists usage events on a background worker
type Recorder struct {
	store   model.UsageStore
	geo     CountryLocator
	queue   chan model.ScriptUsage
	done    chan struct{}
	once    sync.Once
	closeMu sync.RWMutex
	closed  bool
	now     func() time.Time
}

// NewRecorder starts a Recorder writing to store. geo may be nil.
func NewRecorder(store model.UsageStore, geo CountryLocator, queueSize int) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	r := &Recorder{
		store: store,
		geo:   geo,
		queue: make(chan model.ScriptUsage, queueSize),
		done:  make(chan struct{}),
		now:   time.Now,
	}
	go r.run()
	return r
}

// Record enqueues a usage event. It never blocks; when the queue is full or
// the recorder is closed the event is dropped.
func (r *Recorder) Record(scriptID, ip string) {
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()
	if r.closed {
		return
	}
	ev := model.ScriptUsage{
		ScriptID:  scriptID,
		IP:        ip,
		CreatedAt: r.now(),
	}
	select {
	case r.queue <- ev:
	default:
		log.WithField("script", scriptID).Warn("usage queue full, dropping event")
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for ev := range r.queue {
		if r.geo != nil {
			ev.Country = r.geo.Country(ev.IP)
		}
		if err := r.store.Record(ev); err != nil {
			log.WithError(err).WithField("script", ev.ScriptID).Error("could not record script usage")
		}
	}
}

// Close stops accepting events and waits until queued events are written
func (r *Recorder) Close() {
	r.once.Do(
		func() {
			r.closeMu.Lock()
			r.closed = true
			close(r.queue)
			r.closeMu.Unlock()
		},
	)
	<-r.done
}
