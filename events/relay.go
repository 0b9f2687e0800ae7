package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"orderclient/ordering"
	"orderclient/types"

	"github.com/sirupsen/logrus"
)

// DefaultQueueSize bounds the events waiting for the publisher
const DefaultQueueSize = 500

// Publisher delivers order events to a broker
type Publisher interface {
	Publish(ctx context.Context, ev types.OrderEvent) error
	Close() error
}

// Relay turns session notifications into order events. Enqueueing never
// blocks the session; events are dropped when the queue is full.
type Relay struct {
	session *ordering.Session
	pub     Publisher
	logger  logrus.FieldLogger
	queue   chan types.OrderEvent
	now     func() time.Time

	unsubscribe func()
	dropped     atomic.Int64

	mu   sync.Mutex
	sent int // log lines already turned into events
}

// NewRelay subscribes to session. Call Run to start publishing.
func NewRelay(session *ordering.Session, pub Publisher, queueSize int, logger logrus.FieldLogger) *Relay {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := &Relay{
		session: session,
		pub:     pub,
		logger:  logger.WithField("component", "relay"),
		queue:   make(chan types.OrderEvent, queueSize),
		now:     time.Now,
	}
	r.unsubscribe = session.Subscribe(r.observe)
	return r
}

// Dropped returns how many events were discarded because the queue was full
func (r *Relay) Dropped() int64 {
	return r.dropped.Load()
}

// Run publishes queued events until ctx is done, then flushes what is left
func (r *Relay) Run(ctx context.Context) error {
	defer r.unsubscribe()

	for {
		select {
		case ev := <-r.queue:
			r.publish(ctx, ev)
		case <-ctx.Done():
			r.flush()
			return nil
		}
	}
}

func (r *Relay) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-r.queue:
			r.publish(ctx, ev)
		default:
			return
		}
	}
}

func (r *Relay) publish(ctx context.Context, ev types.OrderEvent) {
	if err := r.pub.Publish(ctx, ev); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"order_id": ev.OrderID,
			"kind":     ev.Kind,
		}).Warn("failed to publish order event")
	}
}

func (r *Relay) observe(property string) {
	switch property {
	case ordering.PropLog:
		r.observeLog()
	case ordering.PropBusy:
		busy := r.session.Busy()
		ev := r.event(types.OrderEventLifecycle)
		ev.Busy = busy
		if !busy {
			ev.Outcome = string(r.session.Outcome())
		}
		r.enqueue(ev)
	}
}

// observeLog emits one trace event per line appended since the last call
func (r *Relay) observeLog() {
	lines := r.session.Log()

	r.mu.Lock()
	if len(lines) < r.sent {
		r.sent = 0
	}
	fresh := lines[r.sent:]
	r.sent = len(lines)
	r.mu.Unlock()

	for _, line := range fresh {
		ev := r.event(types.OrderEventTrace)
		ev.Line = line
		ev.Busy = r.session.Busy()
		r.enqueue(ev)
	}
}

func (r *Relay) event(kind types.OrderEventKind) types.OrderEvent {
	return types.OrderEvent{
		OrderID:   r.session.OrderID(),
		Customer:  r.session.Customer(),
		Kind:      kind,
		Timestamp: r.now().UTC(),
	}
}

func (r *Relay) enqueue(ev types.OrderEvent) {
	select {
	case r.queue <- ev:
	default:
		r.dropped.Add(1)
		r.logger.WithField("order_id", ev.OrderID).Warn("event queue full, dropping order event")
	}
}
