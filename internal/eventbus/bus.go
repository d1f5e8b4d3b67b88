// Package eventbus is the in-process publish/subscribe channel that carries
// domain events from case operations to their side-effect subscribers.
//
// Publish never blocks and never reports subscriber failures. Delivery is
// at-most-once per process: events are not persisted, and an event that
// finds the queue full is dropped.
package eventbus

import (
	"context"
	"fmt"
	"sync"

	"cheatreport/backend/internal/logger"
	"cheatreport/backend/internal/metrics"

	"go.uber.org/zap"
)

// Handler consumes one event. A returned error or a panic is logged and
// counted, then the next subscriber runs.
type Handler func(ctx context.Context, ev Event) error

type subscription struct {
	name    string
	kinds   map[Kind]bool
	handler Handler
}

func (s subscription) wants(k Kind) bool {
	return len(s.kinds) == 0 || s.kinds[k]
}

// Bus queues events on a bounded channel and delivers them from a single
// dispatcher goroutine started with Run.
type Bus struct {
	queue chan Event
	log   *logger.Logger

	mu     sync.RWMutex
	subs   []subscription
	closed bool
}

// New creates a bus holding at most size undelivered events.
func New(size int, log *logger.Logger) *Bus {
	if size <= 0 {
		size = 1
	}
	return &Bus{queue: make(chan Event, size), log: log}
}

// Subscribe registers h for the given kinds, or for every kind when none are
// given. Subscribers see each event in registration order.
func (b *Bus) Subscribe(name string, h Handler, kinds ...Kind) {
	set := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	b.mu.Lock()
	b.subs = append(b.subs, subscription{name: name, kinds: set, handler: h})
	b.mu.Unlock()
}

// Publish enqueues an event and returns immediately. It reports whether the
// event was accepted.
func (b *Bus) Publish(kind Kind, payload any) bool {
	ev := newEvent(kind, payload)

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.drop(ev, "bus closed")
		return false
	}
	select {
	case b.queue <- ev:
		metrics.EventsPublishedTotal.WithLabelValues(string(kind)).Inc()
		return true
	default:
		b.drop(ev, "queue full")
		return false
	}
}

func (b *Bus) drop(ev Event, reason string) {
	metrics.EventsDroppedTotal.WithLabelValues(string(ev.Kind)).Inc()
	b.log.Warn("dropping event",
		zap.String("event_id", ev.ID),
		zap.String("event_kind", string(ev.Kind)),
		zap.String("reason", reason),
	)
}

// Run delivers queued events until Close has been called and the queue is
// drained, or until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case ev, ok := <-b.queue:
			if !ok {
				return
			}
			b.dispatch(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

// Close stops accepting events. Events already queued are still delivered
// by Run, which then returns.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.queue)
}

func (b *Bus) dispatch(ctx context.Context, ev Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if !s.wants(ev.Kind) {
			continue
		}
		if err := b.deliver(ctx, s, ev); err != nil {
			metrics.SubscriberFailuresTotal.WithLabelValues(s.name, string(ev.Kind)).Inc()
			b.log.Error("subscriber failed", err,
				zap.String("subscriber", s.name),
				zap.String("event_kind", string(ev.Kind)),
				zap.String("event_id", ev.ID),
			)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, s subscription, ev Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return s.handler(ctx, ev)
}
