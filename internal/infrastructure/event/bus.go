// Package event is the in-process domain event bus. It fans reading and
// billing events out to the billing stream and audit handlers.
package event

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rental/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrBusStopped is returned by Publish on a queued bus that is not running
var ErrBusStopped = errors.New("event bus stopped")

type queued struct {
	ctx context.Context
	evt shared.DomainEvent
}

// InMemoryEventBus delivers events to subscribed handlers. By default
// handlers run inside Publish. With WithQueue a single dispatcher goroutine,
// started by Start, delivers them in publish order.
type InMemoryEventBus struct {
	subs subscriptions
	log  *zap.Logger

	mu       sync.RWMutex // guards running and queue
	running  bool
	capacity int
	queue    chan queued
	done     chan struct{}
}

type Option func(*InMemoryEventBus)

// WithQueue buffers up to size events for the dispatcher
func WithQueue(size int) Option {
	return func(b *InMemoryEventBus) { b.capacity = size }
}

func NewInMemoryEventBus(log *zap.Logger, opts ...Option) *InMemoryEventBus {
	b := &InMemoryEventBus{
		subs: subscriptions{byType: map[string][]shared.EventHandler{}},
		log:  log,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.capacity == 0 {
		for _, e := range events {
			b.deliver(ctx, e)
		}
		return nil
	}
	if !b.running {
		return ErrBusStopped
	}

	// queued handlers must not see the request's cancellation
	hctx := context.WithoutCancel(ctx)
	for _, e := range events {
		select {
		case b.queue <- queued{ctx: hctx, evt: e}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe registers h for types, or for h.EventTypes() when none are
// given. A handler with no types at all sees every event.
func (b *InMemoryEventBus) Subscribe(h shared.EventHandler, types ...string) {
	if len(types) == 0 {
		types = h.EventTypes()
	}
	b.subs.add(h, types)
	b.log.Debug("Event handler subscribed", zap.Strings("event_types", types))
}

func (b *InMemoryEventBus) Unsubscribe(h shared.EventHandler) {
	b.subs.remove(h)
}

// Start is idempotent. It only spawns the dispatcher for a queued bus.
func (b *InMemoryEventBus) Start(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return nil
	}
	if b.capacity > 0 {
		b.queue = make(chan queued, b.capacity)
		b.done = make(chan struct{})
		go b.dispatchLoop(b.queue, b.done)
	}
	b.running = true
	b.log.Info("Event bus started", zap.Int("queue_size", b.capacity))
	return nil
}

// Stop refuses new events and waits until the queue has drained or ctx ends
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.running = false
	done := b.done
	if b.queue != nil {
		close(b.queue)
	}
	b.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		b.log.Info("Event bus drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *InMemoryEventBus) dispatchLoop(queue <-chan queued, done chan<- struct{}) {
	defer close(done)
	for q := range queue {
		b.deliver(q.ctx, q.evt)
	}
}

// deliver runs every matching handler. One failing or panicking handler
// does not keep the event from the rest.
func (b *InMemoryEventBus) deliver(ctx context.Context, e shared.DomainEvent) {
	for _, h := range b.subs.lookup(e.EventType()) {
		if err := safeHandle(ctx, h, e); err != nil {
			b.log.Error("Event handler failed",
				zap.String("event_type", e.EventType()),
				zap.Stringer("event_id", e.EventID()),
				zap.Error(err),
			)
		}
	}
}

func safeHandle(ctx context.Context, h shared.EventHandler, e shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.Handle(ctx, e)
}

type subscriptions struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler
}

func (s *subscriptions) add(h shared.EventHandler, types []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(types) == 0 {
		s.wildcard = append(s.wildcard, h)
	}
	for _, t := range types {
		s.byType[t] = append(s.byType[t], h)
	}
}

func (s *subscriptions) remove(h shared.EventHandler) {
	same := func(other shared.EventHandler) bool { return other == h }

	s.mu.Lock()
	defer s.mu.Unlock()
	s.wildcard = slices.DeleteFunc(s.wildcard, same)
	for t, hs := range s.byType {
		if hs = slices.DeleteFunc(hs, same); len(hs) > 0 {
			s.byType[t] = hs
		} else {
			delete(s.byType, t)
		}
	}
}

// lookup copies the matching handlers so none run under the lock
func (s *subscriptions) lookup(eventType string) []shared.EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Concat(s.byType[eventType], s.wildcard)
}

// HandlerFunc turns a function into a shared.EventHandler
type HandlerFunc struct {
	Types []string
	Fn    func(ctx context.Context, event shared.DomainEvent) error
}

func (h *HandlerFunc) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.Fn(ctx, event)
}

func (h *HandlerFunc) EventTypes() []string { return h.Types }

var _ shared.EventBus = (*InMemoryEventBus)(nil)
