package billing

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/billing"
	"github.com/rental/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrTooManySubscribers is returned when the subscriber limit is reached
var ErrTooManySubscribers = errors.New("too many billing stream subscribers")

// subscriberBuffer is how many results may queue for a slow subscriber before drops
const subscriberBuffer = 16

// Subscription receives recomputed billing results until cancelled
type Subscription struct {
	ID      string
	Results <-chan *billing.Result
	cancel  func()
}

// Cancel unsubscribes and closes Results. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancel()
}

// Broadcaster fans BillingComputed events out to live subscribers.
// It implements shared.EventHandler.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan *billing.Result
	maxClients  int
	logger      *zap.Logger
}

// NewBroadcaster creates a broadcaster. maxClients <= 0 means unlimited.
func NewBroadcaster(maxClients int, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan *billing.Result),
		maxClients:  maxClients,
		logger:      logger,
	}
}

// Subscribe registers a new subscriber
func (b *Broadcaster) Subscribe() (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxClients > 0 && len(b.subscribers) >= b.maxClients {
		return nil, ErrTooManySubscribers
	}

	id := uuid.NewString()
	ch := make(chan *billing.Result, subscriberBuffer)
	b.subscribers[id] = ch

	var once sync.Once
	return &Subscription{
		ID:      id,
		Results: ch,
		cancel: func() {
			once.Do(func() { b.remove(id) })
		},
	}, nil
}

func (b *Broadcaster) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Count returns the number of live subscribers
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Publish delivers result to every subscriber without blocking.
// A subscriber whose buffer is full misses the result.
func (b *Broadcaster) Publish(result *billing.Result) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- result:
		default:
			b.logger.Warn("Billing subscriber is full, dropping result",
				zap.String("subscriber_id", id),
				zap.String("month", result.Month.String()))
		}
	}
}

// Close disconnects every subscriber
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Handle implements shared.EventHandler
func (b *Broadcaster) Handle(_ context.Context, event shared.DomainEvent) error {
	computed, ok := event.(*billing.ComputedEvent)
	if !ok || computed.Result == nil {
		return nil
	}
	b.Publish(computed.Result)
	return nil
}

// EventTypes implements shared.EventHandler
func (b *Broadcaster) EventTypes() []string {
	return []string{billing.EventTypeBillingComputed}
}

var _ shared.EventHandler = (*Broadcaster)(nil)
