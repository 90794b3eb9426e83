package billing

import (
	"context"
	"testing"

	"github.com/rental/backend/internal/domain/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_FanOut(t *testing.T) {
	b := NewBroadcaster(0, nil)

	first, err := b.Subscribe()
	require.NoError(t, err)
	second, err := b.Subscribe()
	require.NoError(t, err)
	assert.Equal(t, 2, b.Count())

	result := &billing.Result{Month: "2024-07"}
	require.NoError(t, b.Handle(context.Background(), billing.NewComputedEvent(result)))

	assert.Same(t, result, <-first.Results)
	assert.Same(t, result, <-second.Results)
}

func TestBroadcaster_CancelClosesChannel(t *testing.T) {
	b := NewBroadcaster(0, nil)
	sub, err := b.Subscribe()
	require.NoError(t, err)

	sub.Cancel()
	sub.Cancel()

	_, open := <-sub.Results
	assert.False(t, open)
	assert.Equal(t, 0, b.Count())

	// publishing after cancel must not panic
	b.Publish(&billing.Result{Month: "2024-07"})
}

func TestBroadcaster_MaxClients(t *testing.T) {
	b := NewBroadcaster(1, nil)
	_, err := b.Subscribe()
	require.NoError(t, err)

	_, err = b.Subscribe()
	assert.ErrorIs(t, err, ErrTooManySubscribers)
}

func TestBroadcaster_SlowSubscriberDropsResults(t *testing.T) {
	b := NewBroadcaster(0, nil)
	sub, err := b.Subscribe()
	require.NoError(t, err)

	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish(&billing.Result{Month: "2024-07"})
	}
	assert.Len(t, sub.Results, subscriberBuffer)
}

func TestBroadcaster_CloseDisconnectsAll(t *testing.T) {
	b := NewBroadcaster(0, nil)
	sub, err := b.Subscribe()
	require.NoError(t, err)

	b.Close()
	_, open := <-sub.Results
	assert.False(t, open)

	// cancelling after Close is a no-op
	sub.Cancel()
}
