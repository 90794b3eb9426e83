package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rental/backend/internal/domain/billing"
	"github.com/rental/backend/internal/domain/metering"
)

type cachedResult struct {
	result    *billing.Result
	expiresAt time.Time
}

// InMemoryBillingCache keeps computed months in process memory. It stores
// and hands out copies, so callers may modify what they pass in or get back.
type InMemoryBillingCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[metering.Month]cachedResult
	nowFunc func() time.Time
}

// NewInMemoryBillingCache creates a cache whose entries live for ttl (forever when ttl <= 0)
func NewInMemoryBillingCache(ttl time.Duration) *InMemoryBillingCache {
	return &InMemoryBillingCache{
		ttl:     ttl,
		entries: make(map[metering.Month]cachedResult),
		nowFunc: time.Now,
	}
}

// Get returns the cached result or nil on a miss
func (c *InMemoryBillingCache) Get(_ context.Context, month metering.Month) (*billing.Result, error) {
	c.mu.RLock()
	e, ok := c.entries[month]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && c.nowFunc().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, month)
		c.mu.Unlock()
		return nil, nil
	}
	return e.result.Clone(), nil
}

// Set stores a result under its month
func (c *InMemoryBillingCache) Set(_ context.Context, result *billing.Result) error {
	e := cachedResult{result: result.Clone()}
	if c.ttl > 0 {
		e.expiresAt = c.nowFunc().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[result.Month] = e
	c.mu.Unlock()
	return nil
}

// InvalidateFrom drops month and every later month
func (c *InMemoryBillingCache) InvalidateFrom(_ context.Context, month metering.Month) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for m := range c.entries {
		if !m.Before(month) {
			delete(c.entries, m)
		}
	}
	return nil
}

// Len returns the number of cached months
func (c *InMemoryBillingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ billing.ResultCache = (*InMemoryBillingCache)(nil)

const (
	billingKeyPrefix = "rental:billing:"
	billingIndexKey  = "rental:billing:months"
)

// RedisBillingCache stores results as JSON. A sorted set scored by month
// index lets InvalidateFrom find every later month in one range query.
type RedisBillingCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisBillingCache creates a Redis backed result cache
func NewRedisBillingCache(client redis.UniversalClient, ttl time.Duration) *RedisBillingCache {
	return &RedisBillingCache{client: client, ttl: ttl}
}

func billingKey(month metering.Month) string {
	return billingKeyPrefix + month.String()
}

// monthScore maps "YYYY-MM" to a number that orders the same way
func monthScore(month metering.Month) float64 {
	t := month.Time()
	return float64(t.Year()*12 + int(t.Month()) - 1)
}

// Get returns the cached result or nil on a miss
func (c *RedisBillingCache) Get(ctx context.Context, month metering.Month) (*billing.Result, error) {
	data, err := c.client.Get(ctx, billingKey(month)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read billing cache: %w", err)
	}

	var result billing.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached billing result: %w", err)
	}
	return &result, nil
}

// Set stores a result under its month
func (c *RedisBillingCache) Set(ctx context.Context, result *billing.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode billing result: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, billingKey(result.Month), data, c.ttl)
		pipe.ZAdd(ctx, billingIndexKey, redis.Z{Score: monthScore(result.Month), Member: result.Month.String()})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write billing cache: %w", err)
	}
	return nil
}

// InvalidateFrom drops month and every later month
func (c *RedisBillingCache) InvalidateFrom(ctx context.Context, month metering.Month) error {
	minScore := strconv.FormatFloat(monthScore(month), 'f', 0, 64)
	months, err := c.client.ZRangeByScore(ctx, billingIndexKey, &redis.ZRangeBy{Min: minScore, Max: "+inf"}).Result()
	if err != nil {
		return fmt.Errorf("failed to list cached months: %w", err)
	}
	if len(months) == 0 {
		return nil
	}

	keys := make([]string, len(months))
	members := make([]any, len(months))
	for i, m := range months {
		keys[i] = billingKeyPrefix + m
		members[i] = m
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, billingIndexKey, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate billing cache: %w", err)
	}
	return nil
}

var _ billing.ResultCache = (*RedisBillingCache)(nil)
