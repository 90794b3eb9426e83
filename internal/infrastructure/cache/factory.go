package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rental/backend/internal/domain/billing"
	"github.com/rental/backend/internal/infrastructure/auth"
	"github.com/rental/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores bundles the stateful stores that can live in Redis
type Stores struct {
	Client       *redis.Client // nil when running in memory
	BillingCache billing.ResultCache
	Blacklist    auth.TokenBlacklist
}

// Close releases the Redis client if any
func (s *Stores) Close() error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Close()
}

// Factory creates stores based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	billingTTL            time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(redisCfg config.RedisConfig, billingTTL time.Duration, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           redisCfg,
		billingTTL:            billingTTL,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// InMemory returns process-local stores
func (f *Factory) InMemory() *Stores {
	return &Stores{
		BillingCache: NewInMemoryBillingCache(f.billingTTL),
		Blacklist:    auth.NewInMemoryTokenBlacklist(),
	}
}

// Create returns Redis backed stores when Redis is enabled and reachable
func (f *Factory) Create(ctx context.Context) (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory billing cache and token blacklist")
		return f.InMemory(), nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis billing cache and token blacklist", zap.String("addr", f.redisConfig.Addr()))
		return &Stores{
			Client:       client,
			BillingCache: NewRedisBillingCache(client, f.billingTTL),
			Blacklist:    auth.NewRedisTokenBlacklist(client),
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Revoked tokens and cached bills are not shared between instances.",
		zap.Error(err),
	)
	return f.InMemory(), nil
}
