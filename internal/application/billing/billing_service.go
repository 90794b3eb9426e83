package billing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rental/backend/internal/domain/billing"
	"github.com/rental/backend/internal/domain/metering"
	"github.com/rental/backend/internal/domain/property"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/domain/tariff"
	"github.com/rental/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const publishTimeout = 2 * time.Second

// BillingService runs billing sessions for a month
type BillingService struct {
	rooms    property.RoomRepository
	readings metering.ReadingRepository
	schedule *tariff.Schedule
	cache    billing.ResultCache
	events   shared.EventPublisher
	metrics  *telemetry.BillingMetrics
	logger   *zap.Logger
	group    singleflight.Group

	// storeMu orders cache writes against invalidations. generation counts
	// invalidations and floors keeps the latest one per starting month.
	storeMu    sync.Mutex
	generation uint64
	floors     map[metering.Month]uint64
}

// Option configures the billing service
type Option func(*BillingService)

// WithCache serves repeated requests from cache
func WithCache(cache billing.ResultCache) Option {
	return func(s *BillingService) {
		s.cache = cache
	}
}

// WithEventPublisher publishes a BillingComputed event after every recomputation
func WithEventPublisher(events shared.EventPublisher) Option {
	return func(s *BillingService) {
		s.events = events
	}
}

// WithMetrics records computation metrics
func WithMetrics(metrics *telemetry.BillingMetrics) Option {
	return func(s *BillingService) {
		s.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *BillingService) {
		s.logger = logger
	}
}

// NewBillingService creates a new BillingService. A nil schedule makes every
// computation fail with a configuration error.
func NewBillingService(
	rooms property.RoomRepository,
	readings metering.ReadingRepository,
	schedule *tariff.Schedule,
	opts ...Option,
) *BillingService {
	s := &BillingService{
		rooms:    rooms,
		readings: readings,
		schedule: schedule,
		logger:   zap.NewNop(),
		floors:   make(map[metering.Month]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeMonthlyBilling returns the billing result of month, from cache when available.
// Concurrent requests for the same month share one computation.
func (s *BillingService) ComputeMonthlyBilling(ctx context.Context, month metering.Month) (*billing.Result, error) {
	if !month.IsValid() {
		return nil, shared.NewDomainError("INVALID_MONTH", "Month must be in YYYY-MM format")
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "billing", "ComputeMonthlyBilling",
		telemetry.SpanAttrMonth.String(month.String()))
	defer span.End()

	if cached := s.fromCache(ctx, month); cached != nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrCacheHit.Bool(true))
		return cached, nil
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCacheHit.Bool(false))

	result, err := s.collapse(ctx, month)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// Recompute ignores the cache, computes month afresh and announces the result.
// It never joins a computation already in flight, since that one may have
// read the month before the write that triggered the recompute.
func (s *BillingService) Recompute(ctx context.Context, month metering.Month) (*billing.Result, error) {
	if !month.IsValid() {
		return nil, shared.NewDomainError("INVALID_MONTH", "Month must be in YYYY-MM format")
	}
	s.group.Forget(month.String())
	return s.collapse(ctx, month)
}

// collapse runs one computation per month at a time. The shared computation is
// detached from the caller's cancellation; each caller still stops waiting
// when its own context ends.
func (s *BillingService) collapse(ctx context.Context, month metering.Month) (*billing.Result, error) {
	ch := s.group.DoChan(month.String(), func() (any, error) {
		var (
			result *billing.Result
			err    error
		)
		telemetry.ProfileOperation(context.WithoutCancel(ctx), "billing.compute", func(ctx context.Context) {
			result, err = s.compute(ctx, month)
		})
		return result, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*billing.Result), nil
	}
}

func (s *BillingService) compute(ctx context.Context, month metering.Month) (*billing.Result, error) {
	start := time.Now()
	generation := s.currentGeneration()

	rooms, err := s.rooms.FindAllNumbers(ctx)
	if err != nil {
		s.metrics.RecordComputation(ctx, telemetry.OutcomeFailed, time.Since(start), 0)
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	// One snapshot per session: later writes never leak into this result
	readings, err := s.readings.FindUpTo(ctx, month)
	if err != nil {
		s.metrics.RecordComputation(ctx, telemetry.OutcomeFailed, time.Since(start), 0)
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}

	result, err := billing.Compute(month, rooms, metering.NewSnapshot(readings), s.schedule)
	if err != nil {
		s.metrics.RecordComputation(ctx, telemetry.OutcomeFailed, time.Since(start), 0)
		if errors.Is(err, tariff.ErrConfiguration) {
			s.logger.Error("Billing aborted by tariff configuration", zap.String("month", month.String()), zap.Error(err))
		}
		return nil, err
	}

	outcome := telemetry.OutcomeComputed
	if len(result.InsufficientData) > 0 {
		outcome = telemetry.OutcomeInsufficient
	}
	anomalies := len(result.InsufficientData) + len(result.InvalidUsage)
	s.metrics.RecordComputation(ctx, outcome, time.Since(start), anomalies)

	s.logger.Info("Billing computed",
		zap.String("month", month.String()),
		zap.Int("rooms", len(rooms)),
		zap.Int64("total_units", result.TotalUnits),
		zap.String("total_bill", result.TotalBill.String()),
		zap.Int("insufficient_data", len(result.InsufficientData)),
		zap.Int("invalid_usage", len(result.InvalidUsage)))

	if !s.store(ctx, result, generation) {
		s.logger.Debug("Billing result superseded by a newer write",
			zap.String("month", month.String()))
		return result, nil
	}
	if s.events != nil {
		// Bounded so a recompute running on a full event queue drops the
		// announcement instead of waiting on itself
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := s.events.Publish(pubCtx, billing.NewComputedEvent(result)); err != nil {
			s.logger.Warn("Failed to publish billing result", zap.String("month", month.String()), zap.Error(err))
		}
	}

	return result, nil
}

func (s *BillingService) fromCache(ctx context.Context, month metering.Month) *billing.Result {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.Get(ctx, month)
	if err != nil {
		s.logger.Warn("Billing cache lookup failed", zap.String("month", month.String()), zap.Error(err))
		return nil
	}
	s.metrics.RecordCacheLookup(ctx, cached != nil)
	return cached
}

// store caches result unless month was invalidated after generation was
// taken. It reports whether the result is still current.
func (s *BillingService) store(ctx context.Context, result *billing.Result, generation uint64) bool {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	for from, gen := range s.floors {
		if gen > generation && !result.Month.Before(from) {
			return false
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, result); err != nil {
			s.logger.Warn("Failed to cache billing result", zap.String("month", result.Month.String()), zap.Error(err))
		}
	}
	return true
}

func (s *BillingService) currentGeneration() uint64 {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	return s.generation
}

// Invalidate drops cached results of month and every later month. Computations
// that read their inputs before the call no longer reach the cache.
func (s *BillingService) Invalidate(ctx context.Context, month metering.Month) error {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()

	s.generation++
	s.floors[month] = s.generation
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateFrom(ctx, month)
}

// Tariff describes the active tariff schedule
func (s *BillingService) Tariff() (*TariffInfo, error) {
	if s.schedule == nil {
		return nil, fmt.Errorf("no tariff schedule configured: %w", tariff.ErrConfiguration)
	}
	return &TariffInfo{
		Tiers:    s.schedule.Tiers(),
		Scale:    s.schedule.Scale(),
		Rounding: string(s.schedule.Rounding()),
	}, nil
}

// Quote prices totalUnits with the active tariff, tier by tier
func (s *BillingService) Quote(totalUnits int64) (*Quote, error) {
	if s.schedule == nil {
		return nil, fmt.Errorf("no tariff schedule configured: %w", tariff.ErrConfiguration)
	}
	if totalUnits < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Units cannot be negative")
	}
	return &Quote{
		TotalUnits: totalUnits,
		Charges:    s.schedule.Breakdown(totalUnits),
		TotalBill:  s.schedule.ComputeBill(totalUnits),
	}, nil
}
