package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Billing computation outcomes
const (
	OutcomeComputed     = "computed"
	OutcomeInsufficient = "insufficient_data"
	OutcomeFailed       = "failed"
)

// BillingMetrics tracks billing sessions and meter activity.
// A nil *BillingMetrics records nothing.
type BillingMetrics struct {
	computations      *Counter
	computeDuration   *Histogram
	cacheLookups      *Counter
	readingsRecorded  *Counter
	anomalies         *Counter
	streamSubscribers *UpDownCounter
}

// NewBillingMetrics creates the billing instruments on meter
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	computations, err := NewCounter(meter, "billing_computations_total",
		"Billing computations by outcome", "{computation}")
	if err != nil {
		return nil, err
	}
	computeDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "billing_compute_duration_seconds",
		Description: "Time spent computing a month's billing",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	cacheLookups, err := NewCounter(meter, "billing_cache_lookups_total",
		"Billing cache lookups by result", "{lookup}")
	if err != nil {
		return nil, err
	}
	readingsRecorded, err := NewCounter(meter, "meter_readings_recorded_total",
		"Meter readings written by source", "{reading}")
	if err != nil {
		return nil, err
	}
	anomalies, err := NewCounter(meter, "billing_usage_anomalies_total",
		"Rooms whose reading went backwards", "{room}")
	if err != nil {
		return nil, err
	}
	streamSubscribers, err := NewUpDownCounter(meter, "billing_stream_subscribers",
		"Open billing event streams", "{subscriber}")
	if err != nil {
		return nil, err
	}

	return &BillingMetrics{
		computations:      computations,
		computeDuration:   computeDuration,
		cacheLookups:      cacheLookups,
		readingsRecorded:  readingsRecorded,
		anomalies:         anomalies,
		streamSubscribers: streamSubscribers,
	}, nil
}

// RecordComputation records one computation and its duration
func (m *BillingMetrics) RecordComputation(ctx context.Context, outcome string, d time.Duration, anomalies int) {
	if m == nil {
		return
	}
	m.computations.Inc(ctx, AttrBillingOutcome.String(outcome))
	m.computeDuration.RecordDuration(ctx, d, AttrBillingOutcome.String(outcome))
	if anomalies > 0 {
		m.anomalies.Add(ctx, int64(anomalies))
	}
}

// RecordCacheLookup records a billing cache hit or miss
func (m *BillingMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(ctx, AttrCacheResult.String(result))
}

// RecordReadings counts written readings; source is "api" or "import"
func (m *BillingMetrics) RecordReadings(ctx context.Context, source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.readingsRecorded.Add(ctx, int64(n), AttrReadingSource.String(source))
}

// StreamOpened and StreamClosed track live billing subscribers
func (m *BillingMetrics) StreamOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.streamSubscribers.Add(ctx, 1)
}

func (m *BillingMetrics) StreamClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.streamSubscribers.Add(ctx, -1)
}
