package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSlowQuery = 200 * time.Millisecond
	startedAtKey     = "telemetry:started_at"
)

// DBConfig controls what InstrumentDB installs
type DBConfig struct {
	TraceEnabled    bool
	LogFullSQL      bool // bound variables in spans, development only
	SlowQueryThresh time.Duration
	DBSystem        string // sqlite or postgresql
}

// DBMetrics times every gorm statement and observes the connection pool
type DBMetrics struct {
	queries  *Counter
	latency  *Histogram
	slow     *Counter
	slowFrom time.Duration
	pool     metric.Registration
	log      *zap.Logger
}

// InstrumentDB installs the otelgorm tracing plugin when enabled, then the
// timing callbacks. Close the result to drop the pool callback.
func InstrumentDB(db *gorm.DB, sqlDB *sql.DB, meter metric.Meter, cfg DBConfig, log *zap.Logger) (*DBMetrics, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}

	if cfg.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, fmt.Errorf("otelgorm plugin: %w", err)
		}
	}

	m := &DBMetrics{slowFrom: cfg.SlowQueryThresh, log: log}
	var err error
	if m.queries, err = NewCounter(meter, "db_query_total", "Statements executed by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.slow, err = NewCounter(meter, "db_slow_query_total", "Statements over the slow threshold by table", "{query}"); err != nil {
		return nil, err
	}
	m.latency, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	if sqlDB != nil {
		if err := m.observePool(meter, sqlDB); err != nil {
			return nil, err
		}
	}
	if err := m.hook(db); err != nil {
		return nil, err
	}

	log.Info("Database instrumented",
		zap.Bool("tracing", cfg.TraceEnabled),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh))
	return m, nil
}

func (m *DBMetrics) observePool(meter metric.Meter, sqlDB *sql.DB) error {
	byState, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Pooled connections by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	limit, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Open connection limit"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	m.pool, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := sqlDB.Stats()
		o.ObserveInt64(limit, int64(s.MaxOpenConnections))
		for state, n := range map[string]int{"idle": s.Idle, "in_use": s.InUse, "open": s.OpenConnections} {
			o.ObserveInt64(byState, int64(n), metric.WithAttributes(AttrDBState.String(state)))
		}
		return nil
	}, byState, limit)
	return err
}

func (m *DBMetrics) Close() error {
	if m.pool == nil {
		return nil
	}
	return m.pool.Unregister()
}

// RecordQuery counts one statement and flags it when slow
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, took time.Duration) {
	op := AttrDBOperation.String(orElse(strings.ToUpper(operation), "UNKNOWN"))
	m.queries.Inc(ctx, op)
	m.latency.RecordDuration(ctx, took, op)

	if took <= m.slowFrom {
		return
	}
	table = orElse(table, "unknown")
	m.slow.Inc(ctx, AttrDBTable.String(table))
	m.log.Warn("Slow query",
		zap.String("operation", op.Value.AsString()),
		zap.String("table", table),
		zap.Duration("duration", took))
}

// hook registers a start and a finish callback around each gorm processor
func (m *DBMetrics) hook(db *gorm.DB) error {
	type register func(string, func(*gorm.DB)) error
	start := func(tx *gorm.DB) { tx.InstanceSet(startedAtKey, time.Now()) }

	cb := db.Callback()
	for _, p := range []struct {
		name          string
		op            string
		before, after register
	}{
		{"create", "INSERT", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", "SELECT", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", "UPDATE", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", "DELETE", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", "SELECT", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", "", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	} {
		op := p.op
		if err := p.before("telemetry:start_"+p.name, start); err != nil {
			return err
		}
		if err := p.after("telemetry:finish_"+p.name, func(tx *gorm.DB) { m.finish(tx, op) }); err != nil {
			return err
		}
	}
	return nil
}

func (m *DBMetrics) finish(tx *gorm.DB, op string) {
	v, ok := tx.InstanceGet(startedAtKey)
	if !ok {
		return
	}
	took := time.Since(v.(time.Time))
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if op == "" {
		op = detectOperationType(tx.Statement.SQL.String())
	}
	m.RecordQuery(ctx, op, tx.Statement.Table, took)

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if took > m.slowFrom {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		RecordError(span, tx.Error)
	}
}

// detectOperationType names a raw statement by its leading keyword. CTEs
// count as reads.
func detectOperationType(stmt string) string {
	words := strings.Fields(stmt)
	if len(words) == 0 {
		return "UNKNOWN"
	}
	switch kw := strings.ToUpper(words[0]); kw {
	case "WITH":
		return "SELECT"
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return kw
	}
	return "OTHER"
}

func orElse(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
