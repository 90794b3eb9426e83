// Package telemetry wires OpenTelemetry tracing, metrics and logs, Pyroscope
// profiling and the Prometheus scrape endpoint.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rental/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// ServiceVersion is reported on every resource
var ServiceVersion = "1.0.0"

// shutdownGrace bounds how long each provider may spend flushing
const shutdownGrace = 10 * time.Second

// Telemetry bundles the providers started for one process
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	Billing  *BillingMetrics
}

// Setup starts every provider enabled in cfg. Disabled providers are no-ops,
// so callers never need nil checks. The profiler starts first so spans can
// be linked to CPU samples.
func Setup(ctx context.Context, cfg config.TelemetryConfig, logger *zap.Logger) (*Telemetry, error) {
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	t := &Telemetry{}
	if t.Profiler, err = newProfiler(cfg, logger); err != nil {
		return nil, err
	}
	if t.Tracer, err = newTracerProvider(ctx, cfg, res, logger); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	if t.Profiler.IsEnabled() {
		t.Tracer.linkProfiles()
	}
	if t.Meter, err = newMeterProvider(ctx, cfg, res, logger); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	if t.Logs, err = newLoggerProvider(ctx, cfg, res); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	if t.Billing, err = NewBillingMetrics(t.Meter.Meter(TracerName)); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}

	logger.Info("Telemetry configured",
		zap.Bool("tracing", t.Tracer.IsEnabled()),
		zap.Bool("metrics", t.Meter.IsEnabled()),
		zap.Bool("logs", t.Logs.IsEnabled()),
		zap.Bool("profiling", t.Profiler.IsEnabled()),
		zap.String("collector", cfg.CollectorEndpoint),
	)
	return t, nil
}

// Shutdown flushes and stops every started provider, logs first so the
// shutdown of the others can still be reported.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	var errs []error
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	return errors.Join(errs...)
}

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}
	return res, nil
}
