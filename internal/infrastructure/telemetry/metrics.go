package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rental/backend/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap"
)

// defaultExportInterval is the OTLP push interval when none is configured
const defaultExportInterval = time.Minute

// MeterProvider owns the SDK meter provider. With the prometheus exporter
// every instrument lands in a private registry served by Handler, next to
// the Go runtime and process collectors.
type MeterProvider struct {
	sdk      *sdkmetric.MeterProvider
	registry *prometheus.Registry
}

func newMeterProvider(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{}
	if !cfg.MetricsEnabled {
		return mp, nil
	}

	var reader sdkmetric.Reader
	switch cfg.MetricsExporter {
	case "", config.MetricsExporterPrometheus:
		mp.registry = prometheus.NewRegistry()
		mp.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := otelprom.New(otelprom.WithRegisterer(mp.registry))
		if err != nil {
			return nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		reader = exporter
	case config.MetricsExporterOTLP:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create metric exporter: %w", err)
		}
		interval := cfg.MetricsExportInterval
		if interval <= 0 {
			interval = defaultExportInterval
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))
	default:
		return nil, fmt.Errorf("unknown metrics exporter %q", cfg.MetricsExporter)
	}

	mp.sdk = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp.sdk)
	logger.Debug("Meter provider ready", zap.String("exporter", cfg.MetricsExporter))
	return mp, nil
}

// Handler serves the Prometheus registry, or nil unless the prometheus
// exporter is active.
func (mp *MeterProvider) Handler() http.Handler {
	if mp.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(mp.registry, promhttp.HandlerOpts{
		Registry:          mp.registry,
		EnableOpenMetrics: true,
	})
}

// Meter returns a named meter, the global no-op one when metrics are off
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.sdk == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.sdk.Meter(name, opts...)
}

func (mp *MeterProvider) IsEnabled() bool {
	return mp.sdk != nil
}

// Shutdown flushes pending metrics
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.sdk == nil {
		return nil
	}
	if err := mp.sdk.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	return nil
}
