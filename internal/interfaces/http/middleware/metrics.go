// Package middleware provides the HTTP middleware of the rental API.
package middleware

import (
	"errors"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rental/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
	// SkipPaths are not measured (scrapes, probes)
	SkipPaths []string
}

var sizeBuckets = []float64{100, 500, 1e3, 5e3, 1e4, 5e4, 1e5, 5e5, 1e6, 5e6}

type httpInstruments struct {
	requests *telemetry.Counter
	inFlight *telemetry.UpDownCounter
	latency  *telemetry.Histogram
	reqSize  *telemetry.Histogram
	respSize *telemetry.Histogram
}

func newHTTPInstruments(meter metric.Meter) (*httpInstruments, error) {
	var errs []error
	hist := func(name, desc, unit string, buckets []float64) *telemetry.Histogram {
		h, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{Name: name, Description: desc, Unit: unit, Boundaries: buckets})
		errs = append(errs, err)
		return h
	}

	in := &httpInstruments{
		latency:  hist("http_server_request_duration_seconds", "Request latency", "s", telemetry.HTTPDurationBuckets),
		reqSize:  hist("http_server_request_size_bytes", "Request body size", "By", sizeBuckets),
		respSize: hist("http_server_response_size_bytes", "Response body size", "By", sizeBuckets),
	}
	var err error
	in.requests, err = telemetry.NewCounter(meter, "http_server_request_total", "Requests served", "{request}")
	errs = append(errs, err)
	in.inFlight, err = telemetry.NewUpDownCounter(meter, "http_server_active_requests", "Requests in progress", "{request}")
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return in, nil
}

// HTTPMetrics is a pass-through unless metrics are enabled and the provider
// is running
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"), true, cfg.SkipPaths...)
}

func passThrough(c *gin.Context) { c.Next() }

// HTTPMetricsWithMeter counts requests by method, route, status and caller
// role. Latency and body sizes carry only method and route.
func HTTPMetricsWithMeter(meter metric.Meter, enabled bool, skipPaths ...string) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	in, err := newHTTPInstruments(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		if slices.Contains(skipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		start := time.Now()
		in.inFlight.Add(ctx, 1)
		defer in.inFlight.Add(ctx, -1)

		c.Next()

		route := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(routePattern(c)),
		}
		counted := append(slices.Clip(route), telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
		if role := c.GetString(JWTRoleKey); role != "" {
			counted = append(counted, telemetry.AttrUserRole.String(role))
		}
		in.requests.Inc(ctx, counted...)
		in.latency.RecordDuration(ctx, time.Since(start), route...)
		if n := c.Request.ContentLength; n > 0 {
			in.reqSize.Record(ctx, float64(n), route...)
		}
		if n := c.Writer.Size(); n > 0 {
			in.respSize.Record(ctx, float64(n), route...)
		}
	}
}

// routePattern keeps series per route template, never per raw path
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}
