package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupTestMeter(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
	})
	return mp, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestHTTPMetrics_DisabledOrNilProvider(t *testing.T) {
	for _, cfg := range []HTTPMetricsConfig{{Enabled: false}, {Enabled: true}} {
		router := gin.New()
		router.Use(HTTPMetrics(cfg))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

		assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/test", nil)).Code)
	}
}

func TestHTTPMetricsWithMeter_RequestCounter(t *testing.T) {
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.GET("/api/v1/rooms/:number", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"number": c.Param("number")})
	})

	for _, n := range []string{"401", "402", "403"} {
		serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/"+n, nil))
	}

	rm := collectMetrics(t, reader)
	total := findMetricByName(rm, "http_server_request_total")
	require.NotNil(t, total)
	sum, ok := total.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1, "route pattern keeps one series")
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	route, ok := sum.DataPoints[0].Attributes.Value(attribute.Key("http.route"))
	require.True(t, ok)
	assert.Equal(t, "/api/v1/rooms/:number", route.AsString())
}

func TestHTTPMetricsWithMeter_StatusAndRole(t *testing.T) {
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTRoleKey, "landlord")
		c.Next()
	})
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	serve(router, httptest.NewRequest(http.MethodGet, "/ok", nil))
	serve(router, httptest.NewRequest(http.MethodGet, "/missing", nil))

	rm := collectMetrics(t, reader)
	sum := findMetricByName(rm, "http_server_request_total").Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 2)
	for _, dp := range sum.DataPoints {
		role, ok := dp.Attributes.Value(attribute.Key("user.role"))
		require.True(t, ok)
		assert.Equal(t, "landlord", role.AsString())
	}
}

func TestHTTPMetricsWithMeter_DurationAndSizes(t *testing.T) {
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.POST("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, strings.Repeat("y", 2000))
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 500)))
	serve(router, req)

	rm := collectMetrics(t, reader)
	for _, name := range []string{
		"http_server_request_duration_seconds",
		"http_server_request_size_bytes",
		"http_server_response_size_bytes",
	} {
		m := findMetricByName(rm, name)
		require.NotNil(t, m, name)
		hist, ok := m.Data.(metricdata.Histogram[float64])
		require.True(t, ok, name)
		require.Len(t, hist.DataPoints, 1, name)
		assert.Equal(t, uint64(1), hist.DataPoints[0].Count, name)
	}
}

func TestHTTPMetricsWithMeter_SkipPaths(t *testing.T) {
	mp, reader := setupTestMeter(t)

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true, "/metrics"))
	router.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	rm := collectMetrics(t, reader)
	assert.Nil(t, findMetricByName(rm, "http_server_request_total"))
}

func TestRoutePattern_Unmatched(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, "unknown", routePattern(c))
}
