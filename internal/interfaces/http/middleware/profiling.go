package middleware

import (
	"context"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rental/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig holds configuration for the profiling label middleware
type ProfilingConfig struct {
	Enabled          bool
	SkipPaths        []string
	SkipPathPrefixes []string
}

// DefaultProfilingConfig returns default profiling configuration
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: true,
		SkipPaths: []string{
			"/health",
			"/metrics",
			"/api/v1/billing/stream",
		},
		SkipPathPrefixes: []string{
			"/files/",
		},
	}
}

// Profiling returns profiling middleware with default configuration
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig attaches pprof labels (route, method, role) to every
// request so Pyroscope samples can be filtered per endpoint.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}
	skipped := func(path string) bool {
		if _, ok := skip[path]; ok {
			return true
		}
		return slices.ContainsFunc(cfg.SkipPathPrefixes, func(prefix string) bool {
			return strings.HasPrefix(path, prefix)
		})
	}

	return func(c *gin.Context) {
		if skipped(c.Request.URL.Path) {
			c.Next()
			return
		}
		labels := telemetry.RequestProfileLabels(c.FullPath(), c.Request.Method, c.GetString(JWTRoleKey))
		telemetry.WithProfileLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
