package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rental/backend/internal/infrastructure/auth"
	"github.com/rental/backend/internal/infrastructure/config"
	"github.com/rental/backend/internal/infrastructure/logger"
	"github.com/rental/backend/internal/infrastructure/storage"
	"github.com/rental/backend/internal/infrastructure/telemetry"
	"github.com/rental/backend/internal/interfaces/http/middleware"
	"github.com/rental/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const (
	streamPath    = "/api/v1/billing/stream"
	importPrefix  = "/api/v1/import/"
	limiterSweeps = time.Minute
)

var unloggedPaths = []string{"/health", "/metrics"}

type httpDeps struct {
	store     storage.ObjectStore
	jwt       *auth.JWTService
	blacklist auth.TokenBlacklist
	handlers  router.Handlers
}

// newEngine builds the gin engine with the global middleware chain, the
// unauthenticated endpoints and the /api/v1 tree. It returns the engine and
// the number of API routes.
func newEngine(ctx context.Context, cfg *config.Config, log *zap.Logger, tel *telemetry.Telemetry, deps httpDeps) (*gin.Engine, int) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Trusted proxies ignored", zap.Error(err))
		}
	}

	// request id first so every later layer can log it
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log, unloggedPaths...),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: tel.Meter,
			Enabled:       cfg.Telemetry.MetricsEnabled,
			SkipPaths:     unloggedPaths,
		}),
		middleware.CORSWithConfig(corsConfig(cfg.HTTP)),
		middleware.Secure(cfg.IsProduction()),
		middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
			MaxBytes:       cfg.HTTP.MaxBodySize,
			UploadMaxBytes: cfg.HTTP.MaxUploadSize,
			UploadPrefixes: []string{importPrefix},
		}),
		middleware.Timeout(cfg.HTTP.RequestTimeout, streamPath),
	)

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst, 0)
		go limiter.Cleanup(ctx, limiterSweeps)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.HTTP.RateLimitRPS),
			zap.Int("burst", cfg.HTTP.RateLimitBurst))
	}

	engine.GET("/health", deps.handlers.System.Health)
	if cfg.Telemetry.MetricsEnabled && cfg.Telemetry.MetricsExporter == config.MetricsExporterPrometheus {
		engine.GET("/metrics", gin.WrapH(tel.Meter.Handler()))
	}
	if local, ok := deps.store.(*storage.LocalStore); ok {
		engine.Static(cfg.Storage.LocalBaseURL, local.Dir())
	}

	jwtCfg := middleware.DefaultJWTConfig(deps.jwt)
	jwtCfg.TokenBlacklist = deps.blacklist
	jwtCfg.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1")).
		Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg)).
		Use(middleware.TracingAttributeInjector()).
		Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
			Enabled:          cfg.Telemetry.ProfilingEnabled,
			SkipPaths:        []string{streamPath},
			SkipPathPrefixes: []string{"/files/"},
		}))
	router.RegisterRentalRoutes(r, deps.handlers, authLimiter(ctx, cfg.HTTP))
	r.Setup()
	return engine, len(r.Routes())
}

// authLimiter is nil when the login/register window limit is off
func authLimiter(ctx context.Context, cfg config.HTTPConfig) gin.HandlerFunc {
	if !cfg.AuthRateLimitEnabled {
		return nil
	}
	l := middleware.NewWindowLimiter(cfg.AuthRateLimitRequests, cfg.AuthRateLimitWindow)
	go l.Cleanup(ctx, limiterSweeps)
	return middleware.RateLimit(l)
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		c.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		c.AllowHeaders = cfg.CORSAllowHeaders
	}
	return c
}
