// Command server runs the rental billing HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/rental/backend/internal/application/billing"
	appidentity "github.com/rental/backend/internal/application/identity"
	maintenanceapp "github.com/rental/backend/internal/application/maintenance"
	meteringapp "github.com/rental/backend/internal/application/metering"
	noticeapp "github.com/rental/backend/internal/application/notice"
	printingapp "github.com/rental/backend/internal/application/printing"
	propertyapp "github.com/rental/backend/internal/application/property"
	"github.com/rental/backend/internal/application/transfer"
	"github.com/rental/backend/internal/infrastructure/auth"
	"github.com/rental/backend/internal/infrastructure/cache"
	"github.com/rental/backend/internal/infrastructure/config"
	"github.com/rental/backend/internal/infrastructure/event"
	"github.com/rental/backend/internal/infrastructure/logger"
	"github.com/rental/backend/internal/infrastructure/migration"
	"github.com/rental/backend/internal/infrastructure/persistence"
	infra "github.com/rental/backend/internal/infrastructure/printing"
	"github.com/rental/backend/internal/infrastructure/storage"
	"github.com/rental/backend/internal/infrastructure/telemetry"
	"github.com/rental/backend/internal/interfaces/http/handler"
	"github.com/rental/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

var version = "dev"

const (
	telemetryFlushTimeout = 10 * time.Second
	shutdownTimeout       = 30 * time.Second
	eventQueueSize        = 256
)

//	@title			Rental Billing API
//	@version		1.0
//	@description	Meter readings, monthly electricity billing and tenancy records for a rental building

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

// cleanups runs registered closers in reverse order
type cleanups []func()

func (c *cleanups) add(fn func()) { *c = append(*c, fn) }

func (c cleanups) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lcfg := logger.DefaultConfig()
	lcfg.Level, lcfg.Format, lcfg.Output = cfg.Log.Level, cfg.Log.Format, cfg.Log.Output
	log, err := logger.New(lcfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers cleanups
	defer closers.run()
	closeWith := func(what string, fn func() error) {
		closers.add(func() {
			if err := fn(); err != nil {
				log.Error("Close failed", zap.String("component", what), zap.Error(err))
			}
		})
	}

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	closeWith("telemetry", func() error {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		return tel.Shutdown(flushCtx)
	})
	if tel.Logs.IsEnabled() {
		log = logger.Tee(log, tel.Logs.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	}
	closers.add(func() { _ = log.Sync() })

	log.Info("Rental backend starting",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(
		logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh)),
	))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	closeWith("database", db.Close)

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	migrator, err := migration.New(sqlDB, cfg.Database.Driver, log)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	dbSystem := "sqlite"
	if cfg.Database.Driver == config.DriverPostgres {
		dbSystem = "postgresql"
	}
	dbMetrics, err := telemetry.InstrumentDB(db.DB, sqlDB, tel.Meter.Meter("database"), telemetry.DBConfig{
		TraceEnabled:    cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log)
	if err != nil {
		return fmt.Errorf("instrument database: %w", err)
	}
	closeWith("db metrics", dbMetrics.Close)

	// Redis when configured, otherwise in-memory
	stores, err := cache.NewFactory(cfg.Redis, cfg.Billing.CacheTTL, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		return fmt.Errorf("init stores: %w", err)
	}
	closeWith("stores", stores.Close)

	schedule, err := cfg.Tariff.Schedule()
	if err != nil {
		return fmt.Errorf("tariff: %w", err)
	}

	rooms := persistence.NewGormRoomRepository(db.DB)
	readings := persistence.NewGormReadingRepository(db.DB)
	users := persistence.NewGormUserRepository(db.DB)
	bus := event.NewInMemoryEventBus(log, event.WithQueue(eventQueueSize))

	jwtService := auth.NewJWTService(cfg.JWT)
	readingService := meteringapp.NewReadingService(readings, rooms, bus, tel.Billing, log)
	billingService := billingapp.NewBillingService(rooms, readings, schedule,
		billingapp.WithCache(stores.BillingCache),
		billingapp.WithEventPublisher(bus),
		billingapp.WithMetrics(tel.Billing),
		billingapp.WithLogger(log),
	)

	store, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	contractTemplate, err := infra.NewContractTemplate()
	if err != nil {
		return err
	}
	var renderer infra.PDFRenderer = infra.DisabledRenderer{}
	if cfg.Printing.Enabled {
		renderer = infra.NewChromedpRenderer(cfg.Printing, log)
	}
	closeWith("pdf renderer", renderer.Close)

	broadcaster := billingapp.NewBroadcaster(cfg.Billing.StreamMaxClients, log)
	recompute := billingapp.NewRecomputeHandler(billingService, log)
	bus.Subscribe(recompute)
	bus.Subscribe(broadcaster)
	if err := bus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	closeWith("event bus", func() error { return bus.Stop(context.Background()) })

	engine, routes := newEngine(ctx, cfg, log, tel, httpDeps{
		store:     store,
		jwt:       jwtService,
		blacklist: stores.Blacklist,
		handlers: router.Handlers{
			Auth:     handler.NewAuthHandler(appidentity.NewAuthService(users, jwtService, stores.Blacklist, bus, log)),
			Rooms:    handler.NewRoomHandler(propertyapp.NewRoomService(rooms, bus, log)),
			Readings: handler.NewReadingHandler(readingService),
			Billing:  handler.NewBillingHandler(billingService),
			BillingStream: handler.NewBillingStreamHandler(broadcaster,
				handler.WithStreamHeartbeat(cfg.Billing.StreamHeartbeat),
				handler.WithStreamMetrics(tel.Billing),
				handler.WithStreamLogger(log),
			),
			Repairs: handler.NewRepairHandler(
				maintenanceapp.NewRepairService(persistence.NewGormRepairReportRepository(db.DB), rooms, log)),
			Announcements: handler.NewAnnouncementHandler(
				noticeapp.NewAnnouncementService(persistence.NewGormAnnouncementRepository(db.DB), log)),
			Transfer: handler.NewTransferHandler(
				transfer.NewService(rooms, readings, readingService, billingService, bus, log)),
			Contracts: handler.NewContractHandler(
				printingapp.NewContractService(rooms, users, contractTemplate, renderer, store, log)),
			System: handler.NewSystemHandler(cfg.App.Name, version, db),
		},
	})
	log.Info("Routes registered", zap.Int("count", routes))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
		// no WriteTimeout: billing streams stay open, other requests are
		// bounded by the Timeout middleware
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down")

	// open streams only return once their subscription is closed
	broadcaster.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
