// Command seed fills an empty database with a demo landlord, rooms, monthly
// meter readings, repair reports and announcements.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	appidentity "github.com/rental/backend/internal/application/identity"
	maintenanceapp "github.com/rental/backend/internal/application/maintenance"
	meteringapp "github.com/rental/backend/internal/application/metering"
	noticeapp "github.com/rental/backend/internal/application/notice"
	propertyapp "github.com/rental/backend/internal/application/property"
	"github.com/rental/backend/internal/infrastructure/auth"
	"github.com/rental/backend/internal/infrastructure/config"
	"github.com/rental/backend/internal/infrastructure/logger"
	"github.com/rental/backend/internal/infrastructure/migration"
	"github.com/rental/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		opts seedOptions
		seed uint64
	)
	flag.StringVar(&opts.Landlord, "landlord", "landlord", "Landlord username")
	flag.StringVar(&opts.Tenant, "tenant", "tenant", "Tenant username linked to the landlord (empty to skip)")
	flag.StringVar(&opts.Password, "password", "rental123", "Password for the seeded accounts")
	flag.IntVar(&opts.Rooms, "rooms", 12, "Number of rooms")
	flag.IntVar(&opts.Months, "months", 6, "Months of readings ending with the current month")
	flag.IntVar(&opts.Repairs, "repairs", 5, "Number of repair reports")
	flag.IntVar(&opts.Notices, "announcements", 3, "Number of announcements")
	flag.IntVar(&opts.VacantPct, "vacant", 20, "Percentage of rooms left vacant")
	flag.Uint64Var(&seed, "seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	if opts.Rooms < 1 || opts.Months < 1 {
		fmt.Fprintln(os.Stderr, "rooms and months must be positive")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	m, err := migration.New(sqlDB, cfg.Database.Driver, log)
	if err != nil {
		log.Fatal("Failed to prepare migrations", zap.Error(err))
	}
	if err := m.Up(); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	roomRepo := persistence.NewGormRoomRepository(db.DB)
	readingRepo := persistence.NewGormReadingRepository(db.DB)

	s := &seeder{
		auth:     appidentity.NewAuthService(persistence.NewGormUserRepository(db.DB), auth.NewJWTService(cfg.JWT), nil, nil, log),
		rooms:    propertyapp.NewRoomService(roomRepo, nil, log),
		readings: meteringapp.NewReadingService(readingRepo, roomRepo, nil, nil, log),
		repairs:  maintenanceapp.NewRepairService(persistence.NewGormRepairReportRepository(db.DB), roomRepo, log),
		notices:  noticeapp.NewAnnouncementService(persistence.NewGormAnnouncementRepository(db.DB), log),
		faker:    gofakeit.New(seed),
		logger:   log,
	}

	summary, err := s.run(context.Background(), opts)
	if err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}

	log.Info("Seed complete",
		zap.String("landlord", opts.Landlord),
		zap.String("landlord_code", summary.LandlordCode),
		zap.Int("rooms", len(summary.Rooms)),
		zap.Int("occupied", summary.Occupied),
		zap.Int("readings", summary.Readings),
		zap.Int("repairs", summary.Repairs),
		zap.Int("announcements", summary.Announcements),
	)
}
