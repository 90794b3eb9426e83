package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	appidentity "github.com/rental/backend/internal/application/identity"
	maintenanceapp "github.com/rental/backend/internal/application/maintenance"
	meteringapp "github.com/rental/backend/internal/application/metering"
	noticeapp "github.com/rental/backend/internal/application/notice"
	propertyapp "github.com/rental/backend/internal/application/property"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	roomTypes    = []string{"套房", "雅房", "獨立套房"}
	repairIssues = []string{"冷氣不冷", "熱水器故障", "馬桶堵塞", "燈管不亮", "門鎖損壞", "漏水"}
)

// seedOptions controls how much demo data is generated
type seedOptions struct {
	Landlord  string
	Password  string
	Tenant    string
	Rooms     int
	Months    int
	Repairs   int
	Notices   int
	Now       time.Time
	VacantPct int // share of rooms left without a lease, 0-100
}

// seedSummary reports what a run created
type seedSummary struct {
	LandlordCode  string
	Rooms         []string
	Occupied      int
	Readings      int
	Repairs       int
	Announcements int
}

type seeder struct {
	auth     *appidentity.AuthService
	rooms    *propertyapp.RoomService
	readings *meteringapp.ReadingService
	repairs  *maintenanceapp.RepairService
	notices  *noticeapp.AnnouncementService
	faker    *gofakeit.Faker
	logger   *zap.Logger
}

func (s *seeder) run(ctx context.Context, opts seedOptions) (*seedSummary, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	landlord, err := s.auth.Register(ctx, appidentity.RegisterInput{
		Username:        opts.Landlord,
		Password:        opts.Password,
		ConfirmPassword: opts.Password,
		Role:            identity.RoleLandlord,
		Phone:           s.faker.Phone(),
	})
	if err != nil {
		return nil, fmt.Errorf("register landlord %q: %w", opts.Landlord, err)
	}
	s.logger.Info("Landlord created",
		zap.String("username", landlord.Username),
		zap.String("landlord_code", landlord.LandlordCode))

	if opts.Tenant != "" {
		if _, err := s.auth.Register(ctx, appidentity.RegisterInput{
			Username:        opts.Tenant,
			Password:        opts.Password,
			ConfirmPassword: opts.Password,
			Role:            identity.RoleTenant,
			LandlordCode:    landlord.LandlordCode,
		}); err != nil {
			return nil, fmt.Errorf("register tenant %q: %w", opts.Tenant, err)
		}
	}

	ctx = identity.WithSession(ctx, identity.Session{
		UserID:       landlord.ID,
		Username:     landlord.Username,
		Role:         identity.RoleLandlord,
		LandlordCode: landlord.LandlordCode,
	})

	summary := &seedSummary{LandlordCode: landlord.LandlordCode}
	first := firstOfMonth(opts.Now).AddDate(0, -(opts.Months - 1), 0)

	var occupied []string
	for i := 0; i < opts.Rooms; i++ {
		number := roomNumber(i)
		input := propertyapp.CreateRoomInput{
			Number:   number,
			RoomType: s.faker.RandomString(roomTypes),
		}
		if s.faker.IntRange(1, 100) > opts.VacantPct {
			rent := decimal.NewFromInt(int64(s.faker.IntRange(45, 120) * 100))
			start := first
			input.TenantName = s.faker.Name()
			input.RentAmount = rent
			input.Deposit = rent.Mul(decimal.NewFromInt(2))
			input.StartDate = &start
			input.TermMonths = 12
		}
		room, err := s.rooms.Create(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("create room %s: %w", number, err)
		}
		summary.Rooms = append(summary.Rooms, room.Number)
		if room.IsOccupied() {
			occupied = append(occupied, room.Number)
		}
	}
	summary.Occupied = len(occupied)

	// Meters only move forward; every month adds a plausible usage
	counters := make(map[string]int64, len(summary.Rooms))
	for _, number := range summary.Rooms {
		counters[number] = int64(s.faker.IntRange(100, 3000))
	}
	for m := 0; m < opts.Months; m++ {
		month := first.AddDate(0, m, 0).Format("2006-01")
		batch := meteringapp.RecordBatchInput{Source: "seed"}
		for _, number := range summary.Rooms {
			if m > 0 {
				counters[number] += int64(s.faker.IntRange(40, 350))
			}
			batch.Readings = append(batch.Readings, meteringapp.RecordReadingInput{
				RoomNumber: number,
				Month:      month,
				Value:      counters[number],
			})
		}
		if len(batch.Readings) == 0 {
			continue
		}
		result, err := s.readings.RecordBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("record readings for %s: %w", month, err)
		}
		summary.Readings += result.Created + result.Updated
	}

	for i := 0; i < opts.Repairs && len(occupied) > 0; i++ {
		number := occupied[s.faker.IntRange(0, len(occupied)-1)]
		if _, err := s.repairs.Submit(ctx, maintenanceapp.SubmitRepairInput{
			RoomNumber:  number,
			TenantName:  s.faker.Name(),
			Issue:       s.faker.RandomString(repairIssues),
			Description: s.faker.Sentence(8),
			Date:        opts.Now.AddDate(0, 0, -s.faker.IntRange(0, 30)),
		}); err != nil {
			return nil, fmt.Errorf("submit repair for %s: %w", number, err)
		}
		summary.Repairs++
	}

	for i := 0; i < opts.Notices; i++ {
		if _, err := s.notices.Create(ctx, noticeapp.AnnouncementInput{
			Title:   s.faker.Sentence(4),
			Content: s.faker.Paragraph(1, 3, 12, " "),
			Date:    opts.Now.AddDate(0, 0, -7*i),
		}); err != nil {
			return nil, fmt.Errorf("create announcement: %w", err)
		}
		summary.Announcements++
	}

	return summary, nil
}

// roomNumber lays rooms out six to a floor starting on the second floor
func roomNumber(i int) string {
	return fmt.Sprintf("%d%02d", 2+i/6, 1+i%6)
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
