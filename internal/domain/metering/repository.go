package metering

import (
	"context"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/shared"
)

// ReadingFilter narrows reading listings
type ReadingFilter struct {
	shared.Filter
	RoomNumber string
	FromMonth  Month
	ToMonth    Month
}

// ReadingRepository is the reading store
type ReadingRepository interface {
	// Find returns the reading for (roomNumber, month)
	Find(ctx context.Context, roomNumber string, month Month) (*MeterReading, error)
	FindByID(ctx context.Context, id uuid.UUID) (*MeterReading, error)
	// FindLatestBefore returns the most recent reading strictly before month
	FindLatestBefore(ctx context.Context, roomNumber string, month Month) (*MeterReading, error)
	// FindLastTwo returns up to two most recent readings, newest first
	FindLastTwo(ctx context.Context, roomNumber string) ([]MeterReading, error)
	FindByMonth(ctx context.Context, month Month) ([]MeterReading, error)
	// FindByRoom returns the room's history, newest first
	FindByRoom(ctx context.Context, roomNumber string) ([]MeterReading, error)
	// FindUpTo returns every reading with month <= upTo
	FindUpTo(ctx context.Context, upTo Month) ([]MeterReading, error)
	FindAll(ctx context.Context, filter ReadingFilter) ([]MeterReading, error)
	Count(ctx context.Context, filter ReadingFilter) (int64, error)
	// Save upserts on (room_number, month)
	Save(ctx context.Context, reading *MeterReading) error
	// SaveBatch upserts all readings in one transaction
	SaveBatch(ctx context.Context, readings []*MeterReading) error
	Delete(ctx context.Context, roomNumber string, month Month) error
}
