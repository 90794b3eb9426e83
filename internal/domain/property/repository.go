package property

import (
	"context"

	"github.com/rental/backend/internal/domain/shared"
)

// RoomFilter narrows room listings
type RoomFilter struct {
	shared.Filter
	Status       RoomStatus
	LandlordCode string
}

// RoomRepository is the room registry
type RoomRepository interface {
	FindByNumber(ctx context.Context, number string) (*Room, error)
	FindAll(ctx context.Context, filter RoomFilter) ([]Room, error)
	// FindAllNumbers returns every registered room number, sorted
	FindAllNumbers(ctx context.Context) ([]string, error)
	Count(ctx context.Context, filter RoomFilter) (int64, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	Save(ctx context.Context, room *Room) error
	// SaveBatch upserts rooms by number in one transaction
	SaveBatch(ctx context.Context, rooms []*Room) error
	Delete(ctx context.Context, number string) error
}
