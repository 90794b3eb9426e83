package property

import (
	"context"

	"github.com/rental/backend/internal/domain/property"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockRoomRepository is a mock implementation of property.RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) FindByNumber(ctx context.Context, number string) (*property.Room, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Room), args.Error(1)
}

func (m *MockRoomRepository) FindAll(ctx context.Context, filter property.RoomFilter) ([]property.Room, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]property.Room), args.Error(1)
}

func (m *MockRoomRepository) FindAllNumbers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRoomRepository) Count(ctx context.Context, filter property.RoomFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) Save(ctx context.Context, room *property.Room) error {
	return m.Called(ctx, room).Error(0)
}

func (m *MockRoomRepository) SaveBatch(ctx context.Context, rooms []*property.Room) error {
	return m.Called(ctx, rooms).Error(0)
}

func (m *MockRoomRepository) Delete(ctx context.Context, number string) error {
	return m.Called(ctx, number).Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
