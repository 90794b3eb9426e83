package metering

import (
	"context"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/metering"
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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

// MockReadingRepository is a mock implementation of metering.ReadingRepository
type MockReadingRepository struct {
	mock.Mock
}

func (m *MockReadingRepository) Find(ctx context.Context, roomNumber string, month metering.Month) (*metering.MeterReading, error) {
	args := m.Called(ctx, roomNumber, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*metering.MeterReading), args.Error(1)
}

func (m *MockReadingRepository) FindByID(ctx context.Context, id uuid.UUID) (*metering.MeterReading, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*metering.MeterReading), args.Error(1)
}

func (m *MockReadingRepository) FindLatestBefore(ctx context.Context, roomNumber string, month metering.Month) (*metering.MeterReading, error) {
	args := m.Called(ctx, roomNumber, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*metering.MeterReading), args.Error(1)
}

func (m *MockReadingRepository) FindLastTwo(ctx context.Context, roomNumber string) ([]metering.MeterReading, error) {
	args := m.Called(ctx, roomNumber)
	return args.Get(0).([]metering.MeterReading), args.Error(1)
}

func (m *MockReadingRepository) FindByMonth(ctx context.Context, month metering.Month) ([]metering.MeterReading, error) {
	args := m.Called(ctx, month)
	return args.Get(0).([]metering.MeterReading), args.Error(1)
}

func (m *MockReadingRepository) FindByRoom(ctx context.Context, roomNumber string) ([]metering.MeterReading, error) {
	args := m.Called(ctx, roomNumber)
	return args.Get(0).([]metering.MeterReading), args.Error(1)
}

func (m *MockReadingRepository) FindUpTo(ctx context.Context, upTo metering.Month) ([]metering.MeterReading, error) {
	args := m.Called(ctx, upTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]metering.MeterReading), args.Error(1)
}

func (m *MockReadingRepository) FindAll(ctx context.Context, filter metering.ReadingFilter) ([]metering.MeterReading, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]metering.MeterReading), args.Error(1)
}

func (m *MockReadingRepository) Count(ctx context.Context, filter metering.ReadingFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReadingRepository) Save(ctx context.Context, reading *metering.MeterReading) error {
	return m.Called(ctx, reading).Error(0)
}

func (m *MockReadingRepository) SaveBatch(ctx context.Context, readings []*metering.MeterReading) error {
	return m.Called(ctx, readings).Error(0)
}

func (m *MockReadingRepository) Delete(ctx context.Context, roomNumber string, month metering.Month) error {
	return m.Called(ctx, roomNumber, month).Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
