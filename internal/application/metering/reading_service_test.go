package metering

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/metering"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func landlordCtx() context.Context {
	return identity.WithSession(context.Background(), identity.Session{
		UserID:       uuid.New(),
		Username:     "landlord",
		Role:         identity.RoleLandlord,
		LandlordCode: "AB12CD34",
	})
}

func tenantCtx() context.Context {
	return identity.WithSession(context.Background(), identity.Session{
		UserID: uuid.New(), Username: "tenant", Role: identity.RoleTenant,
	})
}

func storedReading(t *testing.T, room, month string, value int64) *metering.MeterReading {
	t.Helper()
	r, err := metering.NewMeterReading(room, metering.MustParseMonth(month), value)
	require.NoError(t, err)
	r.ClearDomainEvents()
	return r
}

type readingFixture struct {
	readings *MockReadingRepository
	rooms    *MockRoomRepository
	events   *MockEventPublisher
	svc      *ReadingService
}

func newReadingFixture() *readingFixture {
	f := &readingFixture{
		readings: new(MockReadingRepository),
		rooms:    new(MockRoomRepository),
		events:   new(MockEventPublisher),
	}
	f.svc = NewReadingService(f.readings, f.rooms, f.events, nil, zap.NewNop())
	return f
}

func publishedEvents(t *testing.T, events *MockEventPublisher) []shared.DomainEvent {
	t.Helper()
	var out []shared.DomainEvent
	for _, call := range events.Calls {
		if call.Method == "Publish" {
			out = append(out, call.Arguments.Get(1).([]shared.DomainEvent)...)
		}
	}
	return out
}

func TestReadingService_Record(t *testing.T) {
	t.Run("creates a new reading", func(t *testing.T) {
		f := newReadingFixture()
		ctx := landlordCtx()

		f.rooms.On("ExistsByNumber", ctx, "401").Return(true, nil)
		f.readings.On("Find", ctx, "401", metering.Month("2024-07")).Return(nil, shared.ErrNotFound)
		f.readings.On("Save", ctx, mock.AnythingOfType("*metering.MeterReading")).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return(nil)

		reading, err := f.svc.Record(ctx, RecordReadingInput{RoomNumber: " 401 ", Month: "2024-7", Value: 126})
		require.NoError(t, err)
		assert.Equal(t, "401", reading.RoomNumber)
		assert.Equal(t, metering.Month("2024-07"), reading.Month)
		assert.Equal(t, int64(126), reading.Value)

		events := publishedEvents(t, f.events)
		require.Len(t, events, 1)
		assert.Equal(t, metering.EventTypeReadingRecorded, events[0].EventType())
		assert.Empty(t, reading.GetDomainEvents())
	})

	t.Run("corrects an existing reading", func(t *testing.T) {
		f := newReadingFixture()
		ctx := landlordCtx()
		existing := storedReading(t, "401", "2024-07", 120)

		f.rooms.On("ExistsByNumber", ctx, "401").Return(true, nil)
		f.readings.On("Find", ctx, "401", metering.Month("2024-07")).Return(existing, nil)
		f.readings.On("Save", ctx, existing).Return(nil)
		f.events.On("Publish", ctx, mock.Anything).Return(nil)

		reading, err := f.svc.Record(ctx, RecordReadingInput{RoomNumber: "401", Month: "2024-07", Value: 126})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, reading.ID)
		assert.Equal(t, int64(126), reading.Value)

		events := publishedEvents(t, f.events)
		require.Len(t, events, 1)
		recorded := events[0].(*metering.ReadingRecordedEvent)
		require.NotNil(t, recorded.PreviousValue)
		assert.Equal(t, int64(120), *recorded.PreviousValue)
	})

	t.Run("unknown room", func(t *testing.T) {
		f := newReadingFixture()
		ctx := landlordCtx()
		f.rooms.On("ExistsByNumber", ctx, "999").Return(false, nil)

		_, err := f.svc.Record(ctx, RecordReadingInput{RoomNumber: "999", Month: "2024-07", Value: 1})
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "ROOM_NOT_FOUND", domainErr.Code)
	})

	t.Run("negative value", func(t *testing.T) {
		f := newReadingFixture()
		ctx := landlordCtx()
		f.rooms.On("ExistsByNumber", ctx, "401").Return(true, nil)
		f.readings.On("Find", ctx, "401", metering.Month("2024-07")).Return(nil, shared.ErrNotFound)

		_, err := f.svc.Record(ctx, RecordReadingInput{RoomNumber: "401", Month: "2024-07", Value: -1})
		require.Error(t, err)
		f.readings.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("tenants cannot record", func(t *testing.T) {
		f := newReadingFixture()
		_, err := f.svc.Record(tenantCtx(), RecordReadingInput{RoomNumber: "401", Month: "2024-07", Value: 1})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("anonymous callers cannot record", func(t *testing.T) {
		f := newReadingFixture()
		_, err := f.svc.Record(context.Background(), RecordReadingInput{RoomNumber: "401", Month: "2024-07", Value: 1})
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestReadingService_RecordBatch(t *testing.T) {
	f := newReadingFixture()
	ctx := landlordCtx()

	f.rooms.On("FindAllNumbers", mock.Anything).Return([]string{"401", "402", "403"}, nil)
	f.readings.On("FindByMonth", mock.Anything, metering.Month("2024-07")).Return([]metering.MeterReading{
		*storedReading(t, "401", "2024-07", 126),
		*storedReading(t, "402", "2024-07", 80),
	}, nil)
	f.readings.On("SaveBatch", mock.Anything, mock.AnythingOfType("[]*metering.MeterReading")).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	result, err := f.svc.RecordBatch(ctx, RecordBatchInput{Readings: []RecordReadingInput{
		{RoomNumber: "401", Month: "2024-07", Value: 126}, // unchanged
		{RoomNumber: "402", Month: "2024-07", Value: 90},  // corrected
		{RoomNumber: "403", Month: "2024-07", Value: 10},  // new
	}})
	require.NoError(t, err)
	assert.Equal(t, &BatchResult{Created: 1, Updated: 1, Unchanged: 1}, result)

	saved := f.readings.Calls[len(f.readings.Calls)-1].Arguments.Get(1).([]*metering.MeterReading)
	assert.Len(t, saved, 2)

	events := publishedEvents(t, f.events)
	require.Len(t, events, 1, "one event per changed month")
	imported := events[0].(*metering.ReadingsImportedEvent)
	assert.Equal(t, metering.Month("2024-07"), imported.Month)
	assert.Equal(t, []string{"402", "403"}, imported.Rooms)
	for _, r := range saved {
		assert.Empty(t, r.GetDomainEvents())
	}
}

func TestReadingService_RecordBatch_OneEventPerMonth(t *testing.T) {
	f := newReadingFixture()
	ctx := landlordCtx()

	f.rooms.On("FindAllNumbers", mock.Anything).Return([]string{"401", "402", "403"}, nil)
	f.readings.On("FindByMonth", mock.Anything, mock.Anything).Return([]metering.MeterReading{}, nil)
	f.readings.On("SaveBatch", mock.Anything, mock.AnythingOfType("[]*metering.MeterReading")).Return(nil)
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.RecordBatch(ctx, RecordBatchInput{Readings: []RecordReadingInput{
		{RoomNumber: "403", Month: "2024-07", Value: 30},
		{RoomNumber: "401", Month: "2024-07", Value: 10},
		{RoomNumber: "402", Month: "2024-07", Value: 20},
		{RoomNumber: "401", Month: "2024-06", Value: 5},
	}})
	require.NoError(t, err)

	events := publishedEvents(t, f.events)
	require.Len(t, events, 2)
	june := events[0].(*metering.ReadingsImportedEvent)
	july := events[1].(*metering.ReadingsImportedEvent)
	assert.Equal(t, metering.Month("2024-06"), june.Month)
	assert.Equal(t, []string{"401"}, june.Rooms)
	assert.Equal(t, metering.Month("2024-07"), july.Month)
	assert.Equal(t, []string{"401", "402", "403"}, july.Rooms)

	month, ok := metering.AffectedMonth(june)
	assert.True(t, ok)
	assert.Equal(t, metering.Month("2024-06"), month)
}

func TestReadingService_RecordBatch_RejectsUnknownRooms(t *testing.T) {
	f := newReadingFixture()
	ctx := landlordCtx()
	f.rooms.On("FindAllNumbers", mock.Anything).Return([]string{"401"}, nil)

	_, err := f.svc.RecordBatch(ctx, RecordBatchInput{Readings: []RecordReadingInput{
		{RoomNumber: "401", Month: "2024-07", Value: 1},
		{RoomNumber: "B2", Month: "2024-07", Value: 1},
		{RoomNumber: "A1", Month: "2024-07", Value: 1},
	}})
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ROOM_NOT_FOUND", domainErr.Code)
	assert.Contains(t, domainErr.Message, "A1, B2")
	f.readings.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
}

func TestReadingService_LastTwo(t *testing.T) {
	ctx := context.Background()

	t.Run("usage between the two latest readings", func(t *testing.T) {
		f := newReadingFixture()
		f.readings.On("FindLastTwo", ctx, "401").Return([]metering.MeterReading{
			*storedReading(t, "401", "2024-08", 226),
			*storedReading(t, "401", "2024-07", 126),
		}, nil)

		result, err := f.svc.LastTwo(ctx, "401")
		require.NoError(t, err)
		require.NotNil(t, result.UsedUnits)
		assert.Equal(t, int64(100), *result.UsedUnits)
		assert.False(t, result.InvalidUsage)
	})

	t.Run("a decrease is flagged, not clamped", func(t *testing.T) {
		f := newReadingFixture()
		f.readings.On("FindLastTwo", ctx, "401").Return([]metering.MeterReading{
			*storedReading(t, "401", "2024-08", 100),
			*storedReading(t, "401", "2024-07", 126),
		}, nil)

		result, err := f.svc.LastTwo(ctx, "401")
		require.NoError(t, err)
		require.NotNil(t, result.UsedUnits)
		assert.Equal(t, int64(-26), *result.UsedUnits)
		assert.True(t, result.InvalidUsage)
	})

	t.Run("a single reading has no usage", func(t *testing.T) {
		f := newReadingFixture()
		f.readings.On("FindLastTwo", ctx, "401").Return([]metering.MeterReading{
			*storedReading(t, "401", "2024-08", 100),
		}, nil)

		result, err := f.svc.LastTwo(ctx, "401")
		require.NoError(t, err)
		assert.NotNil(t, result.Current)
		assert.Nil(t, result.Previous)
		assert.Nil(t, result.UsedUnits)
	})
}

func TestReadingService_Delete(t *testing.T) {
	f := newReadingFixture()
	ctx := landlordCtx()
	existing := storedReading(t, "401", "2024-07", 126)

	f.readings.On("Find", ctx, "401", metering.Month("2024-07")).Return(existing, nil)
	f.readings.On("Delete", ctx, "401", metering.Month("2024-07")).Return(nil)
	f.events.On("Publish", ctx, mock.Anything).Return(nil)

	require.NoError(t, f.svc.Delete(ctx, "401", "2024-07"))

	events := publishedEvents(t, f.events)
	require.Len(t, events, 1)
	assert.Equal(t, metering.EventTypeReadingDeleted, events[0].EventType())
}

func TestReadingService_Get_NotFound(t *testing.T) {
	f := newReadingFixture()
	ctx := context.Background()
	f.readings.On("Find", ctx, "401", metering.Month("2024-07")).Return(nil, shared.ErrNotFound)

	_, err := f.svc.Get(ctx, "401", "2024-07")
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "READING_NOT_FOUND", domainErr.Code)
}
