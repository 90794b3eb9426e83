package metering

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/metering"
	"github.com/rental/backend/internal/domain/property"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Reading sources reported to metrics
const (
	SourceManual = "manual"
	SourceBatch  = "batch"
	SourceImport = "import"
)

// ReadingService records and queries meter readings
type ReadingService struct {
	readings metering.ReadingRepository
	rooms    property.RoomRepository
	events   shared.EventPublisher
	metrics  *telemetry.BillingMetrics
	logger   *zap.Logger
}

// NewReadingService creates a new ReadingService. events and metrics may be nil.
func NewReadingService(
	readings metering.ReadingRepository,
	rooms property.RoomRepository,
	events shared.EventPublisher,
	metrics *telemetry.BillingMetrics,
	logger *zap.Logger,
) *ReadingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadingService{
		readings: readings,
		rooms:    rooms,
		events:   events,
		metrics:  metrics,
		logger:   logger,
	}
}

// Record creates or corrects the reading of a room for a month
func (s *ReadingService) Record(ctx context.Context, input RecordReadingInput) (*metering.MeterReading, error) {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return nil, err
	}
	month, err := metering.ParseMonth(input.Month)
	if err != nil {
		return nil, err
	}
	roomNumber := strings.TrimSpace(input.RoomNumber)

	exists, err := s.rooms.ExistsByNumber(ctx, roomNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check room: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("ROOM_NOT_FOUND", "Room "+roomNumber+" does not exist")
	}

	reading, err := s.readings.Find(ctx, roomNumber, month)
	switch {
	case err == nil:
		if err := reading.Correct(input.Value); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		reading, err = metering.NewMeterReading(roomNumber, month, input.Value)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to load reading: %w", err)
	}

	if err := s.readings.Save(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to save reading: %w", err)
	}
	s.metrics.RecordReadings(ctx, SourceManual, 1)
	s.publish(ctx, reading)

	s.logger.Info("Meter reading recorded",
		zap.String("room", roomNumber),
		zap.String("month", month.String()),
		zap.Int64("value", reading.Value))

	return reading, nil
}

// RecordBatch upserts every reading in one transaction and publishes one event
// per changed reading. The batch is rejected as a whole when any entry is invalid.
func (s *ReadingService) RecordBatch(ctx context.Context, input RecordBatchInput) (*BatchResult, error) {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return nil, err
	}
	if len(input.Readings) == 0 {
		return &BatchResult{}, nil
	}
	source := input.Source
	if source == "" {
		source = SourceBatch
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "reading", "RecordBatch",
		telemetry.SpanAttrRows.Int(len(input.Readings)))
	defer span.End()

	known, err := s.roomSet(ctx)
	if err != nil {
		return nil, err
	}

	type key struct {
		room  string
		month metering.Month
	}
	parsed := make(map[key]int64, len(input.Readings))
	order := make([]key, 0, len(input.Readings))
	months := make(map[metering.Month]struct{})
	var unknown []string

	for i, in := range input.Readings {
		month, err := metering.ParseMonth(in.Month)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_MONTH", fmt.Sprintf("Entry %d: %s", i+1, err.Error()))
		}
		if in.Value < 0 {
			return nil, shared.NewDomainError("INVALID_READING", fmt.Sprintf("Entry %d: meter value cannot be negative", i+1))
		}
		room := strings.TrimSpace(in.RoomNumber)
		if _, ok := known[room]; !ok {
			unknown = append(unknown, room)
			continue
		}
		k := key{room: room, month: month}
		if _, dup := parsed[k]; !dup {
			order = append(order, k)
		}
		parsed[k] = in.Value
		months[month] = struct{}{}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, shared.NewDomainError("ROOM_NOT_FOUND", "Unknown rooms: "+strings.Join(unknown, ", "))
	}

	existing := make(map[key]*metering.MeterReading)
	for month := range months {
		list, err := s.readings.FindByMonth(ctx, month)
		if err != nil {
			return nil, fmt.Errorf("failed to load readings of %s: %w", month, err)
		}
		for i := range list {
			r := list[i]
			existing[key{room: r.RoomNumber, month: r.Month}] = &r
		}
	}

	result := &BatchResult{}
	batch := make([]*metering.MeterReading, 0, len(order))
	for _, k := range order {
		value := parsed[k]
		if r, ok := existing[k]; ok {
			if r.Value == value {
				result.Unchanged++
				continue
			}
			if err := r.Correct(value); err != nil {
				return nil, err
			}
			result.Updated++
			batch = append(batch, r)
			continue
		}
		r, err := metering.NewMeterReading(k.room, k.month, value)
		if err != nil {
			return nil, err
		}
		result.Created++
		batch = append(batch, r)
	}

	if err := s.readings.SaveBatch(ctx, batch); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save readings: %w", err)
	}
	s.metrics.RecordReadings(ctx, source, len(batch))
	s.publishImported(ctx, batch)

	s.logger.Info("Meter readings recorded",
		zap.String("source", source),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("unchanged", result.Unchanged))

	return result, nil
}

// Get returns the reading of a room for a month
func (s *ReadingService) Get(ctx context.Context, roomNumber, month string) (*metering.MeterReading, error) {
	m, err := metering.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	reading, err := s.readings.Find(ctx, roomNumber, m)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("READING_NOT_FOUND", fmt.Sprintf("No reading for room %s in %s", roomNumber, m))
		}
		return nil, err
	}
	return reading, nil
}

// ListForMonth returns every reading of a month, ordered by room
func (s *ReadingService) ListForMonth(ctx context.Context, month string) ([]metering.MeterReading, error) {
	m, err := metering.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	return s.readings.FindByMonth(ctx, m)
}

// List returns a page of readings matching the filter
func (s *ReadingService) List(ctx context.Context, filter metering.ReadingFilter) (shared.Paginated[metering.MeterReading], error) {
	items, err := s.readings.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[metering.MeterReading]{}, err
	}
	total, err := s.readings.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[metering.MeterReading]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// History returns a room's readings, newest first
func (s *ReadingService) History(ctx context.Context, roomNumber string) ([]metering.MeterReading, error) {
	return s.readings.FindByRoom(ctx, roomNumber)
}

// LastTwo returns the two most recent readings of a room and the usage between them.
// A decrease is reported as invalid usage, never clamped.
func (s *ReadingService) LastTwo(ctx context.Context, roomNumber string) (*LastTwoResult, error) {
	list, err := s.readings.FindLastTwo(ctx, roomNumber)
	if err != nil {
		return nil, err
	}

	result := &LastTwoResult{RoomNumber: roomNumber}
	if len(list) > 0 {
		result.Current = &list[0]
	}
	if len(list) > 1 {
		result.Previous = &list[1]
	}
	if result.Current == nil || result.Previous == nil {
		return result, nil
	}

	consumption, err := metering.ComputeUsage(result.Current, result.Previous)
	switch {
	case err == nil:
	case errors.Is(err, metering.ErrInvalidUsage):
		result.InvalidUsage = true
	default:
		return nil, err
	}
	used := consumption.UsedUnits
	result.UsedUnits = &used
	return result, nil
}

// Delete removes a reading
func (s *ReadingService) Delete(ctx context.Context, roomNumber, month string) error {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return err
	}
	reading, err := s.Get(ctx, roomNumber, month)
	if err != nil {
		return err
	}
	if err := s.readings.Delete(ctx, reading.RoomNumber, reading.Month); err != nil {
		return fmt.Errorf("failed to delete reading: %w", err)
	}

	reading.AddDomainEvent(metering.NewReadingDeletedEvent(reading))
	s.publish(ctx, reading)

	s.logger.Info("Meter reading deleted",
		zap.String("room", reading.RoomNumber),
		zap.String("month", reading.Month.String()))
	return nil
}

func (s *ReadingService) roomSet(ctx context.Context) (map[string]struct{}, error) {
	numbers, err := s.rooms.FindAllNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	set := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		set[n] = struct{}{}
	}
	return set, nil
}

// publishImported replaces the readings' own events with one event per
// changed month, so a sheet of readings triggers one recompute per month
func (s *ReadingService) publishImported(ctx context.Context, batch []*metering.MeterReading) {
	rooms := make(map[metering.Month][]string)
	for _, r := range batch {
		r.ClearDomainEvents()
		rooms[r.Month] = append(rooms[r.Month], r.RoomNumber)
	}
	if s.events == nil || len(rooms) == 0 {
		return
	}

	months := make([]metering.Month, 0, len(rooms))
	for m := range rooms {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	events := make([]shared.DomainEvent, 0, len(months))
	for _, m := range months {
		sort.Strings(rooms[m])
		events = append(events, metering.NewReadingsImportedEvent(m, rooms[m]))
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish reading import events",
			zap.Int("months", len(months)),
			zap.Error(err))
	}
}

func (s *ReadingService) publish(ctx context.Context, reading *metering.MeterReading) {
	events := reading.GetDomainEvents()
	reading.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish reading events",
			zap.String("room", reading.RoomNumber),
			zap.String("month", reading.Month.String()),
			zap.Error(err))
	}
}
