package metering

import (
	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/shared"
)

// AggregateTypeMeterReading is the aggregate type for meter readings
const AggregateTypeMeterReading = "MeterReading"

// Event type constants for meter readings
const (
	EventTypeReadingRecorded  = "MeterReadingRecorded"
	EventTypeReadingDeleted   = "MeterReadingDeleted"
	EventTypeReadingsImported = "MeterReadingsImported"
)

// ReadingRecordedEvent is published when a reading is created or corrected
type ReadingRecordedEvent struct {
	shared.BaseDomainEvent
	ReadingID     uuid.UUID `json:"reading_id"`
	RoomNumber    string    `json:"room_number"`
	Month         Month     `json:"month"`
	Value         int64     `json:"value"`
	PreviousValue *int64    `json:"previous_value,omitempty"`
}

// NewReadingRecordedEvent creates a new ReadingRecordedEvent
func NewReadingRecordedEvent(r *MeterReading, previous *int64) *ReadingRecordedEvent {
	return &ReadingRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReadingRecorded, AggregateTypeMeterReading, r.ID),
		ReadingID:       r.ID,
		RoomNumber:      r.RoomNumber,
		Month:           r.Month,
		Value:           r.Value,
		PreviousValue:   previous,
	}
}

// ReadingDeletedEvent is published when a reading is removed
type ReadingDeletedEvent struct {
	shared.BaseDomainEvent
	RoomNumber string `json:"room_number"`
	Month      Month  `json:"month"`
}

// NewReadingDeletedEvent creates a new ReadingDeletedEvent
func NewReadingDeletedEvent(r *MeterReading) *ReadingDeletedEvent {
	return &ReadingDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReadingDeleted, AggregateTypeMeterReading, r.ID),
		RoomNumber:      r.RoomNumber,
		Month:           r.Month,
	}
}

// ReadingsImportedEvent summarizes a batch import for one month. It stands in
// for the per-reading events of the batch.
type ReadingsImportedEvent struct {
	shared.BaseDomainEvent
	Month Month    `json:"month"`
	Rooms []string `json:"rooms"`
}

// NewReadingsImportedEvent creates a ReadingsImportedEvent for the rooms changed in month
func NewReadingsImportedEvent(month Month, rooms []string) *ReadingsImportedEvent {
	return &ReadingsImportedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReadingsImported, AggregateTypeMeterReading,
			uuid.NewSHA1(uuid.NameSpaceURL, []byte("readings:"+month.String()))),
		Month: month,
		Rooms: rooms,
	}
}

// AffectedMonth returns the earliest month whose billing may change because of the event
func AffectedMonth(event shared.DomainEvent) (Month, bool) {
	switch e := event.(type) {
	case *ReadingRecordedEvent:
		return e.Month, true
	case *ReadingDeletedEvent:
		return e.Month, true
	case *ReadingsImportedEvent:
		return e.Month, true
	default:
		return "", false
	}
}
