package metering

import (
	"strings"

	"github.com/rental/backend/internal/domain/shared"
)

// MeterReading is the cumulative meter value of a room for one month.
// It is the aggregate root of the metering context.
type MeterReading struct {
	shared.BaseAggregateRoot
	RoomNumber string
	Month      Month
	Value      int64
}

// NewMeterReading creates a reading for a room and month
func NewMeterReading(roomNumber string, month Month, value int64) (*MeterReading, error) {
	roomNumber = strings.TrimSpace(roomNumber)
	if roomNumber == "" {
		return nil, shared.NewDomainError("INVALID_ROOM", "Room number cannot be empty")
	}
	if !month.IsValid() {
		return nil, shared.NewDomainError("INVALID_MONTH", "Month must be in YYYY-MM format")
	}
	if value < 0 {
		return nil, shared.NewDomainError("INVALID_READING", "Meter value cannot be negative")
	}

	reading := &MeterReading{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RoomNumber:        roomNumber,
		Month:             month,
		Value:             value,
	}
	reading.AddDomainEvent(NewReadingRecordedEvent(reading, nil))

	return reading, nil
}

// Correct overwrites the recorded value
func (r *MeterReading) Correct(value int64) error {
	if value < 0 {
		return shared.NewDomainError("INVALID_READING", "Meter value cannot be negative")
	}
	if value == r.Value {
		return nil
	}

	previous := r.Value
	r.Value = value
	r.Touch()
	r.AddDomainEvent(NewReadingRecordedEvent(r, &previous))

	return nil
}

// Key returns the natural key of the reading
func (r *MeterReading) Key() string {
	return r.RoomNumber + "@" + r.Month.String()
}
