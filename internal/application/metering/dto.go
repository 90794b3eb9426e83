package metering

import "github.com/rental/backend/internal/domain/metering"

// RecordReadingInput is one meter reading to record
type RecordReadingInput struct {
	RoomNumber string
	Month      string // YYYY-MM
	Value      int64
}

// RecordBatchInput is a set of readings saved together
type RecordBatchInput struct {
	Readings []RecordReadingInput
	Source   string // SourceBatch when empty
}

// BatchResult counts what a batch changed
type BatchResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// LastTwoResult holds the two most recent readings of a room and the usage between them
type LastTwoResult struct {
	RoomNumber string
	Current    *metering.MeterReading
	Previous   *metering.MeterReading
	// UsedUnits is nil when fewer than two readings exist
	UsedUnits    *int64
	InvalidUsage bool
}
