package handler

import (
	"time"

	meteringapp "github.com/rental/backend/internal/application/metering"
	"github.com/rental/backend/internal/domain/metering"
)

// RecordReadingRequest carries the meter value for PUT /rooms/:number/readings/:month
type RecordReadingRequest struct {
	Value *int64 `json:"value" binding:"required,gte=0"`
}

// BatchReadingEntry is one reading in a batch
type BatchReadingEntry struct {
	RoomNumber string `json:"room_number" binding:"required,max=20"`
	Month      string `json:"month" binding:"required,month"`
	Value      *int64 `json:"value" binding:"required,gte=0"`
}

// RecordBatchRequest represents the request body for saving many readings at once
type RecordBatchRequest struct {
	Readings []BatchReadingEntry `json:"readings" binding:"required,min=1,max=1000,dive"`
}

// ReadingResponse represents a meter reading in API responses
type ReadingResponse struct {
	RoomNumber string    `json:"room_number"`
	Month      string    `json:"month"`
	Value      int64     `json:"value"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LastTwoResponse holds the two latest readings of a room and the usage between them
type LastTwoResponse struct {
	RoomNumber   string           `json:"room_number"`
	Current      *ReadingResponse `json:"current"`
	Previous     *ReadingResponse `json:"previous"`
	UsedUnits    *int64           `json:"used_units"`
	InvalidUsage bool             `json:"invalid_usage"`
}

func toReadingResponse(r *metering.MeterReading) *ReadingResponse {
	if r == nil {
		return nil
	}
	return &ReadingResponse{
		RoomNumber: r.RoomNumber,
		Month:      r.Month.String(),
		Value:      r.Value,
		UpdatedAt:  r.UpdatedAt,
	}
}

func toReadingResponses(list []metering.MeterReading) []ReadingResponse {
	out := make([]ReadingResponse, len(list))
	for i := range list {
		out[i] = *toReadingResponse(&list[i])
	}
	return out
}

func toLastTwoResponse(r *meteringapp.LastTwoResult) LastTwoResponse {
	return LastTwoResponse{
		RoomNumber:   r.RoomNumber,
		Current:      toReadingResponse(r.Current),
		Previous:     toReadingResponse(r.Previous),
		UsedUnits:    r.UsedUnits,
		InvalidUsage: r.InvalidUsage,
	}
}
