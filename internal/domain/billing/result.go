package billing

import (
	"maps"
	"slices"
	"time"

	"github.com/rental/backend/internal/domain/metering"
	"github.com/shopspring/decimal"
)

// Result is the billing view of one month
type Result struct {
	Month      metering.Month             `json:"month"`
	TotalUnits int64                      `json:"total_units"`
	TotalBill  decimal.Decimal            `json:"total_bill"`
	PerRoomFee map[string]decimal.Decimal `json:"per_room_fee"`
	Usage      map[string]int64           `json:"usage"`
	// InsufficientData lists rooms lacking the month's reading or any earlier one
	InsufficientData []string `json:"insufficient_data"`
	// InvalidUsage lists rooms whose meter value decreased
	InvalidUsage []UsageAnomaly `json:"invalid_usage"`
	ComputedAt   time.Time      `json:"computed_at"`
}

// UsageAnomaly reports a negative consumption
type UsageAnomaly struct {
	RoomNumber    string         `json:"room_number"`
	UsedUnits     int64          `json:"used_units"`
	CurrentMonth  metering.Month `json:"current_month"`
	CurrentValue  int64          `json:"current_value"`
	PreviousMonth metering.Month `json:"previous_month"`
	PreviousValue int64          `json:"previous_value"`
}

// Clone returns a copy that shares no maps or slices with r
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	c.PerRoomFee = maps.Clone(r.PerRoomFee)
	c.Usage = maps.Clone(r.Usage)
	c.InsufficientData = slices.Clone(r.InsufficientData)
	c.InvalidUsage = slices.Clone(r.InvalidUsage)
	return &c
}

// FeeFor returns the fee of a room and whether the room was billed
func (r *Result) FeeFor(roomNumber string) (decimal.Decimal, bool) {
	fee, ok := r.PerRoomFee[roomNumber]
	return fee, ok
}

// FeeTotal sums the per-room fees
func (r *Result) FeeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, fee := range r.PerRoomFee {
		total = total.Add(fee)
	}
	return total
}

// HasAnomalies reports whether any room was excluded
func (r *Result) HasAnomalies() bool {
	return len(r.InsufficientData) > 0 || len(r.InvalidUsage) > 0
}
