package billing

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rental/backend/internal/domain/metering"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/domain/tariff"
	"github.com/shopspring/decimal"
)

// ReadingLookup resolves the readings billing needs. *metering.Snapshot implements it.
type ReadingLookup interface {
	Current(roomNumber string, month metering.Month) (*metering.MeterReading, bool)
	PreviousBefore(roomNumber string, month metering.Month) (*metering.MeterReading, bool)
}

// Compute builds the billing result of month for rooms.
func Compute(month metering.Month, rooms []string, lookup ReadingLookup, schedule *tariff.Schedule) (*Result, error) {
	if schedule == nil {
		return nil, fmt.Errorf("no tariff schedule configured: %w", tariff.ErrConfiguration)
	}
	if !month.IsValid() {
		return nil, shared.NewDomainError("INVALID_MONTH", "Month must be in YYYY-MM format")
	}

	result := &Result{
		Month:            month,
		PerRoomFee:       make(map[string]decimal.Decimal, len(rooms)),
		Usage:            make(map[string]int64, len(rooms)),
		InsufficientData: make([]string, 0),
		InvalidUsage:     make([]UsageAnomaly, 0),
	}

	for _, room := range uniqueSorted(rooms) {
		current, ok := lookup.Current(room, month)
		if !ok {
			result.InsufficientData = append(result.InsufficientData, room)
			continue
		}
		previous, ok := lookup.PreviousBefore(room, month)
		if !ok {
			result.InsufficientData = append(result.InsufficientData, room)
			continue
		}

		consumption, err := metering.ComputeUsage(current, previous)
		if err != nil {
			if errors.Is(err, metering.ErrInvalidUsage) {
				result.InvalidUsage = append(result.InvalidUsage, UsageAnomaly{
					RoomNumber:    room,
					UsedUnits:     consumption.UsedUnits,
					CurrentMonth:  current.Month,
					CurrentValue:  current.Value,
					PreviousMonth: previous.Month,
					PreviousValue: previous.Value,
				})
				continue
			}
			return nil, err
		}

		result.Usage[room] = consumption.UsedUnits
		result.TotalUnits += consumption.UsedUnits
	}

	result.TotalBill = schedule.ComputeBill(result.TotalUnits)
	result.PerRoomFee = schedule.Apportion(result.TotalBill, result.Usage)
	result.ComputedAt = time.Now()

	return result, nil
}

func uniqueSorted(rooms []string) []string {
	seen := make(map[string]struct{}, len(rooms))
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		if _, ok := seen[r]; ok || r == "" {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
