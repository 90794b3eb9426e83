package metering

import (
	"fmt"

	"github.com/rental/backend/internal/domain/shared"
)

// ErrInvalidUsage marks a negative consumption. The value is still returned.
var ErrInvalidUsage = shared.NewDomainError("INVALID_USAGE", "Meter value decreased between readings")

// Consumption is the derived usage of a room for one month
type Consumption struct {
	RoomNumber string `json:"room_number"`
	Month      Month  `json:"month"`
	UsedUnits  int64  `json:"used_units"`
}

// ComputeUsage returns current.Value - previous.Value.
//
// Both readings must belong to the same room and previous must be strictly
// earlier. A negative result is returned unchanged together with an error
// wrapping ErrInvalidUsage, so callers can surface the anomaly.
func ComputeUsage(current, previous *MeterReading) (Consumption, error) {
	if current == nil || previous == nil {
		return Consumption{}, shared.NewDomainError("INVALID_INPUT", "Both readings are required")
	}
	if current.RoomNumber != previous.RoomNumber {
		return Consumption{}, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Readings belong to different rooms: %s and %s", current.RoomNumber, previous.RoomNumber))
	}
	if !previous.Month.Before(current.Month) {
		return Consumption{}, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Previous reading month %s is not before %s", previous.Month, current.Month))
	}

	c := Consumption{
		RoomNumber: current.RoomNumber,
		Month:      current.Month,
		UsedUnits:  current.Value - previous.Value,
	}
	if c.UsedUnits < 0 {
		return c, fmt.Errorf("room %s %s: usage %d: %w", c.RoomNumber, c.Month, c.UsedUnits, ErrInvalidUsage)
	}
	return c, nil
}
