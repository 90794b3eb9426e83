package tariff

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Rounding selects how proportional shares are rounded to the minor unit
type Rounding string

const (
	// RoundingLargestRemainder makes shares sum exactly to the bill
	RoundingLargestRemainder Rounding = "largest_remainder"
	// RoundingTruncate truncates each share toward zero and accepts the drift
	RoundingTruncate Rounding = "truncate"
)

// IsValid reports whether r is a known policy
func (r Rounding) IsValid() bool {
	return r == RoundingLargestRemainder || r == RoundingTruncate
}

// Apportion splits totalBill across rooms proportionally to usage.
//
// Every share is first truncated to the currency minor unit given by scale;
// the minor units left over are then handed out one at a time to the rooms with
// the largest truncated remainder (ties by room number). The shares therefore
// sum exactly to totalBill rounded to scale. Rooms with zero or negative usage
// receive zero. If total usage is zero, every room receives zero.
func Apportion(totalBill decimal.Decimal, usage map[string]int64, scale int32) map[string]decimal.Decimal {
	shares := make(map[string]decimal.Decimal, len(usage))
	var totalUnits int64
	for room, used := range usage {
		shares[room] = decimal.Zero
		if used > 0 {
			totalUnits += used
		}
	}
	if totalUnits == 0 || !totalBill.IsPositive() {
		return shares
	}

	totalMinor := totalBill.Round(scale).Shift(scale)
	divisor := decimal.NewFromInt(totalUnits)

	type part struct {
		room      string
		quotient  decimal.Decimal
		remainder decimal.Decimal
	}
	parts := make([]part, 0, len(usage))
	allocated := decimal.Zero

	for room, used := range usage {
		if used <= 0 {
			continue
		}
		q, r := totalMinor.Mul(decimal.NewFromInt(used)).QuoRem(divisor, 0)
		parts = append(parts, part{room: room, quotient: q, remainder: r})
		allocated = allocated.Add(q)
	}

	sort.Slice(parts, func(i, j int) bool {
		if c := parts[i].remainder.Cmp(parts[j].remainder); c != 0 {
			return c > 0
		}
		return parts[i].room < parts[j].room
	})

	leftover := totalMinor.Sub(allocated).IntPart()
	for i := range parts {
		if int64(i) < leftover {
			parts[i].quotient = parts[i].quotient.Add(decimal.NewFromInt(1))
		}
		shares[parts[i].room] = parts[i].quotient.Shift(-scale)
	}
	return shares
}

// TruncatedApportion is the plain proportional split truncated toward zero at
// scale. Its sum may fall short of totalBill by up to len(usage)-1 minor units.
func TruncatedApportion(totalBill decimal.Decimal, usage map[string]int64, scale int32) map[string]decimal.Decimal {
	shares := make(map[string]decimal.Decimal, len(usage))
	var totalUnits int64
	for _, used := range usage {
		if used > 0 {
			totalUnits += used
		}
	}
	for room, used := range usage {
		if totalUnits == 0 || used <= 0 {
			shares[room] = decimal.Zero
			continue
		}
		shares[room] = totalBill.Mul(decimal.NewFromInt(used)).
			Div(decimal.NewFromInt(totalUnits)).Truncate(scale)
	}
	return shares
}
