package tariff

import (
	"fmt"
	"strings"

	"github.com/rental/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrConfiguration is the code carried by every malformed-tariff error
var ErrConfiguration = shared.NewDomainError("TARIFF_CONFIGURATION", "Tariff tier table is malformed")

// Tier prices units up to UpperBound. A nil UpperBound is the unbounded last tier.
type Tier struct {
	UpperBound   *int64          `json:"upper_bound,omitempty"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

// NewTier creates a bounded tier
func NewTier(upperBound int64, price decimal.Decimal) Tier {
	return Tier{UpperBound: &upperBound, PricePerUnit: price}
}

// NewOpenTier creates the unbounded last tier
func NewOpenTier(price decimal.Decimal) Tier {
	return Tier{PricePerUnit: price}
}

// IsUnbounded reports whether the tier has no upper limit
func (t Tier) IsUnbounded() bool {
	return t.UpperBound == nil
}

// String renders the tier as "(bound, price)"
func (t Tier) String() string {
	bound := "inf"
	if t.UpperBound != nil {
		bound = fmt.Sprintf("%d", *t.UpperBound)
	}
	return fmt.Sprintf("(%s, %s)", bound, t.PricePerUnit.String())
}

// Schedule is a validated progressive tariff
type Schedule struct {
	tiers    []Tier
	scale    int32
	rounding Rounding
}

// NewSchedule validates tiers and builds a schedule. scale is the number of
// decimal places of the currency's minor unit (0 for whole units). An empty
// rounding selects RoundingLargestRemainder.
func NewSchedule(tiers []Tier, scale int32, rounding Rounding) (*Schedule, error) {
	if err := ValidateTiers(tiers); err != nil {
		return nil, err
	}
	if scale < 0 || scale > 4 {
		return nil, configurationError("currency scale %d must be between 0 and 4", scale)
	}
	if rounding == "" {
		rounding = RoundingLargestRemainder
	}
	if !rounding.IsValid() {
		return nil, configurationError("unknown rounding policy %q", rounding)
	}

	copied := make([]Tier, len(tiers))
	for i, t := range tiers {
		copied[i] = Tier{PricePerUnit: t.PricePerUnit}
		if t.UpperBound != nil {
			bound := *t.UpperBound
			copied[i].UpperBound = &bound
		}
	}
	return &Schedule{tiers: copied, scale: scale, rounding: rounding}, nil
}

// ValidateTiers checks that bounds strictly increase, that only the last tier
// is unbounded, and that every price is positive.
func ValidateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return configurationError("at least one tier is required")
	}

	var previous int64
	for i, t := range tiers {
		if !t.PricePerUnit.IsPositive() {
			return configurationError("tier %d price %s must be positive", i+1, t.PricePerUnit.String())
		}
		last := i == len(tiers)-1
		if t.UpperBound == nil {
			if !last {
				return configurationError("only the last tier may be unbounded (tier %d)", i+1)
			}
			continue
		}
		if last {
			return configurationError("last tier must be unbounded, got upper bound %d", *t.UpperBound)
		}
		if *t.UpperBound <= previous {
			return configurationError("tier %d upper bound %d must be greater than %d", i+1, *t.UpperBound, previous)
		}
		previous = *t.UpperBound
	}
	return nil
}

func configurationError(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConfiguration)
}

// Tiers returns a copy of the tiers
func (s *Schedule) Tiers() []Tier {
	result := make([]Tier, len(s.tiers))
	copy(result, s.tiers)
	return result
}

// Scale returns the currency minor-unit scale
func (s *Schedule) Scale() int32 {
	return s.scale
}

// Rounding returns the apportioning rounding policy
func (s *Schedule) Rounding() Rounding {
	return s.rounding
}

// Apportion splits totalBill across rooms using the schedule's scale and rounding policy
func (s *Schedule) Apportion(totalBill decimal.Decimal, usage map[string]int64) map[string]decimal.Decimal {
	if s.rounding == RoundingTruncate {
		return TruncatedApportion(totalBill, usage, s.scale)
	}
	return Apportion(totalBill, usage, s.scale)
}

// ComputeBill prices totalUnits progressively and rounds half-up to the
// currency's minor unit. Non-positive usage costs nothing.
func (s *Schedule) ComputeBill(totalUnits int64) decimal.Decimal {
	return s.ComputeExactBill(totalUnits).Round(s.scale)
}

// ComputeExactBill is ComputeBill without the final rounding
func (s *Schedule) ComputeExactBill(totalUnits int64) decimal.Decimal {
	fee := decimal.Zero
	remaining := totalUnits
	var lower int64

	for _, t := range s.tiers {
		if remaining <= 0 {
			break
		}
		units := remaining
		if t.UpperBound != nil {
			if width := *t.UpperBound - lower; units > width {
				units = width
			}
			lower = *t.UpperBound
		}
		fee = fee.Add(decimal.NewFromInt(units).Mul(t.PricePerUnit))
		remaining -= units
	}
	return fee
}

// Breakdown returns the units and fee charged in each tier for totalUnits
func (s *Schedule) Breakdown(totalUnits int64) []TierCharge {
	charges := make([]TierCharge, 0, len(s.tiers))
	remaining := totalUnits
	var lower int64

	for _, t := range s.tiers {
		units := remaining
		if units < 0 {
			units = 0
		}
		if t.UpperBound != nil {
			if width := *t.UpperBound - lower; units > width {
				units = width
			}
			lower = *t.UpperBound
		}
		charges = append(charges, TierCharge{
			Tier:  t,
			Units: units,
			Fee:   decimal.NewFromInt(units).Mul(t.PricePerUnit),
		})
		remaining -= units
	}
	return charges
}

// TierCharge is the portion of a bill priced by one tier
type TierCharge struct {
	Tier  Tier            `json:"tier"`
	Units int64           `json:"units"`
	Fee   decimal.Decimal `json:"fee"`
}

// String renders the schedule as a list of tiers
func (s *Schedule) String() string {
	parts := make([]string, len(s.tiers))
	for i, t := range s.tiers {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
