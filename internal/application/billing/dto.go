package billing

import (
	"github.com/rental/backend/internal/domain/tariff"
	"github.com/shopspring/decimal"
)

// TariffInfo describes the active tariff schedule
type TariffInfo struct {
	Tiers    []tariff.Tier
	Scale    int32
	Rounding string
}

// Quote is the price of a number of units under the active tariff
type Quote struct {
	TotalUnits int64
	Charges    []tariff.TierCharge
	TotalBill  decimal.Decimal
}
