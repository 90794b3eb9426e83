package handler

import (
	billingapp "github.com/rental/backend/internal/application/billing"
	"github.com/rental/backend/internal/domain/tariff"
	"github.com/shopspring/decimal"
)

// TariffResponse describes the active tariff and, when units were given, a quote
type TariffResponse struct {
	Tiers    []tariff.Tier  `json:"tiers"`
	Scale    int32          `json:"scale"`
	Rounding string         `json:"rounding"`
	Quote    *QuoteResponse `json:"quote,omitempty"`
}

// QuoteResponse prices a number of units tier by tier
type QuoteResponse struct {
	TotalUnits int64               `json:"total_units"`
	Charges    []tariff.TierCharge `json:"charges"`
	TotalBill  decimal.Decimal     `json:"total_bill"`
}

func toTariffResponse(info *billingapp.TariffInfo, quote *billingapp.Quote) TariffResponse {
	resp := TariffResponse{
		Tiers:    info.Tiers,
		Scale:    info.Scale,
		Rounding: info.Rounding,
	}
	if quote != nil {
		resp.Quote = &QuoteResponse{
			TotalUnits: quote.TotalUnits,
			Charges:    quote.Charges,
			TotalBill:  quote.TotalBill,
		}
	}
	return resp
}
