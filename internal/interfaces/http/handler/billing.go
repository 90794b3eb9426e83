package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	billingapp "github.com/rental/backend/internal/application/billing"
	"github.com/rental/backend/internal/domain/metering"
)

// BillingHandler serves monthly billing results and the tariff
type BillingHandler struct {
	BaseHandler
	billingService *billingapp.BillingService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService *billingapp.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// GetMonth returns the billing result of a month
// @Summary      Get monthly billing
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        month path string true "Billing month (YYYY-MM)"
// @Success      200 {object} dto.Response{data=billing.Result}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/{month} [get]
func (h *BillingHandler) GetMonth(c *gin.Context) {
	month, err := metering.ParseMonth(c.Param("month"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.billingService.ComputeMonthlyBilling(c.Request.Context(), month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Tariff describes the active tariff. With ?units=N it also prices N units.
// @Summary      Get tariff
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        units query int false "Units to price"
// @Success      200 {object} dto.Response{data=TariffResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/tariff [get]
func (h *BillingHandler) Tariff(c *gin.Context) {
	info, err := h.billingService.Tariff()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var quote *billingapp.Quote
	if raw := c.Query("units"); raw != "" {
		units, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.BadRequest(c, "units must be an integer")
			return
		}
		quote, err = h.billingService.Quote(units)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}

	h.Success(c, toTariffResponse(info, quote))
}
