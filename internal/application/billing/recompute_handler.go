package billing

import (
	"context"

	"github.com/rental/backend/internal/domain/metering"
	"github.com/rental/backend/internal/domain/property"
	"github.com/rental/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// earliestMonth orders before any month a reading can carry
const earliestMonth = metering.Month("0001-01")

// RecomputeHandler keeps billing results current when readings change.
// A reading affects its own month and, as the "previous" reading, every later
// month, so cached results from the affected month on are dropped and the
// affected month is computed again, which publishes BillingComputed.
// Registering or removing a room changes every month's room list, so those
// events only drop the whole cache.
type RecomputeHandler struct {
	service *BillingService
	logger  *zap.Logger
}

// NewRecomputeHandler creates a new RecomputeHandler
func NewRecomputeHandler(service *BillingService, logger *zap.Logger) *RecomputeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecomputeHandler{service: service, logger: logger}
}

// Handle implements shared.EventHandler
func (h *RecomputeHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch event.EventType() {
	case property.EventTypeRoomCreated, property.EventTypeRoomDeleted:
		if err := h.service.Invalidate(ctx, earliestMonth); err != nil {
			h.logger.Warn("Failed to invalidate billing cache", zap.Error(err))
		}
		return nil
	}

	month, ok := metering.AffectedMonth(event)
	if !ok {
		return nil
	}

	if err := h.service.Invalidate(ctx, month); err != nil {
		h.logger.Warn("Failed to invalidate billing cache",
			zap.String("month", month.String()),
			zap.Error(err))
	}

	if _, err := h.service.Recompute(ctx, month); err != nil {
		h.logger.Error("Failed to recompute billing",
			zap.String("month", month.String()),
			zap.String("event_id", event.EventID().String()),
			zap.Error(err))
		return err
	}
	return nil
}

// EventTypes implements shared.EventHandler
func (h *RecomputeHandler) EventTypes() []string {
	return []string{
		metering.EventTypeReadingRecorded,
		metering.EventTypeReadingDeleted,
		metering.EventTypeReadingsImported,
		property.EventTypeRoomCreated,
		property.EventTypeRoomDeleted,
	}
}

var _ shared.EventHandler = (*RecomputeHandler)(nil)
