package maintenance

import (
	"context"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/shared"
)

// RepairFilter narrows report listings
type RepairFilter struct {
	shared.Filter
	RoomNumber string
	Status     RepairStatus
}

// RepairReportRepository persists repair reports
type RepairReportRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RepairReport, error)
	// FindAll lists reports newest first
	FindAll(ctx context.Context, filter RepairFilter) ([]RepairReport, error)
	Count(ctx context.Context, filter RepairFilter) (int64, error)
	Save(ctx context.Context, report *RepairReport) error
	Delete(ctx context.Context, id uuid.UUID) error
}
