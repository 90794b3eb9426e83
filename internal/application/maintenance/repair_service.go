package maintenance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/maintenance"
	"github.com/rental/backend/internal/domain/property"
	"github.com/rental/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RepairService handles tenants' repair reports
type RepairService struct {
	reports maintenance.RepairReportRepository
	rooms   property.RoomRepository
	logger  *zap.Logger
}

// NewRepairService creates a new RepairService
func NewRepairService(reports maintenance.RepairReportRepository, rooms property.RoomRepository, logger *zap.Logger) *RepairService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepairService{reports: reports, rooms: rooms, logger: logger}
}

// Submit files a new report for a registered room
func (s *RepairService) Submit(ctx context.Context, input SubmitRepairInput) (*maintenance.RepairReport, error) {
	session, ok := identity.SessionFrom(ctx)
	if !ok {
		return nil, shared.ErrUnauthorized
	}

	roomNumber := strings.TrimSpace(input.RoomNumber)
	exists, err := s.rooms.ExistsByNumber(ctx, roomNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check room: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("ROOM_NOT_FOUND", "Room "+roomNumber+" does not exist")
	}

	tenant := strings.TrimSpace(input.TenantName)
	if tenant == "" {
		tenant = session.Username
	}
	report, err := maintenance.NewRepairReport(tenant, roomNumber, input.Issue, input.Description, input.Date)
	if err != nil {
		return nil, err
	}
	if err := s.reports.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save repair report: %w", err)
	}

	s.logger.Info("Repair report submitted",
		zap.String("report_id", report.ID.String()),
		zap.String("room", report.RoomNumber),
		zap.String("submitted_by", session.Username))
	return report, nil
}

// List returns a page of reports, newest first
func (s *RepairService) List(ctx context.Context, input ListRepairsInput) (shared.Paginated[maintenance.RepairReport], error) {
	filter := maintenance.RepairFilter{
		Filter:     shared.Filter{Page: input.Page, PageSize: input.PageSize},
		RoomNumber: strings.TrimSpace(input.RoomNumber),
		Status:     input.Status,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return shared.Paginated[maintenance.RepairReport]{}, shared.NewDomainError("INVALID_STATUS", "Invalid repair status: "+string(filter.Status))
	}

	items, err := s.reports.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[maintenance.RepairReport]{}, err
	}
	total, err := s.reports.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[maintenance.RepairReport]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Get returns a report by ID
func (s *RepairService) Get(ctx context.Context, id uuid.UUID) (*maintenance.RepairReport, error) {
	report, err := s.reports.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("REPAIR_NOT_FOUND", "Repair report not found")
		}
		return nil, err
	}
	return report, nil
}

// UpdateStatus moves a report along its lifecycle
func (s *RepairService) UpdateStatus(ctx context.Context, id uuid.UUID, status maintenance.RepairStatus) (*maintenance.RepairReport, error) {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return nil, err
	}
	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := report.TransitionTo(status); err != nil {
		return nil, err
	}
	if err := s.reports.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save repair report: %w", err)
	}

	s.logger.Info("Repair report status changed",
		zap.String("report_id", report.ID.String()),
		zap.String("status", string(report.Status)))
	return report, nil
}

// Delete removes a report
func (s *RepairService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.reports.Delete(ctx, id)
}
