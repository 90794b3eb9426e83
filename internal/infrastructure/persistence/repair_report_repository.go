package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/maintenance"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRepairReportRepository implements maintenance.RepairReportRepository
type GormRepairReportRepository struct {
	db *gorm.DB
}

// NewGormRepairReportRepository creates a new GormRepairReportRepository
func NewGormRepairReportRepository(db *gorm.DB) *GormRepairReportRepository {
	return &GormRepairReportRepository{db: db}
}

// FindByID finds a report by ID
func (r *GormRepairReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*maintenance.RepairReport, error) {
	var model models.RepairReportModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists reports, newest first by default
func (r *GormRepairReportRepository) FindAll(ctx context.Context, filter maintenance.RepairFilter) ([]maintenance.RepairReport, error) {
	var reportModels []models.RepairReportModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RepairReportModel{}), filter)
	query = applyPage(query, filter.Filter, RepairSortFields, "date", "DESC")
	if err := query.Find(&reportModels).Error; err != nil {
		return nil, err
	}

	reports := make([]maintenance.RepairReport, len(reportModels))
	for i := range reportModels {
		reports[i] = *reportModels[i].ToDomain()
	}
	return reports, nil
}

// Count counts reports matching the filter
func (r *GormRepairReportRepository) Count(ctx context.Context, filter maintenance.RepairFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.RepairReportModel{}), filter).Count(&count).Error
	return count, err
}

// Save creates or updates the report
func (r *GormRepairReportRepository) Save(ctx context.Context, report *maintenance.RepairReport) error {
	return r.db.WithContext(ctx).Save(models.RepairReportModelFromDomain(report)).Error
}

// Delete removes a report
func (r *GormRepairReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.RepairReportModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormRepairReportRepository) applyFilter(query *gorm.DB, filter maintenance.RepairFilter) *gorm.DB {
	if filter.RoomNumber != "" {
		query = query.Where("room_number = ?", filter.RoomNumber)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(issue) LIKE ? OR LOWER(tenant_name) LIKE ?", pattern, pattern)
	}
	return query
}

var _ maintenance.RepairReportRepository = (*GormRepairReportRepository)(nil)
