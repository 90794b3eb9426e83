package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/notice"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAnnouncementRepository implements notice.AnnouncementRepository
type GormAnnouncementRepository struct {
	db *gorm.DB
}

// NewGormAnnouncementRepository creates a new GormAnnouncementRepository
func NewGormAnnouncementRepository(db *gorm.DB) *GormAnnouncementRepository {
	return &GormAnnouncementRepository{db: db}
}

// FindByID finds an announcement by ID
func (r *GormAnnouncementRepository) FindByID(ctx context.Context, id uuid.UUID) (*notice.Announcement, error) {
	var model models.AnnouncementModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists announcements, newest first by default
func (r *GormAnnouncementRepository) FindAll(ctx context.Context, filter shared.Filter) ([]notice.Announcement, error) {
	var announcementModels []models.AnnouncementModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.AnnouncementModel{}), filter)
	query = applyPage(query, filter, AnnouncementSortFields, "date", "DESC")
	if err := query.Find(&announcementModels).Error; err != nil {
		return nil, err
	}

	announcements := make([]notice.Announcement, len(announcementModels))
	for i := range announcementModels {
		announcements[i] = *announcementModels[i].ToDomain()
	}
	return announcements, nil
}

// Count counts announcements matching the filter
func (r *GormAnnouncementRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.AnnouncementModel{}), filter).Count(&count).Error
	return count, err
}

// Save creates or updates the announcement
func (r *GormAnnouncementRepository) Save(ctx context.Context, announcement *notice.Announcement) error {
	return r.db.WithContext(ctx).Save(models.AnnouncementModelFromDomain(announcement)).Error
}

// Delete removes an announcement
func (r *GormAnnouncementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AnnouncementModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormAnnouncementRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", pattern, pattern)
	}
	return query
}

var _ notice.AnnouncementRepository = (*GormAnnouncementRepository)(nil)
