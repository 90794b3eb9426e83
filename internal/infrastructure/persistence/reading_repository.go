package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/metering"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// readingConflict is the natural key of a reading
var readingConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "room_number"}, {Name: "month"}},
	DoUpdates: clause.AssignmentColumns([]string{"value", "version", "updated_at"}),
}

// GormReadingRepository implements metering.ReadingRepository using GORM
type GormReadingRepository struct {
	db *gorm.DB
}

// NewGormReadingRepository creates a new GormReadingRepository
func NewGormReadingRepository(db *gorm.DB) *GormReadingRepository {
	return &GormReadingRepository{db: db}
}

// Find returns the reading for (roomNumber, month)
func (r *GormReadingRepository) Find(ctx context.Context, roomNumber string, month metering.Month) (*metering.MeterReading, error) {
	return r.first(r.db.WithContext(ctx).
		Where("room_number = ? AND month = ?", roomNumber, month.String()))
}

// FindByID finds a reading by ID
func (r *GormReadingRepository) FindByID(ctx context.Context, id uuid.UUID) (*metering.MeterReading, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindLatestBefore returns the most recent reading strictly before month.
// "YYYY-MM" strings order the same way as the months they name.
func (r *GormReadingRepository) FindLatestBefore(ctx context.Context, roomNumber string, month metering.Month) (*metering.MeterReading, error) {
	return r.first(r.db.WithContext(ctx).
		Where("room_number = ? AND month < ?", roomNumber, month.String()).
		Order("month DESC"))
}

// FindLastTwo returns up to two most recent readings, newest first
func (r *GormReadingRepository) FindLastTwo(ctx context.Context, roomNumber string) ([]metering.MeterReading, error) {
	return r.find(r.db.WithContext(ctx).
		Where("room_number = ?", roomNumber).
		Order("month DESC").
		Limit(2))
}

// FindByMonth returns every reading of a month, ordered by room
func (r *GormReadingRepository) FindByMonth(ctx context.Context, month metering.Month) ([]metering.MeterReading, error) {
	return r.find(r.db.WithContext(ctx).
		Where("month = ?", month.String()).
		Order("room_number ASC"))
}

// FindByRoom returns the room's history, newest first
func (r *GormReadingRepository) FindByRoom(ctx context.Context, roomNumber string) ([]metering.MeterReading, error) {
	return r.find(r.db.WithContext(ctx).
		Where("room_number = ?", roomNumber).
		Order("month DESC"))
}

// FindUpTo returns every reading with month <= upTo in a single query
func (r *GormReadingRepository) FindUpTo(ctx context.Context, upTo metering.Month) ([]metering.MeterReading, error) {
	return r.find(r.db.WithContext(ctx).
		Where("month <= ?", upTo.String()).
		Order("room_number ASC").
		Order("month ASC"))
}

// FindAll lists readings matching the filter
func (r *GormReadingRepository) FindAll(ctx context.Context, filter metering.ReadingFilter) ([]metering.MeterReading, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.MeterReadingModel{}), filter)
	return r.find(applyPage(query, filter.Filter, ReadingSortFields, "month", "DESC"))
}

// Count counts readings matching the filter
func (r *GormReadingRepository) Count(ctx context.Context, filter metering.ReadingFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.MeterReadingModel{}), filter).Count(&count).Error
	return count, err
}

// Save upserts on (room_number, month)
func (r *GormReadingRepository) Save(ctx context.Context, reading *metering.MeterReading) error {
	model := models.MeterReadingModelFromDomain(reading)
	return r.db.WithContext(ctx).Clauses(readingConflict).Create(model).Error
}

// SaveBatch upserts all readings in one transaction
func (r *GormReadingRepository) SaveBatch(ctx context.Context, readings []*metering.MeterReading) error {
	if len(readings) == 0 {
		return nil
	}
	readingModels := make([]*models.MeterReadingModel, len(readings))
	for i, reading := range readings {
		readingModels[i] = models.MeterReadingModelFromDomain(reading)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(readingConflict).CreateInBatches(readingModels, 200).Error
	})
}

// Delete removes the reading for (roomNumber, month)
func (r *GormReadingRepository) Delete(ctx context.Context, roomNumber string, month metering.Month) error {
	result := r.db.WithContext(ctx).
		Where("room_number = ? AND month = ?", roomNumber, month.String()).
		Delete(&models.MeterReadingModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormReadingRepository) applyFilter(query *gorm.DB, filter metering.ReadingFilter) *gorm.DB {
	if filter.RoomNumber != "" {
		query = query.Where("room_number = ?", filter.RoomNumber)
	}
	if filter.FromMonth != "" {
		query = query.Where("month >= ?", filter.FromMonth.String())
	}
	if filter.ToMonth != "" {
		query = query.Where("month <= ?", filter.ToMonth.String())
	}
	return query
}

func (r *GormReadingRepository) first(query *gorm.DB) (*metering.MeterReading, error) {
	var model models.MeterReadingModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func (r *GormReadingRepository) find(query *gorm.DB) ([]metering.MeterReading, error) {
	var readingModels []models.MeterReadingModel
	if err := query.Find(&readingModels).Error; err != nil {
		return nil, err
	}
	readings := make([]metering.MeterReading, len(readingModels))
	for i := range readingModels {
		readings[i] = *readingModels[i].ToDomain()
	}
	return readings, nil
}

var _ metering.ReadingRepository = (*GormReadingRepository)(nil)
