package persistence

import (
	"context"
	"errors"

	"github.com/rental/backend/internal/domain/property"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// roomUpsertColumns are overwritten when a room number already exists
var roomUpsertColumns = []string{
	"tenant_name", "room_type", "note", "rent_amount", "deposit", "status",
	"rent_start_date", "rent_end_date", "landlord_code", "version", "updated_at",
}

// GormRoomRepository implements property.RoomRepository using GORM
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GormRoomRepository
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// FindByNumber finds a room by its number
func (r *GormRoomRepository) FindByNumber(ctx context.Context, number string) (*property.Room, error) {
	var model models.RoomModel
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists rooms, ordered by number unless the filter says otherwise
func (r *GormRoomRepository) FindAll(ctx context.Context, filter property.RoomFilter) ([]property.Room, error) {
	var roomModels []models.RoomModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RoomModel{}), filter)
	query = applyPage(query, filter.Filter, RoomSortFields, "number", "ASC")
	if err := query.Find(&roomModels).Error; err != nil {
		return nil, err
	}

	rooms := make([]property.Room, len(roomModels))
	for i := range roomModels {
		rooms[i] = *roomModels[i].ToDomain()
	}
	return rooms, nil
}

// FindAllNumbers returns every registered room number, sorted
func (r *GormRoomRepository) FindAllNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&models.RoomModel{}).
		Order("number ASC").
		Pluck("number", &numbers).Error
	if err != nil {
		return nil, err
	}
	return numbers, nil
}

// Count counts rooms matching the filter
func (r *GormRoomRepository) Count(ctx context.Context, filter property.RoomFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.RoomModel{}), filter).Count(&count).Error
	return count, err
}

// ExistsByNumber reports whether a room number is registered
func (r *GormRoomRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RoomModel{}).
		Where("number = ?", number).
		Count(&count).Error
	return count > 0, err
}

// Save inserts the room or updates the row with the same number
func (r *GormRoomRepository) Save(ctx context.Context, room *property.Room) error {
	return r.upsert(r.db.WithContext(ctx), []*property.Room{room})
}

// SaveBatch upserts rooms by number in one transaction
func (r *GormRoomRepository) SaveBatch(ctx context.Context, rooms []*property.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.upsert(tx, rooms)
	})
}

func (r *GormRoomRepository) upsert(db *gorm.DB, rooms []*property.Room) error {
	roomModels := make([]*models.RoomModel, len(rooms))
	for i, room := range rooms {
		roomModels[i] = models.RoomModelFromDomain(room)
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "number"}},
		DoUpdates: clause.AssignmentColumns(roomUpsertColumns),
	}).CreateInBatches(roomModels, 100).Error
}

// Delete removes a room. Its readings stay in place.
func (r *GormRoomRepository) Delete(ctx context.Context, number string) error {
	result := r.db.WithContext(ctx).Where("number = ?", number).Delete(&models.RoomModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormRoomRepository) applyFilter(query *gorm.DB, filter property.RoomFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.LandlordCode != "" {
		query = query.Where("landlord_code = ?", filter.LandlordCode)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(number) LIKE ? OR LOWER(tenant_name) LIKE ? OR LOWER(note) LIKE ?",
			pattern, pattern, pattern)
	}
	return query
}

var _ property.RoomRepository = (*GormRoomRepository)(nil)
