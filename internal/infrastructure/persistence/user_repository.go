package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByUsername finds a user by username. Usernames are stored lowercase.
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	return r.first(r.db.WithContext(ctx).Where("username = ?", identity.NormalizeUsername(username)))
}

// ExistsByUsername reports whether the username is taken
func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("username = ?", identity.NormalizeUsername(username)).
		Count(&count).Error
	return count > 0, err
}

// ExistsLandlordCode reports whether a landlord holds the code
func (r *GormUserRepository) ExistsLandlordCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("role = ? AND landlord_code = ?", identity.RoleLandlord, code).
		Count(&count).Error
	return count > 0, err
}

// Save creates or updates the user
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	model := models.UserModelFromDomain(user)
	return r.db.WithContext(ctx).Save(model).Error
}

func (r *GormUserRepository) first(query *gorm.DB) (*identity.User, error) {
	var model models.UserModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ identity.UserRepository = (*GormUserRepository)(nil)
