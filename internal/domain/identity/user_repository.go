package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists accounts
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// ExistsLandlordCode reports whether a landlord holds the code
	ExistsLandlordCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, user *User) error
}
