package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/infrastructure/auth"
)

// RegisterInput contains the input for account registration
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
	Role            identity.Role
	Phone           string
	IDNumber        string
	LandlordCode    string // tenants only, optional
}

// LoginInput contains the input for user login
type LoginInput struct {
	Username string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult is the issued token pair plus the account
type LoginResult struct {
	auth.TokenPair
	User UserInfo
}

// UserInfo contains basic user information returned after login
type UserInfo struct {
	ID           uuid.UUID
	Username     string
	Role         identity.Role
	LandlordCode string
	Phone        string
	IDNumber     string
	LastLoginAt  *time.Time
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID   uuid.UUID
	TokenJTI string        // JWT ID of the access token
	TokenTTL time.Duration // remaining lifetime of the access token
	// RefreshToken is revoked as well when given
	RefreshToken string
}

// ChangePasswordInput contains the input for changing a password
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

func toUserInfo(u *identity.User) UserInfo {
	return UserInfo{
		ID:           u.ID,
		Username:     u.Username,
		Role:         u.Role,
		LandlordCode: u.LandlordCode,
		Phone:        u.Phone,
		IDNumber:     u.IDNumber,
		LastLoginAt:  u.LastLoginAt,
	}
}
