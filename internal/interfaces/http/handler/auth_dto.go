package handler

import (
	"time"

	"github.com/google/uuid"
	appidentity "github.com/rental/backend/internal/application/identity"
	"github.com/rental/backend/internal/infrastructure/auth"
)

// RegisterRequest represents the request body for account registration
type RegisterRequest struct {
	Username        string `json:"username" binding:"required,max=50"`
	Password        string `json:"password" binding:"required,max=72"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	Role            string `json:"role" binding:"required,role"`
	Phone           string `json:"phone" binding:"max=30"`
	IDNumber        string `json:"id_number" binding:"max=30"`
	LandlordCode    string `json:"landlord_code" binding:"max=16"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=72"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally names the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,max=72"`
}

// TokenResponse represents the token data in auth responses
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// UserResponse represents an account in auth responses
type UserResponse struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Role         string     `json:"role"`
	LandlordCode string     `json:"landlord_code,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	IDNumber     string     `json:"id_number,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// LoginResponse represents the response body for successful login
type LoginResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// RefreshTokenResponse represents the response body for token refresh
type RefreshTokenResponse struct {
	Token TokenResponse `json:"token"`
}

// MessageResponse carries a human readable confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

func toTokenResponse(p auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:           p.AccessToken,
		RefreshToken:          p.RefreshToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
		TokenType:             p.TokenType,
	}
}

func toUserResponse(u appidentity.UserInfo) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Role:         string(u.Role),
		LandlordCode: u.LandlordCode,
		Phone:        u.Phone,
		IDNumber:     u.IDNumber,
		LastLoginAt:  u.LastLoginAt,
	}
}
