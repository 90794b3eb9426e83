package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// landlordCodeAttempts bounds retries on landlord code collisions
const landlordCodeAttempts = 3

var (
	errBadCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid username or password")
	errUserNotFound   = shared.NewDomainError("USER_NOT_FOUND", "User not found")
	errTokenRevoked   = shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	errTokenInvalid   = shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
)

func internalError(msg string) error {
	return shared.NewDomainError("INTERNAL_ERROR", msg)
}

// AuthService owns accounts and their token sessions
type AuthService struct {
	users     identity.UserRepository
	tokens    *auth.JWTService
	blacklist auth.TokenBlacklist
	events    shared.EventPublisher
	log       *zap.Logger
}

// NewAuthService wires the service. blacklist and events are optional.
func NewAuthService(
	users identity.UserRepository,
	tokens *auth.JWTService,
	blacklist auth.TokenBlacklist,
	events shared.EventPublisher,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{users: users, tokens: tokens, blacklist: blacklist, events: events, log: log}
}

// Register creates a landlord or tenant account. A landlord gets a fresh
// landlord code; a tenant may bind to an existing one.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*UserInfo, error) {
	name := identity.NormalizeUsername(in.Username)
	log := s.log.With(zap.String("username", name), zap.String("role", string(in.Role)))

	switch {
	case in.Password != in.ConfirmPassword:
		return nil, shared.NewDomainError("PASSWORD_MISMATCH", "Passwords do not match")
	case !in.Role.IsValid():
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be tenant or landlord")
	}

	taken, err := s.users.ExistsByUsername(ctx, name)
	if err != nil {
		log.Error("Username lookup failed", zap.Error(err))
		return nil, internalError("Failed to check username")
	}
	if taken {
		return nil, shared.NewDomainError("USERNAME_TAKEN", "Username already exists")
	}

	var user *identity.User
	if in.Role == identity.RoleLandlord {
		user, err = s.newLandlord(ctx, name, in.Password)
	} else {
		user, err = s.newTenant(ctx, name, in.Password, in.LandlordCode)
	}
	if err != nil {
		return nil, err
	}
	if err = user.SetContact(in.Phone, in.IDNumber); err != nil {
		return nil, err
	}
	if err = s.users.Save(ctx, user); err != nil {
		log.Error("Saving new account failed", zap.Error(err))
		return nil, internalError("Failed to create account")
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, user.GetDomainEvents()...); err != nil {
			log.Warn("Account events not published", zap.Error(err))
		}
		user.ClearDomainEvents()
	}

	log.Info("Account registered", zap.Stringer("user_id", user.ID))
	info := toUserInfo(user)
	return &info, nil
}

func (s *AuthService) newLandlord(ctx context.Context, name, password string) (*identity.User, error) {
	for range landlordCodeAttempts {
		user, err := identity.NewLandlord(name, password)
		if err != nil {
			return nil, err
		}
		taken, err := s.users.ExistsLandlordCode(ctx, user.LandlordCode)
		if err != nil {
			s.log.Error("Landlord code lookup failed", zap.Error(err))
			return nil, internalError("Failed to generate landlord code")
		}
		if !taken {
			return user, nil
		}
		s.log.Warn("Landlord code collision", zap.String("code", user.LandlordCode))
	}
	return nil, internalError("Failed to generate a unique landlord code")
}

func (s *AuthService) newTenant(ctx context.Context, name, password, code string) (*identity.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return identity.NewTenant(name, password, "")
	}
	found, err := s.users.ExistsLandlordCode(ctx, code)
	if err != nil {
		s.log.Error("Landlord code lookup failed", zap.Error(err))
		return nil, internalError("Failed to check landlord code")
	}
	if !found {
		return nil, shared.NewDomainError("LANDLORD_NOT_FOUND", "No landlord holds this landlord code")
	}
	return identity.NewTenant(name, password, code)
}

// Login checks the password and issues a token pair. Unknown users and bad
// passwords get the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	name := identity.NormalizeUsername(in.Username)
	log := s.log.With(zap.String("username", name), zap.String("ip", in.IP))

	user, err := s.users.FindByUsername(ctx, name)
	if err != nil || !user.VerifyPassword(in.Password) {
		log.Warn("Login rejected")
		return nil, errBadCredentials
	}

	pair, err := s.tokens.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		LandlordCode: user.LandlordCode,
	})
	if err != nil {
		log.Error("Token signing failed", zap.Error(err))
		return nil, internalError("Failed to generate authentication tokens")
	}

	user.RecordLogin()
	if err := s.users.Save(ctx, user); err != nil {
		// the session is still valid
		log.Error("Recording login time failed", zap.Error(err))
	}

	log.Info("Logged in", zap.Stringer("user_id", user.ID))
	return &LoginResult{TokenPair: *pair, User: toUserInfo(user)}, nil
}

// RefreshToken rotates a refresh token: the presented one is revoked once
// the new pair is signed.
func (s *AuthService) RefreshToken(ctx context.Context, in RefreshTokenInput) (*auth.TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(in.RefreshToken)
	if err != nil {
		s.log.Warn("Refresh token rejected", zap.Error(err))
		return nil, tokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, errTokenInvalid
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, errUserNotFound
	}

	pair, _, err := s.tokens.RefreshTokenPair(in.RefreshToken)
	if err != nil {
		return nil, tokenError(err)
	}
	if s.blacklist != nil && claims.ID != "" {
		if err := s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
			s.log.Error("Revoking rotated refresh token failed", zap.Error(err))
		}
	}

	s.log.Debug("Token pair rotated", zap.Stringer("user_id", userID))
	return pair, nil
}

// Logout revokes the access token and, if given, the caller's refresh token
func (s *AuthService) Logout(ctx context.Context, in LogoutInput) error {
	if s.blacklist == nil {
		return nil
	}
	log := s.log.With(zap.Stringer("user_id", in.UserID))

	if in.TokenJTI != "" && in.TokenTTL > 0 {
		if err := s.blacklist.Revoke(ctx, in.TokenJTI, in.TokenTTL); err != nil {
			log.Error("Revoking access token failed", zap.Error(err))
			return internalError("Failed to log out")
		}
	}
	if in.RefreshToken == "" {
		return nil
	}

	claims, err := s.tokens.ValidateRefreshToken(in.RefreshToken)
	if err != nil {
		return nil // expired or malformed, nothing to revoke
	}
	if claims.UserID != in.UserID.String() {
		return shared.NewDomainError("TOKEN_INVALID", "Refresh token belongs to another user")
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		log.Error("Revoking refresh token failed", zap.Error(err))
		return internalError("Failed to log out")
	}
	log.Info("Logged out")
	return nil
}

func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, errUserNotFound
	}
	info := toUserInfo(user)
	return &info, nil
}

// ChangePassword replaces the password and revokes every token issued
// before now.
func (s *AuthService) ChangePassword(ctx context.Context, in ChangePasswordInput) error {
	user, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return errUserNotFound
	}
	if err := user.ChangePassword(in.OldPassword, in.NewPassword); err != nil {
		return err
	}
	if err := s.users.Save(ctx, user); err != nil {
		s.log.Error("Saving new password failed", zap.Error(err))
		return internalError("Failed to update password")
	}

	if s.blacklist != nil {
		err := s.blacklist.RevokeUser(ctx, user.ID.String(), s.tokens.GetRefreshTokenExpiration())
		if err != nil {
			s.log.Error("Revoking older sessions failed", zap.Error(err))
		}
	}
	s.log.Info("Password changed", zap.Stringer("user_id", in.UserID))
	return nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil {
		return nil
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err == nil && !revoked {
		revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
	}
	switch {
	case err != nil:
		s.log.Error("Blacklist lookup failed", zap.Error(err))
		return internalError("Failed to validate token")
	case revoked:
		return errTokenRevoked
	}
	return nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		return errTokenInvalid
	}
	return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
}
