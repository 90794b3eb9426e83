// Package auth issues and verifies the HS256 token pairs handed out at login
// and keeps the revocation list consulted on every authenticated request.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/infrastructure/config"
)

// TokenType separates access from refresh tokens inside the claims
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidTokenType   = errors.New("invalid token type")
	ErrInvalidClaims      = errors.New("invalid token claims")
	ErrTokenNotYetValid   = errors.New("token is not yet valid")
	ErrMaxRefreshExceeded = errors.New("maximum refresh count exceeded")
	ErrTokenBlacklisted   = errors.New("token has been revoked")
)

// Claims carry the whole session so neither middleware nor refresh needs a
// user lookup. LandlordCode is the tenant's binding, or the landlord's own code.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string        `json:"user_id"`
	Username     string        `json:"username"`
	Role         identity.Role `json:"role"`
	LandlordCode string        `json:"landlord_code,omitempty"`
	TokenType    TokenType     `json:"token_type"`
	RefreshCount int           `json:"refresh_count,omitempty"`
}

type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

type signingKey struct {
	secret []byte
	ttl    time.Duration
}

// JWTService signs both token kinds. The refresh kind falls back to the
// access secret when no dedicated one is configured.
type JWTService struct {
	keys       map[TokenType]signingKey
	issuer     string
	maxRefresh int
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	refresh := cfg.RefreshSecret
	if refresh == "" {
		refresh = cfg.Secret
	}
	return &JWTService{
		keys: map[TokenType]signingKey{
			TokenTypeAccess:  {secret: []byte(cfg.Secret), ttl: cfg.AccessTokenExpiration},
			TokenTypeRefresh: {secret: []byte(refresh), ttl: cfg.RefreshTokenExpiration},
		},
		issuer:     cfg.Issuer,
		maxRefresh: cfg.MaxRefreshCount,
	}
}

// GenerateTokenInput is the identity written into a fresh pair
type GenerateTokenInput struct {
	UserID       uuid.UUID
	Username     string
	Role         identity.Role
	LandlordCode string
}

func (s *JWTService) GenerateTokenPair(input GenerateTokenInput) (*TokenPair, error) {
	return s.issuePair(input, 0)
}

func (s *JWTService) issuePair(input GenerateTokenInput, generation int) (*TokenPair, error) {
	now := time.Now()
	pair := &TokenPair{TokenType: "Bearer"}

	var err error
	if pair.AccessToken, pair.AccessTokenExpiresAt, err = s.sign(input, TokenTypeAccess, now, 0); err != nil {
		return nil, err
	}
	if pair.RefreshToken, pair.RefreshTokenExpiresAt, err = s.sign(input, TokenTypeRefresh, now, generation); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *JWTService) sign(input GenerateTokenInput, kind TokenType, now time.Time, generation int) (string, time.Time, error) {
	key := s.keys[kind]
	expires := now.Add(key.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expires),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:       input.UserID.String(),
		Username:     input.Username,
		Role:         input.Role,
		LandlordCode: input.LandlordCode,
		TokenType:    kind,
		RefreshCount: generation,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.parse(token, TokenTypeAccess)
}

func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.parse(token, TokenTypeRefresh)
}

func (s *JWTService) parse(raw string, kind TokenType) (*Claims, error) {
	secret := s.keys[kind].secret
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return nil, ErrTokenNotYetValid
	case err != nil:
		return nil, ErrInvalidToken
	}

	if claims.TokenType != kind {
		return nil, ErrInvalidTokenType
	}
	if claims.UserID == "" || !claims.Role.IsValid() {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// RefreshTokenPair rotates a refresh token. The returned claims belong to
// the consumed token so the caller can revoke it.
func (s *JWTService) RefreshTokenPair(refreshToken string) (*TokenPair, *Claims, error) {
	claims, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if s.maxRefresh > 0 && claims.RefreshCount >= s.maxRefresh {
		return nil, nil, ErrMaxRefreshExceeded
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, nil, ErrInvalidClaims
	}

	pair, err := s.issuePair(GenerateTokenInput{
		UserID:       userID,
		Username:     claims.Username,
		Role:         claims.Role,
		LandlordCode: claims.LandlordCode,
	}, claims.RefreshCount+1)
	if err != nil {
		return nil, nil, err
	}
	return pair, claims, nil
}

// GetRefreshTokenExpiration bounds how long a user-wide revocation must live
func (s *JWTService) GetRefreshTokenExpiration() time.Duration {
	return s.keys[TokenTypeRefresh].ttl
}

func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// Session is the caller identity handed to application services
func (c *Claims) Session() (identity.Session, error) {
	userID, err := c.GetUserUUID()
	if err != nil {
		return identity.Session{}, ErrInvalidClaims
	}
	return identity.Session{
		UserID:       userID,
		Username:     c.Username,
		Role:         c.Role,
		LandlordCode: c.LandlordCode,
	}, nil
}

func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// GetRemainingTTL is zero for expired or open-ended tokens
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}
