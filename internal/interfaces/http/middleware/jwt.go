package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/infrastructure/auth"
	"github.com/rental/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// gin context keys set after a successful authentication
const (
	JWTClaimsKey       = "jwt_claims"
	JWTUserIDKey       = "jwt_user_id"
	JWTUsernameKey     = "jwt_username"
	JWTRoleKey         = "jwt_role"
	JWTLandlordCodeKey = "jwt_landlord_code"

	bearerPrefix     = "Bearer "
	queryTokenParam  = "access_token"
	defaultAuthError = "Authentication required"
)

type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional. Lookup failures let the request through.
	TokenBlacklist   auth.TokenBlacklist
	SkipPaths        []string
	SkipPathPrefixes []string
	// QueryTokenPaths accept ?access_token= because EventSource cannot send headers
	QueryTokenPaths []string
	OnError         func(c *gin.Context, err error)
	Logger          *zap.Logger
}

// DefaultJWTConfig leaves the public auth endpoints, probes and served
// files open and lets only the billing stream authenticate by query.
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/metrics",
			"/api/v1/health",
			"/api/v1/auth/register",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
		SkipPathPrefixes: []string{"/files/"},
		QueryTokenPaths:  []string{"/api/v1/billing/stream"},
		Logger:           zap.NewNop(),
	}
}

func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// authFailure pairs the cause with the message shown to the client
type authFailure struct {
	err error
	msg string
}

// JWTAuthMiddlewareWithConfig validates the bearer token and stores the
// caller's identity.Session on the request context.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	skipped := func(path string) bool {
		return slices.Contains(cfg.SkipPaths, path) ||
			slices.ContainsFunc(cfg.SkipPathPrefixes, func(p string) bool { return strings.HasPrefix(path, p) })
	}

	return func(c *gin.Context) {
		if skipped(c.Request.URL.Path) {
			c.Next()
			return
		}

		raw, fail := bearerToken(c, cfg.QueryTokenPaths)
		if fail != nil {
			rejectAuth(c, cfg, *fail)
			return
		}
		claims, err := cfg.JWTService.ValidateAccessToken(raw)
		if err != nil {
			rejectAuth(c, cfg, authFailure{err: err})
			return
		}
		if fail := checkRevoked(c, cfg, claims); fail != nil {
			rejectAuth(c, cfg, *fail)
			return
		}
		session, err := claims.Session()
		if err != nil {
			rejectAuth(c, cfg, authFailure{err: err, msg: "Invalid token claims"})
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTUsernameKey, claims.Username)
		c.Set(JWTRoleKey, string(claims.Role))
		c.Set(JWTLandlordCodeKey, claims.LandlordCode)

		ctx := identity.WithSession(c.Request.Context(), session)
		c.Request = c.Request.WithContext(logger.WithUserID(ctx, claims.UserID))
		c.Next()
	}
}

func bearerToken(c *gin.Context, queryPaths []string) (string, *authFailure) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if slices.Contains(queryPaths, c.Request.URL.Path) {
			if token := c.Query(queryTokenParam); token != "" {
				return token, nil
			}
		}
		return "", &authFailure{auth.ErrInvalidToken, "Missing authorization header"}
	}
	token, ok := strings.CutPrefix(header, bearerPrefix)
	switch {
	case !ok:
		return "", &authFailure{auth.ErrInvalidToken, "Invalid authorization header format"}
	case token == "":
		return "", &authFailure{auth.ErrInvalidToken, "Missing token"}
	}
	return token, nil
}

// checkRevoked consults the single-token list (logout) and the per-user
// cutoff (password change). Store errors are logged and ignored.
func checkRevoked(c *gin.Context, cfg JWTMiddlewareConfig, claims *auth.Claims) *authFailure {
	if cfg.TokenBlacklist == nil {
		return nil
	}
	ctx := c.Request.Context()

	if claims.ID != "" {
		revoked, err := cfg.TokenBlacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			logger.Enrich(ctx, cfg.Logger).Error("Token blacklist lookup failed", zap.String("jti", claims.ID), zap.Error(err))
		} else if revoked {
			return &authFailure{auth.ErrTokenBlacklisted, "Token has been revoked"}
		}
	}

	revoked, err := cfg.TokenBlacklist.IsUserRevoked(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		logger.Enrich(ctx, cfg.Logger).Error("User revocation lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
	} else if revoked {
		return &authFailure{auth.ErrTokenBlacklisted, "User session has been invalidated"}
	}
	return nil
}

func rejectAuth(c *gin.Context, cfg JWTMiddlewareConfig, f authFailure) {
	if cfg.OnError != nil {
		cfg.OnError(c, f.err)
		c.Abort()
		return
	}
	cfg.Logger.Warn("JWT authentication failed",
		zap.Error(f.err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(RequestIDKey)),
	)

	code, msg := "ERR_UNAUTHORIZED", defaultAuthError
	switch {
	case errors.Is(f.err, auth.ErrExpiredToken):
		code, msg = "ERR_TOKEN_EXPIRED", "Token has expired"
	case errors.Is(f.err, auth.ErrTokenBlacklisted):
		code, msg = "ERR_TOKEN_REVOKED", f.msg
	case errors.Is(f.err, auth.ErrInvalidToken), errors.Is(f.err, auth.ErrInvalidTokenType),
		errors.Is(f.err, auth.ErrTokenNotYetValid), errors.Is(f.err, auth.ErrInvalidClaims):
		code, msg = "ERR_TOKEN_INVALID", "Invalid token"
		if f.msg != "" {
			msg = f.msg
		}
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":       code,
			"message":    msg,
			"request_id": c.GetString(RequestIDKey),
		},
	})
}

// GetJWTClaims is nil outside authenticated routes
func GetJWTClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Value(JWTClaimsKey).(*auth.Claims)
	return claims
}

func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

func GetJWTRole(c *gin.Context) string {
	return c.GetString(JWTRoleKey)
}
