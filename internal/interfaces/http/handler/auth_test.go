package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appidentity "github.com/rental/backend/internal/application/identity"
	"github.com/rental/backend/internal/infrastructure/auth"
	"github.com/rental/backend/internal/infrastructure/config"
	"github.com/rental/backend/internal/infrastructure/persistence"
	"github.com/rental/backend/internal/interfaces/http/dto"
	"github.com/rental/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authEngine(t *testing.T) *gin.Engine {
	t.Helper()

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "handler-test-secret-at-least-32-chars",
		RefreshSecret:          "handler-test-refresh-secret-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 24 * time.Hour,
		Issuer:                 "rental-test",
		MaxRefreshCount:        5,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	users := persistence.NewGormUserRepository(newTestDB(t))
	h := NewAuthHandler(appidentity.NewAuthService(users, jwtService, blacklist, nil, nil))

	engine := newEngine(nil)
	engine.POST("/auth/register", h.Register)
	engine.POST("/auth/login", h.Login)
	engine.POST("/auth/refresh", h.RefreshToken)

	protected := engine.Group("/auth", middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
	}))
	protected.GET("/me", h.GetCurrentUser)
	protected.POST("/logout", h.Logout)
	protected.PUT("/password", h.ChangePassword)
	return engine
}

func withBearer(engine http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	return doJSONWithHeader(engine, method, path, body, map[string]string{"Authorization": "Bearer " + token})
}

func doJSONWithHeader(engine http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range headers {
			r.Header.Set(k, v)
		}
		engine.ServeHTTP(w, r)
	})
	return doJSON(wrapped, method, path, body)
}

func registerUser(t *testing.T, engine http.Handler, req RegisterRequest) UserResponse {
	t.Helper()
	w := doJSON(engine, http.MethodPost, "/auth/register", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var user UserResponse
	decodeData(t, w, &user)
	return user
}

func login(t *testing.T, engine http.Handler, username, password string) LoginResponse {
	t.Helper()
	w := doJSON(engine, http.MethodPost, "/auth/login", LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp LoginResponse
	decodeData(t, w, &resp)
	return resp
}

func TestAuthHandler_Register(t *testing.T) {
	engine := authEngine(t)

	owner := registerUser(t, engine, RegisterRequest{
		Username: "alice", Password: "secret123", ConfirmPassword: "secret123", Role: "landlord",
	})
	assert.Equal(t, "landlord", owner.Role)
	assert.NotEmpty(t, owner.LandlordCode)

	renter := registerUser(t, engine, RegisterRequest{
		Username: "bob", Password: "secret123", ConfirmPassword: "secret123", Role: "tenant",
		Phone: "13800000000", LandlordCode: owner.LandlordCode,
	})
	assert.Equal(t, "tenant", renter.Role)
	assert.Equal(t, owner.LandlordCode, renter.LandlordCode)
	assert.Equal(t, "13800000000", renter.Phone)

	t.Run("duplicate username", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/auth/register", RegisterRequest{
			Username: "alice", Password: "secret123", ConfirmPassword: "secret123", Role: "landlord",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAlreadyExists, decodeError(t, w).Code)
	})

	t.Run("unknown landlord code", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/auth/register", RegisterRequest{
			Username: "carol", Password: "secret123", ConfirmPassword: "secret123", Role: "tenant",
			LandlordCode: "ZZZZ9999",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("password mismatch", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/auth/register", RegisterRequest{
			Username: "dave", Password: "secret123", ConfirmPassword: "secret124", Role: "tenant",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, decodeError(t, w).Code)
	})

	t.Run("unknown role", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/auth/register", RegisterRequest{
			Username: "erin", Password: "secret123", ConfirmPassword: "secret123", Role: "admin",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		errInfo := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
		require.Len(t, errInfo.Details, 1)
		assert.Equal(t, "role", errInfo.Details[0].Field)
	})
}

func TestAuthHandler_LoginAndSession(t *testing.T) {
	engine := authEngine(t)
	registerUser(t, engine, RegisterRequest{
		Username: "alice", Password: "secret123", ConfirmPassword: "secret123", Role: "landlord",
	})

	t.Run("wrong password", func(t *testing.T) {
		w := doJSON(engine, http.MethodPost, "/auth/login", LoginRequest{Username: "alice", Password: "nope123"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, decodeError(t, w).Code)
	})

	session := login(t, engine, "alice", "secret123")
	assert.Equal(t, "Bearer", session.Token.TokenType)
	assert.Equal(t, "alice", session.User.Username)

	w := withBearer(engine, http.MethodGet, "/auth/me", session.Token.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var me UserResponse
	decodeData(t, w, &me)
	assert.Equal(t, session.User.ID, me.ID)
	assert.NotNil(t, me.LastLoginAt)

	w = doJSON(engine, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_RefreshRotatesToken(t *testing.T) {
	engine := authEngine(t)
	registerUser(t, engine, RegisterRequest{
		Username: "alice", Password: "secret123", ConfirmPassword: "secret123", Role: "landlord",
	})
	session := login(t, engine, "alice", "secret123")

	w := doJSON(engine, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: session.Token.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var refreshed RefreshTokenResponse
	decodeData(t, w, &refreshed)
	assert.NotEmpty(t, refreshed.Token.AccessToken)

	// a used refresh token is revoked
	w = doJSON(engine, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: session.Token.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decodeError(t, w).Code)

	w = doJSON(engine, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: "not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	engine := authEngine(t)
	registerUser(t, engine, RegisterRequest{
		Username: "alice", Password: "secret123", ConfirmPassword: "secret123", Role: "landlord",
	})
	session := login(t, engine, "alice", "secret123")

	w := withBearer(engine, http.MethodPost, "/auth/logout", session.Token.AccessToken,
		LogoutRequest{RefreshToken: session.Token.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = withBearer(engine, http.MethodGet, "/auth/me", session.Token.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, decodeError(t, w).Code)

	w = doJSON(engine, http.MethodPost, "/auth/refresh", RefreshTokenRequest{RefreshToken: session.Token.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	engine := authEngine(t)
	registerUser(t, engine, RegisterRequest{
		Username: "alice", Password: "secret123", ConfirmPassword: "secret123", Role: "landlord",
	})
	session := login(t, engine, "alice", "secret123")

	w := withBearer(engine, http.MethodPut, "/auth/password", session.Token.AccessToken,
		ChangePasswordRequest{OldPassword: "wrong-old", NewPassword: "another456"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = withBearer(engine, http.MethodPut, "/auth/password", session.Token.AccessToken,
		ChangePasswordRequest{OldPassword: "secret123", NewPassword: "another456"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(engine, http.MethodPost, "/auth/login", LoginRequest{Username: "alice", Password: "secret123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	login(t, engine, "alice", "another456")
}
