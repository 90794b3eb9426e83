package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appidentity "github.com/rental/backend/internal/application/identity"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/interfaces/http/middleware"
)

// AuthHandler serves /auth: registration, login and token sessions
type AuthHandler struct {
	BaseHandler
	svc *appidentity.AuthService
}

func NewAuthHandler(svc *appidentity.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register godoc
// @Summary      Register a user
// @Description  Create a landlord or tenant account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      201 {object} dto.Response{data=UserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}
	user, err := h.svc.Register(c.Request.Context(), appidentity.RegisterInput{
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            identity.Role(req.Role),
		Phone:           req.Phone,
		IDNumber:        req.IDNumber,
		LandlordCode:    req.LandlordCode,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toUserResponse(*user))
}

// Login godoc
// @Summary      User login
// @Description  Authenticate with username and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.svc.Login(c.Request.Context(), appidentity.LoginInput{
		Username: req.Username,
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, LoginResponse{Token: toTokenResponse(res.TokenPair), User: toUserResponse(res.User)})
}

// RefreshToken rotates the refresh token
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=RefreshTokenResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}
	pair, err := h.svc.RefreshToken(c.Request.Context(), appidentity.RefreshTokenInput{RefreshToken: req.RefreshToken})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RefreshTokenResponse{Token: toTokenResponse(*pair)})
}

// Logout revokes the presented access token. The body, naming a refresh
// token to revoke too, is optional.
// @Summary      User logout
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LogoutRequest false "Refresh token to revoke"
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		h.BadRequest(c, "Invalid user ID in token")
		return
	}

	var req LogoutRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	if err := h.svc.Logout(c.Request.Context(), appidentity.LogoutInput{
		UserID:       userID,
		TokenJTI:     claims.ID,
		TokenTTL:     claims.GetRemainingTTL(),
		RefreshToken: req.RefreshToken,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: "Logged out successfully"})
}

// GetCurrentUser godoc
// @Summary      Get current user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} dto.Response{data=UserResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := h.caller(c)
	if !ok {
		return
	}
	user, err := h.svc.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(*user))
}

// ChangePassword also revokes every older session of the caller
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Password change request"
// @Success      200 {object} dto.Response{data=MessageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.caller(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), appidentity.ChangePasswordInput{
		UserID:      userID,
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageResponse{Message: "Password changed successfully"})
}

func (h *AuthHandler) caller(c *gin.Context) (uuid.UUID, bool) {
	id, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return id, true
}
