package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/interfaces/http/dto"
	"github.com/rental/backend/internal/interfaces/http/middleware"
)

// RequestIDKey is where the request id middleware stores the id
const RequestIDKey = middleware.RequestIDKey

const maxPageSize = 200

var errNoUser = errors.New("no authenticated user")

// BaseHandler carries the response helpers every handler embeds
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

func getUserID(c *gin.Context) (uuid.UUID, error) {
	raw := middleware.GetJWTUserID(c)
	if raw == "" {
		return uuid.Nil, errNoUser
	}
	return uuid.Parse(raw)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// pageParams reads page and page_size, capping the size
func pageParams(c *gin.Context) (page, size int) {
	return queryInt(c, "page", 1), min(queryInt(c, "page_size", dto.DefaultPageSize), maxPageSize)
}

// BindJSON decodes and validates the body. On failure it has already
// written the 400 response.
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, middleware.FormatValidationErrors(err, getRequestID(c)))
	}
	return err == nil
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes the error envelope with the caller's request id
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

func (h *BaseHandler) ServiceUnavailable(c *gin.Context, message string) {
	h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, message)
}

// HandleError maps a DomainError to its ERR_* code and status. Other errors
// are recorded on the context and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var de *shared.DomainError
	switch {
	case err == nil:
	case errors.As(err, &de):
		code := dto.NormalizeErrorCode(de.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, de.Message)
	default:
		_ = c.Error(err)
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
