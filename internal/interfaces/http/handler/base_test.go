package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rental/backend/internal/domain/shared"
	"github.com/rental/backend/internal/interfaces/http/dto"
	"github.com/rental/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(RequestIDKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "missing",
			setup:      func(*gin.Context) {},
			expectedID: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"", 1, dto.DefaultPageSize},
		{"?page=3&page_size=50", 3, 50},
		{"?page=0&page_size=-1", 1, dto.DefaultPageSize},
		{"?page=abc", 1, dto.DefaultPageSize},
		{"?page_size=1000", 1, 200},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
			page, pageSize := pageParams(c)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPageSize, pageSize)
		})
	}
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h := &BaseHandler{}
	h.SuccessWithMeta(c, []string{"101", "102"}, 45, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerCreatedAndNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	(&BaseHandler{}).Created(c, gin.H{"number": "101"})
	assert.Equal(t, http.StatusCreated, w.Code)

	engine := gin.New()
	engine.DELETE("/x", func(c *gin.Context) { (&BaseHandler{}).NoContent(c) })
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/x", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"room not found", shared.NewDomainError("ROOM_NOT_FOUND", "Room 101 not found"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"forbidden", shared.NewDomainError("FORBIDDEN", "Only landlords can perform this action"), http.StatusForbidden, dto.ErrCodeForbidden},
		{"unauthorized", shared.ErrUnauthorized, http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"duplicate", shared.NewDomainError("ALREADY_EXISTS", "Room 101 already exists"), http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"bad month", shared.NewDomainError("INVALID_MONTH", "Month must be in YYYY-MM format"), http.StatusBadRequest, dto.ErrCodeValidationFormat},
		{"negative usage", shared.NewDomainError("INVALID_STATE", "Reading went backwards"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"tariff", fmt.Errorf("load tiers: %w", shared.NewDomainError("TARIFF_CONFIGURATION", "tiers overlap")), http.StatusInternalServerError, dto.ErrCodeTariffConfiguration},
		{"printing off", shared.NewDomainError("PRINTING_DISABLED", "Contract printing is disabled"), http.StatusServiceUnavailable, dto.ErrCodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Set(RequestIDKey, "req-1")

			(&BaseHandler{}).HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			errInfo := decodeError(t, w)
			assert.Equal(t, tt.wantCode, errInfo.Code)
			assert.Equal(t, "req-1", errInfo.RequestID)
		})
	}
}

func TestBaseHandlerHandleNonDomainError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	(&BaseHandler{}).HandleError(c, errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	errInfo := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeInternal, errInfo.Code)
	assert.Equal(t, "An unexpected error occurred", errInfo.Message)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	assert.Len(t, c.Errors, 1)
}

func TestBaseHandlerHandleNilError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	(&BaseHandler{}).HandleError(c, nil)

	assert.False(t, c.Writer.Written())
}

func TestBaseHandlerBindJSON(t *testing.T) {
	type body struct {
		Title string `json:"title" binding:"required"`
	}

	engine := newEngine(nil)
	engine.POST("/x", func(c *gin.Context) {
		var req body
		if !(&BaseHandler{}).BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusOK)
	})

	w := doJSON(engine, http.MethodPost, "/x", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errInfo := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
	require.NotEmpty(t, errInfo.Details)
	assert.Equal(t, "title", errInfo.Details[0].Field)
	assert.NotEmpty(t, errInfo.RequestID)

	w = doJSON(engine, http.MethodPost, "/x", map[string]string{"title": "Water off"})
	assert.Equal(t, http.StatusOK, w.Code)
}
