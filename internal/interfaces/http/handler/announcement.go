package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	noticeapp "github.com/rental/backend/internal/application/notice"
	"github.com/rental/backend/internal/domain/notice"
)

// AnnouncementRequest represents the request body for creating or editing an announcement
type AnnouncementRequest struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required,max=10000"`
	Date    string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// AnnouncementResponse represents an announcement in API responses
type AnnouncementResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAnnouncementResponse(a *notice.Announcement) AnnouncementResponse {
	return AnnouncementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		Date:      a.Date.Format(dateLayout),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (r AnnouncementRequest) input() noticeapp.AnnouncementInput {
	in := noticeapp.AnnouncementInput{Title: r.Title, Content: r.Content}
	if d := parseDate(r.Date); d != nil {
		in.Date = *d
	}
	return in
}

// AnnouncementHandler handles announcement HTTP requests
type AnnouncementHandler struct {
	BaseHandler
	announcementService *noticeapp.AnnouncementService
}

// NewAnnouncementHandler creates a new AnnouncementHandler
func NewAnnouncementHandler(announcementService *noticeapp.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

// Create posts an announcement
// @Summary      Create announcement
// @Tags         announcements
// @Accept       json
// @Produce      json
// @Param        request body AnnouncementRequest true "Announcement"
// @Success      201 {object} dto.Response{data=AnnouncementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req AnnouncementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	a, err := h.announcementService.Create(c.Request.Context(), req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toAnnouncementResponse(a))
}

// Update edits an announcement
// @Summary      Update announcement
// @Tags         announcements
// @Accept       json
// @Produce      json
// @Param        id path string true "Announcement ID" format(uuid)
// @Param        request body AnnouncementRequest true "Announcement"
// @Success      200 {object} dto.Response{data=AnnouncementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req AnnouncementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	a, err := h.announcementService.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAnnouncementResponse(a))
}

// Get returns one announcement
// @Summary      Get announcement
// @Tags         announcements
// @Accept       json
// @Produce      json
// @Param        id path string true "Announcement ID" format(uuid)
// @Success      200 {object} dto.Response{data=AnnouncementResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	a, err := h.announcementService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toAnnouncementResponse(a))
}

// List returns a page of announcements, newest first
// @Summary      List announcements
// @Tags         announcements
// @Accept       json
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]AnnouncementResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	result, err := h.announcementService.List(c.Request.Context(), page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	items := make([]AnnouncementResponse, len(result.Items))
	for i := range result.Items {
		items[i] = toAnnouncementResponse(&result.Items[i])
	}
	h.SuccessWithMeta(c, items, result.Total, result.Page, result.PageSize)
}

// Delete removes an announcement
// @Summary      Delete announcement
// @Tags         announcements
// @Accept       json
// @Produce      json
// @Param        id path string true "Announcement ID" format(uuid)
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.announcementService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AnnouncementHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid announcement ID")
		return uuid.Nil, false
	}
	return id, true
}
