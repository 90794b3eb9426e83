package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	propertyapp "github.com/rental/backend/internal/application/property"
	"github.com/rental/backend/internal/domain/property"
)

// RoomHandler handles room HTTP requests
type RoomHandler struct {
	BaseHandler
	roomService *propertyapp.RoomService
}

// NewRoomHandler creates a new RoomHandler
func NewRoomHandler(roomService *propertyapp.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// Create registers a room
// @Summary      Create room
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        request body CreateRoomRequest true "Room details"
// @Success      201 {object} dto.Response{data=RoomResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms [post]
func (h *RoomHandler) Create(c *gin.Context) {
	var req CreateRoomRequest
	if !h.BindJSON(c, &req) {
		return
	}

	room, err := h.roomService.Create(c.Request.Context(), propertyapp.CreateRoomInput{
		Number:     req.Number,
		TenantName: req.TenantName,
		RoomType:   req.RoomType,
		Note:       req.Note,
		RentAmount: req.RentAmount,
		Deposit:    req.Deposit,
		StartDate:  parseDate(req.StartDate),
		EndDate:    parseDate(req.EndDate),
		TermMonths: req.TermMonths,
		Status:     property.RoomStatus(req.Status),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toRoomResponse(room))
}

// Get returns one room
// @Summary      Get room
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        number path string true "Room number"
// @Success      200 {object} dto.Response{data=RoomResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms/{number} [get]
func (h *RoomHandler) Get(c *gin.Context) {
	room, err := h.roomService.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRoomResponse(room))
}

// List returns a page of rooms filtered by search and status
// @Summary      List rooms
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        search query string false "Search term"
// @Param        status query string false "Room status"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]RoomResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms [get]
func (h *RoomHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)

	result, err := h.roomService.List(c.Request.Context(), propertyapp.ListRoomsInput{
		Search:   c.Query("search"),
		Status:   property.RoomStatus(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, toRoomResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// Update replaces the mutable attributes of a room
// @Summary      Update room
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        number path string true "Room number"
// @Param        request body UpdateRoomRequest true "Room details"
// @Success      200 {object} dto.Response{data=RoomResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms/{number} [put]
func (h *RoomHandler) Update(c *gin.Context) {
	var req UpdateRoomRequest
	if !h.BindJSON(c, &req) {
		return
	}

	room, err := h.roomService.Update(c.Request.Context(), c.Param("number"), propertyapp.UpdateRoomInput{
		TenantName: req.TenantName,
		RoomType:   req.RoomType,
		Note:       req.Note,
		RentAmount: req.RentAmount,
		Deposit:    req.Deposit,
		StartDate:  parseDate(req.StartDate),
		EndDate:    parseDate(req.EndDate),
		TermMonths: req.TermMonths,
		Status:     property.RoomStatus(req.Status),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toRoomResponse(room))
}

// Vacate ends the current lease of a room
// @Summary      Vacate room
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        number path string true "Room number"
// @Success      200 {object} dto.Response{data=RoomResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms/{number}/vacate [post]
func (h *RoomHandler) Vacate(c *gin.Context) {
	room, err := h.roomService.Vacate(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRoomResponse(room))
}

// Delete removes a room
// @Summary      Delete room
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        number path string true "Room number"
// @Success      204
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms/{number} [delete]
func (h *RoomHandler) Delete(c *gin.Context) {
	if err := h.roomService.Delete(c.Request.Context(), c.Param("number")); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
