package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	meteringapp "github.com/rental/backend/internal/application/metering"
	"github.com/rental/backend/internal/domain/metering"
	"github.com/rental/backend/internal/domain/shared"
)

// ReadingHandler handles meter reading HTTP requests
type ReadingHandler struct {
	BaseHandler
	readingService *meteringapp.ReadingService
}

// NewReadingHandler creates a new ReadingHandler
func NewReadingHandler(readingService *meteringapp.ReadingService) *ReadingHandler {
	return &ReadingHandler{readingService: readingService}
}

// Record creates or corrects the reading of a room for a month
// @Summary      Record meter reading
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        number path string true "Room number"
// @Param        month path string true "Reading month (YYYY-MM)"
// @Param        request body RecordReadingRequest true "Meter value"
// @Success      200 {object} dto.Response{data=ReadingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms/{number}/readings/{month} [put]
func (h *ReadingHandler) Record(c *gin.Context) {
	var req RecordReadingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	reading, err := h.readingService.Record(c.Request.Context(), meteringapp.RecordReadingInput{
		RoomNumber: c.Param("number"),
		Month:      c.Param("month"),
		Value:      *req.Value,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toReadingResponse(reading))
}

// RecordBatch saves many readings at once
// @Summary      Record meter readings in batch
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        request body RecordBatchRequest true "Readings"
// @Success      200 {object} dto.Response{data=meteringapp.BatchResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /readings/batch [post]
func (h *ReadingHandler) RecordBatch(c *gin.Context) {
	var req RecordBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input := meteringapp.RecordBatchInput{
		Readings: make([]meteringapp.RecordReadingInput, len(req.Readings)),
		Source:   meteringapp.SourceBatch,
	}
	for i, r := range req.Readings {
		input.Readings[i] = meteringapp.RecordReadingInput{
			RoomNumber: r.RoomNumber,
			Month:      r.Month,
			Value:      *r.Value,
		}
	}

	result, err := h.readingService.RecordBatch(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Get returns the reading of a room for a month
// @Summary      Get meter reading
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        number path string true "Room number"
// @Param        month path string true "Reading month (YYYY-MM)"
// @Success      200 {object} dto.Response{data=ReadingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms/{number}/readings/{month} [get]
func (h *ReadingHandler) Get(c *gin.Context) {
	reading, err := h.readingService.Get(c.Request.Context(), c.Param("number"), c.Param("month"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReadingResponse(reading))
}

// ListForMonth returns every reading of a month
// @Summary      List readings of a month
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        month path string true "Reading month (YYYY-MM)"
// @Success      200 {object} dto.Response{data=[]ReadingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /readings/{month} [get]
func (h *ReadingHandler) ListForMonth(c *gin.Context) {
	list, err := h.readingService.ListForMonth(c.Request.Context(), c.Param("month"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReadingResponses(list))
}

// List returns a page of readings filtered by room and month range
// @Summary      List meter readings
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        room query string false "Room number"
// @Param        from query string false "First month (YYYY-MM)"
// @Param        to query string false "Last month (YYYY-MM)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]ReadingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /readings [get]
func (h *ReadingHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := metering.ReadingFilter{
		Filter: shared.Filter{
			Page:     page,
			PageSize: pageSize,
		},
		RoomNumber: c.Query("room"),
	}
	for param, target := range map[string]*metering.Month{"from": &filter.FromMonth, "to": &filter.ToMonth} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		m, err := metering.ParseMonth(raw)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		*target = m
	}

	result, err := h.readingService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toReadingResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// History returns the readings of a room, newest first
// @Summary      Get room reading history
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        number path string true "Room number"
// @Success      200 {object} dto.Response{data=[]ReadingResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms/{number}/readings [get]
func (h *ReadingHandler) History(c *gin.Context) {
	list, err := h.readingService.History(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toReadingResponses(list))
}

// LastTwo returns the two latest readings of a room and the usage between them
// @Summary      Get last two readings
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        number path string true "Room number"
// @Success      200 {object} dto.Response{data=LastTwoResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms/{number}/readings/last-two [get]
func (h *ReadingHandler) LastTwo(c *gin.Context) {
	result, err := h.readingService.LastTwo(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toLastTwoResponse(result))
}

// Delete removes a reading
// @Summary      Delete meter reading
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        number path string true "Room number"
// @Param        month path string true "Reading month (YYYY-MM)"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms/{number}/readings/{month} [delete]
func (h *ReadingHandler) Delete(c *gin.Context) {
	if err := h.readingService.Delete(c.Request.Context(), c.Param("number"), c.Param("month")); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
