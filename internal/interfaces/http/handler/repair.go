package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	maintenanceapp "github.com/rental/backend/internal/application/maintenance"
	"github.com/rental/backend/internal/domain/maintenance"
)

// RepairHandler handles repair report HTTP requests
type RepairHandler struct {
	BaseHandler
	repairService *maintenanceapp.RepairService
}

// NewRepairHandler creates a new RepairHandler
func NewRepairHandler(repairService *maintenanceapp.RepairService) *RepairHandler {
	return &RepairHandler{repairService: repairService}
}

// Submit files a repair report
// @Summary      Submit repair report
// @Tags         repairs
// @Accept       json
// @Produce      json
// @Param        request body SubmitRepairRequest true "Repair report"
// @Success      201 {object} dto.Response{data=RepairResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /repairs [post]
func (h *RepairHandler) Submit(c *gin.Context) {
	var req SubmitRepairRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var date time.Time
	if d := parseDate(req.Date); d != nil {
		date = *d
	}

	report, err := h.repairService.Submit(c.Request.Context(), maintenanceapp.SubmitRepairInput{
		TenantName:  req.TenantName,
		RoomNumber:  req.RoomNumber,
		Issue:       req.Issue,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toRepairResponse(report))
}

// List returns a page of reports, newest first
// @Summary      List repair reports
// @Tags         repairs
// @Accept       json
// @Produce      json
// @Param        room query string false "Room number"
// @Param        status query string false "Report status"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]RepairResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /repairs [get]
func (h *RepairHandler) List(c *gin.Context) {
	page, pageSize := pageParams(c)

	result, err := h.repairService.List(c.Request.Context(), maintenanceapp.ListRepairsInput{
		RoomNumber: c.Query("room"),
		Status:     maintenance.RepairStatus(c.Query("status")),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toRepairResponses(result.Items), result.Total, result.Page, result.PageSize)
}

// Get returns one report
// @Summary      Get repair report
// @Tags         repairs
// @Accept       json
// @Produce      json
// @Param        id path string true "Report ID" format(uuid)
// @Success      200 {object} dto.Response{data=RepairResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /repairs/{id} [get]
func (h *RepairHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	report, err := h.repairService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRepairResponse(report))
}

// UpdateStatus moves a report to a new status
// @Summary      Update repair status
// @Tags         repairs
// @Accept       json
// @Produce      json
// @Param        id path string true "Report ID" format(uuid)
// @Param        request body UpdateRepairStatusRequest true "New status"
// @Success      200 {object} dto.Response{data=RepairResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /repairs/{id}/status [put]
func (h *RepairHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req UpdateRepairStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	report, err := h.repairService.UpdateStatus(c.Request.Context(), id, maintenance.RepairStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRepairResponse(report))
}

// Delete removes a report
// @Summary      Delete repair report
// @Tags         repairs
// @Accept       json
// @Produce      json
// @Param        id path string true "Report ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /repairs/{id} [delete]
func (h *RepairHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.repairService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RepairHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid repair report ID")
		return uuid.Nil, false
	}
	return id, true
}
