package handler

import (
	"context"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rental/backend/internal/application/transfer"
	"github.com/rental/backend/internal/interfaces/http/dto"
)

// maxImportFileSize bounds uploaded sheets
const maxImportFileSize = 10 << 20

type importFunc func(ctx context.Context, r io.Reader, filename string) (*transfer.ImportResult, error)

// TransferHandler imports and exports room and meter sheets
type TransferHandler struct {
	BaseHandler
	transferService *transfer.Service
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transferService *transfer.Service) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// ImportRooms upserts the rooms of an uploaded .xlsx or .csv sheet
// @Summary      Import rooms
// @Tags         transfer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true ".xlsx or .csv sheet"
// @Success      200 {object} dto.Response{data=transfer.ImportResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/rooms [post]
func (h *TransferHandler) ImportRooms(c *gin.Context) {
	h.importSheet(c, h.transferService.ImportRooms)
}

// ImportReadings upserts the readings of an uploaded .xlsx or .csv sheet
// @Summary      Import readings
// @Tags         transfer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true ".xlsx or .csv sheet"
// @Success      200 {object} dto.Response{data=transfer.ImportResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/readings [post]
func (h *TransferHandler) ImportReadings(c *gin.Context) {
	h.importSheet(c, h.transferService.ImportReadings)
}

func (h *TransferHandler) importSheet(c *gin.Context, run importFunc) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "file exceeds maximum size of 10MB")
		return
	}

	result, err := run(c.Request.Context(), file, header.Filename)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ExportRooms downloads every room as a workbook
// @Summary      Export rooms
// @Tags         transfer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} binary
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /export/rooms [get]
func (h *TransferHandler) ExportRooms(c *gin.Context) {
	h.download(c)(h.transferService.ExportRooms(c.Request.Context()))
}

// ExportReadings downloads the readings of ?month=, or all readings
// @Summary      Export readings
// @Tags         transfer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        month query string false "Reading month (YYYY-MM)"
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /export/readings [get]
func (h *TransferHandler) ExportReadings(c *gin.Context) {
	h.download(c)(h.transferService.ExportReadings(c.Request.Context(), c.Query("month")))
}

// ExportBilling downloads the billing result of a month
// @Summary      Export monthly billing
// @Tags         transfer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        month path string true "Billing month (YYYY-MM)"
// @Success      200 {file} binary
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /billing/{month}/export [get]
func (h *TransferHandler) ExportBilling(c *gin.Context) {
	h.download(c)(h.transferService.ExportBilling(c.Request.Context(), c.Param("month")))
}

// RoomTemplate downloads the room sheet template
// @Summary      Download room sheet template
// @Tags         transfer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} binary
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /templates/rooms [get]
func (h *TransferHandler) RoomTemplate(c *gin.Context) {
	h.download(c)(h.transferService.RoomTemplate())
}

// ReadingTemplate downloads the meter sheet template
// @Summary      Download meter sheet template
// @Tags         transfer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} binary
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /templates/readings [get]
func (h *TransferHandler) ReadingTemplate(c *gin.Context) {
	h.download(c)(h.transferService.ReadingTemplate())
}

func (h *TransferHandler) download(c *gin.Context) func(*transfer.File, error) {
	return func(f *transfer.File, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		sendAttachment(c, f.Name, f.ContentType, f.Data)
	}
}

func sendAttachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Data(http.StatusOK, contentType, data)
}
