package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	printingapp "github.com/rental/backend/internal/application/printing"
	"github.com/rental/backend/internal/interfaces/http/middleware"
)

// ContractHandler generates lease contracts
type ContractHandler struct {
	BaseHandler
	contractService *printingapp.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contractService *printingapp.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// Generate renders the lease contract of a room. The PDF is returned inline;
// with ?format=json only its stored location is returned.
// @Summary      Generate lease contract
// @Tags         contracts
// @Produce      application/pdf
// @Param        number path string true "Room number"
// @Param        format query string false "json returns the stored location only"
// @Success      200 {file} binary
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rooms/{number}/contract [get]
func (h *ContractHandler) Generate(c *gin.Context) {
	doc, err := h.contractService.Generate(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if c.Query("format") == "json" {
		h.Success(c, doc)
		return
	}

	c.Header("Content-Disposition", "inline; filename=\"contract-"+doc.RoomNumber+".pdf\"")
	c.Header(middleware.ContractURLHeader, doc.URL)
	c.Data(http.StatusOK, "application/pdf", doc.Data)
}
