package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/maintenance"
)

// SubmitRepairRequest represents the request body for filing a repair report
type SubmitRepairRequest struct {
	TenantName  string `json:"tenant_name" binding:"max=100"`
	RoomNumber  string `json:"room_number" binding:"required,max=20"`
	Issue       string `json:"issue" binding:"required,max=200"`
	Description string `json:"description" binding:"max=2000"`
	Date        string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateRepairStatusRequest moves a report through its workflow
type UpdateRepairStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=open in_progress resolved"`
}

// RepairResponse represents a repair report in API responses
type RepairResponse struct {
	ID          uuid.UUID  `json:"id"`
	TenantName  string     `json:"tenant_name"`
	RoomNumber  string     `json:"room_number"`
	Issue       string     `json:"issue"`
	Description string     `json:"description"`
	Date        string     `json:"date"`
	Status      string     `json:"status"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toRepairResponse(r *maintenance.RepairReport) RepairResponse {
	return RepairResponse{
		ID:          r.ID,
		TenantName:  r.TenantName,
		RoomNumber:  r.RoomNumber,
		Issue:       r.Issue,
		Description: r.Description,
		Date:        r.Date.Format(dateLayout),
		Status:      string(r.Status),
		ResolvedAt:  r.ResolvedAt,
		CreatedAt:   r.CreatedAt,
	}
}

func toRepairResponses(list []maintenance.RepairReport) []RepairResponse {
	out := make([]RepairResponse, len(list))
	for i := range list {
		out[i] = toRepairResponse(&list[i])
	}
	return out
}
