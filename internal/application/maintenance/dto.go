package maintenance

import (
	"time"

	"github.com/rental/backend/internal/domain/maintenance"
)

// SubmitRepairInput files a repair report. TenantName defaults to the caller's username.
type SubmitRepairInput struct {
	TenantName  string
	RoomNumber  string
	Issue       string
	Description string
	Date        time.Time
}

// ListRepairsInput filters the report listing
type ListRepairsInput struct {
	RoomNumber string
	Status     maintenance.RepairStatus
	Page       int
	PageSize   int
}
