package maintenance

import (
	"strings"
	"time"

	"github.com/rental/backend/internal/domain/shared"
)

// RepairStatus tracks a report through its lifecycle
type RepairStatus string

const (
	RepairStatusOpen       RepairStatus = "open"
	RepairStatusInProgress RepairStatus = "in_progress"
	RepairStatusResolved   RepairStatus = "resolved"
)

// IsValid reports whether s is a known status
func (s RepairStatus) IsValid() bool {
	switch s {
	case RepairStatusOpen, RepairStatusInProgress, RepairStatusResolved:
		return true
	}
	return false
}

// RepairReport is a tenant's request to fix something in a room
type RepairReport struct {
	shared.BaseAggregateRoot
	TenantName  string
	RoomNumber  string
	Issue       string
	Description string
	Date        time.Time
	Status      RepairStatus
	ResolvedAt  *time.Time
}

// NewRepairReport creates an open report dated date (today when zero)
func NewRepairReport(tenantName, roomNumber, issue, description string, date time.Time) (*RepairReport, error) {
	tenantName = strings.TrimSpace(tenantName)
	roomNumber = strings.TrimSpace(roomNumber)
	issue = strings.TrimSpace(issue)

	if roomNumber == "" {
		return nil, shared.NewDomainError("INVALID_ROOM", "Room number cannot be empty")
	}
	if issue == "" {
		return nil, shared.NewDomainError("INVALID_ISSUE", "Issue cannot be empty")
	}
	if len(issue) > 200 {
		return nil, shared.NewDomainError("INVALID_ISSUE", "Issue cannot exceed 200 characters")
	}
	if date.IsZero() {
		date = time.Now()
	}

	return &RepairReport{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantName:        tenantName,
		RoomNumber:        roomNumber,
		Issue:             issue,
		Description:       strings.TrimSpace(description),
		Date:              date,
		Status:            RepairStatusOpen,
	}, nil
}

// TransitionTo moves the report to status. Resolved reports cannot be reopened.
func (r *RepairReport) TransitionTo(status RepairStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invalid repair status: "+string(status))
	}
	if r.Status == RepairStatusResolved && status != RepairStatusResolved {
		return shared.NewDomainError("INVALID_STATE", "Resolved reports cannot be reopened")
	}
	if r.Status == status {
		return nil
	}

	r.Status = status
	now := time.Now()
	if status == RepairStatusResolved {
		r.ResolvedAt = &now
	}
	r.Touch()
	return nil
}
