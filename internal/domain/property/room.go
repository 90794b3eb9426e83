package property

import (
	"strings"
	"time"

	"github.com/rental/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RoomStatus represents the occupancy of a room
type RoomStatus string

const (
	RoomStatusVacant   RoomStatus = "vacant"
	RoomStatusOccupied RoomStatus = "occupied"
	RoomStatusReserved RoomStatus = "reserved"
)

// IsValid reports whether s is a known status
func (s RoomStatus) IsValid() bool {
	switch s {
	case RoomStatusVacant, RoomStatusOccupied, RoomStatusReserved:
		return true
	}
	return false
}

// Room is a rentable unit. It is the aggregate root of the property context.
type Room struct {
	shared.BaseAggregateRoot
	Number        string
	TenantName    string
	RoomType      string
	Note          string
	RentAmount    decimal.Decimal
	Deposit       decimal.Decimal
	Status        RoomStatus
	RentStartDate *time.Time
	RentEndDate   *time.Time
	LandlordCode  string
}

// NewRoom creates a vacant room
func NewRoom(number string) (*Room, error) {
	number = strings.TrimSpace(number)
	if err := validateRoomNumber(number); err != nil {
		return nil, err
	}

	room := &Room{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		RentAmount:        decimal.Zero,
		Deposit:           decimal.Zero,
		Status:            RoomStatusVacant,
	}
	room.AddDomainEvent(NewRoomCreatedEvent(room))

	return room, nil
}

// Lease holds the tenancy attributes of a room
type Lease struct {
	TenantName string
	RentAmount decimal.Decimal
	Deposit    decimal.Decimal
	StartDate  *time.Time
	EndDate    *time.Time
	// TermMonths derives EndDate from StartDate when EndDate is not given
	TermMonths int
}

// SetLease records a tenancy. A non-empty tenant marks the room occupied.
func (r *Room) SetLease(lease Lease) error {
	if lease.RentAmount.IsNegative() {
		return shared.NewDomainError("INVALID_RENT", "Rent cannot be negative")
	}
	if lease.Deposit.IsNegative() {
		return shared.NewDomainError("INVALID_DEPOSIT", "Deposit cannot be negative")
	}
	if lease.TermMonths < 0 {
		return shared.NewDomainError("INVALID_LEASE_PERIOD", "Lease term cannot be negative")
	}
	if lease.EndDate == nil && lease.StartDate != nil && lease.TermMonths > 0 {
		end := LeaseEnd(*lease.StartDate, lease.TermMonths)
		lease.EndDate = &end
	}
	if lease.StartDate != nil && lease.EndDate != nil && lease.EndDate.Before(*lease.StartDate) {
		return shared.NewDomainError("INVALID_LEASE_PERIOD", "Rent end date cannot be before start date")
	}
	if len(lease.TenantName) > 100 {
		return shared.NewDomainError("INVALID_TENANT_NAME", "Tenant name cannot exceed 100 characters")
	}

	r.TenantName = strings.TrimSpace(lease.TenantName)
	r.RentAmount = lease.RentAmount
	r.Deposit = lease.Deposit
	r.RentStartDate = lease.StartDate
	r.RentEndDate = lease.EndDate
	if r.TenantName != "" {
		r.Status = RoomStatusOccupied
	}
	r.touch()
	return nil
}

// SetDetails updates descriptive attributes
func (r *Room) SetDetails(roomType, note string) {
	r.RoomType = strings.TrimSpace(roomType)
	r.Note = note
	r.touch()
}

// SetStatus changes the occupancy status
func (r *Room) SetStatus(status RoomStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invalid room status: "+string(status))
	}
	if status == RoomStatusOccupied && r.TenantName == "" {
		return shared.NewDomainError("INVALID_STATE", "An occupied room needs a tenant")
	}
	r.Status = status
	r.touch()
	return nil
}

// AssignLandlord links the room to a landlord code
func (r *Room) AssignLandlord(code string) {
	r.LandlordCode = strings.ToUpper(strings.TrimSpace(code))
	r.touch()
}

// Vacate clears the tenancy and marks the room vacant
func (r *Room) Vacate() error {
	if r.Status == RoomStatusVacant && r.TenantName == "" {
		return shared.NewDomainError("INVALID_STATE", "Room is already vacant")
	}
	tenant := r.TenantName
	r.TenantName = ""
	r.RentStartDate = nil
	r.RentEndDate = nil
	r.Status = RoomStatusVacant
	r.touch()
	r.AddDomainEvent(NewRoomVacatedEvent(r, tenant))
	return nil
}

// RentDuration returns the lease length in whole months, or 0 when either date is unknown
func (r *Room) RentDuration() int {
	if r.RentStartDate == nil || r.RentEndDate == nil {
		return 0
	}
	return MonthsBetween(*r.RentStartDate, *r.RentEndDate)
}

// IsOccupied reports whether the room has a tenant
func (r *Room) IsOccupied() bool {
	return r.Status == RoomStatusOccupied
}

func (r *Room) touch() {
	r.Touch()
}

// LeaseEnd returns the last day of a lease of months starting on start.
// A one-year lease from 2024-07-01 ends on 2025-06-30.
func LeaseEnd(start time.Time, months int) time.Time {
	return start.AddDate(0, months, -1)
}

// MonthsBetween counts whole months from start to end, rounding a trailing partial month up.
// 2024-07-01 to 2025-06-30 is 12 months.
func MonthsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() >= start.Day() {
		months++
	}
	if months < 0 {
		return 0
	}
	return months
}

func validateRoomNumber(number string) error {
	if number == "" {
		return shared.NewDomainError("INVALID_ROOM_NUMBER", "Room number cannot be empty")
	}
	if len(number) > 20 {
		return shared.NewDomainError("INVALID_ROOM_NUMBER", "Room number cannot exceed 20 characters")
	}
	return nil
}
