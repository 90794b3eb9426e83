package property

import (
	"time"

	"github.com/rental/backend/internal/domain/property"
	"github.com/shopspring/decimal"
)

// CreateRoomInput registers a room and, optionally, its current lease
type CreateRoomInput struct {
	Number     string
	TenantName string
	RoomType   string
	Note       string
	RentAmount decimal.Decimal
	Deposit    decimal.Decimal
	StartDate  *time.Time
	EndDate    *time.Time
	TermMonths int
	Status     property.RoomStatus
}

// UpdateRoomInput replaces the mutable attributes of a room
type UpdateRoomInput struct {
	TenantName string
	RoomType   string
	Note       string
	RentAmount decimal.Decimal
	Deposit    decimal.Decimal
	StartDate  *time.Time
	EndDate    *time.Time
	TermMonths int
	Status     property.RoomStatus
}

// ListRoomsInput filters the room listing
type ListRoomsInput struct {
	Search   string
	Status   property.RoomStatus
	Page     int
	PageSize int
}

func (in CreateRoomInput) lease() property.Lease {
	return property.Lease{
		TenantName: in.TenantName,
		RentAmount: in.RentAmount,
		Deposit:    in.Deposit,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		TermMonths: in.TermMonths,
	}
}

func (in UpdateRoomInput) lease() property.Lease {
	return property.Lease{
		TenantName: in.TenantName,
		RentAmount: in.RentAmount,
		Deposit:    in.Deposit,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		TermMonths: in.TermMonths,
	}
}
