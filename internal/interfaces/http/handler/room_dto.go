package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/property"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// CreateRoomRequest represents the request body for registering a room
type CreateRoomRequest struct {
	Number string `json:"number" binding:"required,max=20"`
	RoomFields
}

// UpdateRoomRequest represents the request body for updating a room
type UpdateRoomRequest struct {
	RoomFields
}

// RoomFields are the mutable attributes of a room
type RoomFields struct {
	TenantName string          `json:"tenant_name" binding:"max=100"`
	RoomType   string          `json:"room_type" binding:"max=50"`
	Note       string          `json:"note" binding:"max=500"`
	RentAmount decimal.Decimal `json:"rent_amount"`
	Deposit    decimal.Decimal `json:"deposit"`
	StartDate  string          `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate    string          `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	TermMonths int             `json:"term_months" binding:"gte=0,lte=600"`
	Status     string          `json:"status" binding:"omitempty,oneof=vacant occupied reserved"`
}

// RoomResponse represents a room in API responses
type RoomResponse struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	TenantName    string          `json:"tenant_name"`
	RoomType      string          `json:"room_type"`
	Note          string          `json:"note"`
	RentAmount    decimal.Decimal `json:"rent_amount"`
	Deposit       decimal.Decimal `json:"deposit"`
	Status        string          `json:"status"`
	RentStartDate *string         `json:"rent_start_date"`
	RentEndDate   *string         `json:"rent_end_date"`
	RentDuration  int             `json:"rent_duration"`
	LandlordCode  string          `json:"landlord_code,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toRoomResponse(r *property.Room) RoomResponse {
	return RoomResponse{
		ID:            r.ID,
		Number:        r.Number,
		TenantName:    r.TenantName,
		RoomType:      r.RoomType,
		Note:          r.Note,
		RentAmount:    r.RentAmount,
		Deposit:       r.Deposit,
		Status:        string(r.Status),
		RentStartDate: formatDate(r.RentStartDate),
		RentEndDate:   formatDate(r.RentEndDate),
		RentDuration:  r.RentDuration(),
		LandlordCode:  r.LandlordCode,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func toRoomResponses(rooms []property.Room) []RoomResponse {
	out := make([]RoomResponse, len(rooms))
	for i := range rooms {
		out[i] = toRoomResponse(&rooms[i])
	}
	return out
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// parseDate parses an optional YYYY-MM-DD value; bindings have already checked the format
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
