package identity

import (
	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/shared"
)

// AggregateTypeUser is the aggregate type for users
const AggregateTypeUser = "User"

// EventTypeUserRegistered is published when an account is created
const EventTypeUserRegistered = "UserRegistered"

// UserRegisteredEvent is published when an account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	Role         Role      `json:"role"`
	LandlordCode string    `json:"landlord_code,omitempty"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(u *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, u.ID),
		UserID:          u.ID,
		Username:        u.Username,
		Role:            u.Role,
		LandlordCode:    u.LandlordCode,
	}
}
