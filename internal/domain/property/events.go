package property

import (
	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/shared"
)

// AggregateTypeRoom is the aggregate type for rooms
const AggregateTypeRoom = "Room"

// Event type constants for rooms
const (
	EventTypeRoomCreated = "RoomCreated"
	EventTypeRoomVacated = "RoomVacated"
	EventTypeRoomDeleted = "RoomDeleted"
)

// RoomCreatedEvent is published when a room is registered
type RoomCreatedEvent struct {
	shared.BaseDomainEvent
	RoomID uuid.UUID `json:"room_id"`
	Number string    `json:"number"`
}

// NewRoomCreatedEvent creates a new RoomCreatedEvent
func NewRoomCreatedEvent(room *Room) *RoomCreatedEvent {
	return &RoomCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoomCreated, AggregateTypeRoom, room.ID),
		RoomID:          room.ID,
		Number:          room.Number,
	}
}

// RoomVacatedEvent is published when a tenant moves out
type RoomVacatedEvent struct {
	shared.BaseDomainEvent
	Number         string `json:"number"`
	PreviousTenant string `json:"previous_tenant"`
}

// NewRoomVacatedEvent creates a new RoomVacatedEvent
func NewRoomVacatedEvent(room *Room, previousTenant string) *RoomVacatedEvent {
	return &RoomVacatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoomVacated, AggregateTypeRoom, room.ID),
		Number:          room.Number,
		PreviousTenant:  previousTenant,
	}
}

// RoomDeletedEvent is published when a room is removed from the registry
type RoomDeletedEvent struct {
	shared.BaseDomainEvent
	Number string `json:"number"`
}

// NewRoomDeletedEvent creates a new RoomDeletedEvent
func NewRoomDeletedEvent(room *Room) *RoomDeletedEvent {
	return &RoomDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoomDeleted, AggregateTypeRoom, room.ID),
		Number:          room.Number,
	}
}
