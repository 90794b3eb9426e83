package property

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/property"
	"github.com/rental/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RoomService manages the room registry
type RoomService struct {
	rooms  property.RoomRepository
	events shared.EventPublisher
	logger *zap.Logger
}

// NewRoomService creates a new RoomService. events may be nil.
func NewRoomService(rooms property.RoomRepository, events shared.EventPublisher, logger *zap.Logger) *RoomService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{rooms: rooms, events: events, logger: logger}
}

// Create registers a new room under the caller's landlord code
func (s *RoomService) Create(ctx context.Context, input CreateRoomInput) (*property.Room, error) {
	session, err := identity.RequireLandlord(ctx)
	if err != nil {
		return nil, err
	}

	number := strings.TrimSpace(input.Number)
	exists, err := s.rooms.ExistsByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("failed to check room: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Room "+number+" already exists")
	}

	room, err := property.NewRoom(number)
	if err != nil {
		return nil, err
	}
	room.SetDetails(input.RoomType, input.Note)
	if err := room.SetLease(input.lease()); err != nil {
		return nil, err
	}
	if input.Status != "" {
		if err := room.SetStatus(input.Status); err != nil {
			return nil, err
		}
	}
	room.AssignLandlord(session.LandlordCode)

	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}
	s.publish(ctx, room)

	s.logger.Info("Room created",
		zap.String("room", room.Number),
		zap.String("landlord_code", room.LandlordCode))
	return room, nil
}

// Get returns a room by number
func (s *RoomService) Get(ctx context.Context, number string) (*property.Room, error) {
	room, err := s.rooms.FindByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ROOM_NOT_FOUND", "Room "+number+" does not exist")
		}
		return nil, err
	}
	return room, nil
}

// List returns a page of rooms. Callers bound to a landlord only see that landlord's rooms.
func (s *RoomService) List(ctx context.Context, input ListRoomsInput) (shared.Paginated[property.Room], error) {
	filter := property.RoomFilter{
		Filter: shared.Filter{
			Page:     input.Page,
			PageSize: input.PageSize,
			Search:   strings.TrimSpace(input.Search),
			OrderBy:  "number",
			OrderDir: "asc",
		},
		Status: input.Status,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 200 {
		filter.PageSize = 50
	}
	if session, ok := identity.SessionFrom(ctx); ok {
		filter.LandlordCode = session.LandlordCode
	}

	items, err := s.rooms.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[property.Room]{}, err
	}
	total, err := s.rooms.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[property.Room]{}, err
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update replaces a room's lease and details
func (s *RoomService) Update(ctx context.Context, number string, input UpdateRoomInput) (*property.Room, error) {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return nil, err
	}
	room, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}

	room.SetDetails(input.RoomType, input.Note)
	if err := room.SetLease(input.lease()); err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" && room.TenantName == "" && room.IsOccupied() {
		status = property.RoomStatusVacant
	}
	if status != "" {
		if err := room.SetStatus(status); err != nil {
			return nil, err
		}
	}

	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}
	s.publish(ctx, room)

	s.logger.Info("Room updated", zap.String("room", room.Number))
	return room, nil
}

// Vacate ends the current tenancy of a room
func (s *RoomService) Vacate(ctx context.Context, number string) (*property.Room, error) {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return nil, err
	}
	room, err := s.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := room.Vacate(); err != nil {
		return nil, err
	}
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}
	s.publish(ctx, room)

	s.logger.Info("Room vacated", zap.String("room", room.Number))
	return room, nil
}

// Delete removes a room. Its readings stay in history but no longer enter billing.
func (s *RoomService) Delete(ctx context.Context, number string) error {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return err
	}
	room, err := s.Get(ctx, number)
	if err != nil {
		return err
	}
	if err := s.rooms.Delete(ctx, room.Number); err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	room.AddDomainEvent(property.NewRoomDeletedEvent(room))
	s.publish(ctx, room)

	s.logger.Info("Room deleted", zap.String("room", room.Number))
	return nil
}

func (s *RoomService) publish(ctx context.Context, room *property.Room) {
	events := room.GetDomainEvents()
	room.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish room events", zap.String("room", room.Number), zap.Error(err))
	}
}
