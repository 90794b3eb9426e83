package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the surrogate key and timestamps shared by every
// persisted record. Business keys (room number, username) live on the
// aggregate itself.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BaseAggregateRoot adds optimistic versioning and pending domain events
type BaseAggregateRoot struct {
	BaseEntity
	Version int
	events  []DomainEvent
}

// NewBaseAggregateRoot starts a new aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now()
	return BaseAggregateRoot{
		BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Version:    1,
	}
}

// GetVersion returns the aggregate version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// Touch records a state change: UpdatedAt moves to now and the version is bumped
func (a *BaseAggregateRoot) Touch() {
	a.UpdatedAt = time.Now()
	a.Version++
}

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// GetDomainEvents returns the events raised since the last ClearDomainEvents
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.events
}

func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.events = nil
}
