package notice

import (
	"context"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/shared"
)

// AnnouncementRepository persists announcements
type AnnouncementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Announcement, error)
	// FindAll lists announcements newest first
	FindAll(ctx context.Context, filter shared.Filter) ([]Announcement, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Save(ctx context.Context, announcement *Announcement) error
	Delete(ctx context.Context, id uuid.UUID) error
}
