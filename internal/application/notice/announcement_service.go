package notice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/identity"
	"github.com/rental/backend/internal/domain/notice"
	"github.com/rental/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AnnouncementInput carries the contents of an announcement. A zero Date means today.
type AnnouncementInput struct {
	Title   string
	Content string
	Date    time.Time
}

// AnnouncementService publishes landlord notices
type AnnouncementService struct {
	repo   notice.AnnouncementRepository
	logger *zap.Logger
}

// NewAnnouncementService creates a new AnnouncementService
func NewAnnouncementService(repo notice.AnnouncementRepository, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, logger: logger}
}

// Create posts an announcement
func (s *AnnouncementService) Create(ctx context.Context, input AnnouncementInput) (*notice.Announcement, error) {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return nil, err
	}
	a, err := notice.NewAnnouncement(input.Title, input.Content, input.Date)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save announcement: %w", err)
	}
	s.logger.Info("Announcement posted", zap.String("announcement_id", a.ID.String()), zap.String("title", a.Title))
	return a, nil
}

// Update replaces an announcement's contents
func (s *AnnouncementService) Update(ctx context.Context, id uuid.UUID, input AnnouncementInput) (*notice.Announcement, error) {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return nil, err
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.Update(input.Title, input.Content, input.Date); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save announcement: %w", err)
	}
	return a, nil
}

// Delete removes an announcement
func (s *AnnouncementService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := identity.RequireLandlord(ctx); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Get returns an announcement by ID
func (s *AnnouncementService) Get(ctx context.Context, id uuid.UUID) (*notice.Announcement, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("ANNOUNCEMENT_NOT_FOUND", "Announcement not found")
		}
		return nil, err
	}
	return a, nil
}

// List returns a page of announcements, newest first
func (s *AnnouncementService) List(ctx context.Context, page, pageSize int) (shared.Paginated[notice.Announcement], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	filter := shared.Filter{Page: page, PageSize: pageSize}

	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[notice.Announcement]{}, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[notice.Announcement]{}, err
	}
	return shared.NewPaginated(items, total, page, pageSize), nil
}
