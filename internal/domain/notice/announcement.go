package notice

import (
	"strings"
	"time"

	"github.com/rental/backend/internal/domain/shared"
)

// Announcement is a notice posted by the landlord to all tenants
type Announcement struct {
	shared.BaseAggregateRoot
	Title   string
	Content string
	Date    time.Time
}

// NewAnnouncement creates an announcement dated date (today when zero)
func NewAnnouncement(title, content string, date time.Time) (*Announcement, error) {
	a := &Announcement{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := a.apply(title, content, date); err != nil {
		return nil, err
	}
	return a, nil
}

// Update replaces the announcement's contents
func (a *Announcement) Update(title, content string, date time.Time) error {
	if err := a.apply(title, content, date); err != nil {
		return err
	}
	a.Touch()
	return nil
}

func (a *Announcement) apply(title, content string, date time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > 200 {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 200 characters")
	}
	if strings.TrimSpace(content) == "" {
		return shared.NewDomainError("INVALID_CONTENT", "Content cannot be empty")
	}
	if date.IsZero() {
		date = time.Now()
	}
	a.Title = title
	a.Content = content
	a.Date = date
	return nil
}
