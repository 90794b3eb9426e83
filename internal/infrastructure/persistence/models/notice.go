package models

import (
	"time"

	"github.com/rental/backend/internal/domain/notice"
)

// AnnouncementModel is the persistence model for announcements
type AnnouncementModel struct {
	AggregateModel
	Title   string    `gorm:"type:varchar(200);not null"`
	Content string    `gorm:"type:text;not null"`
	Date    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AnnouncementModel) TableName() string {
	return "announcements"
}

// ToDomain converts the persistence model to a domain Announcement
func (m *AnnouncementModel) ToDomain() *notice.Announcement {
	return &notice.Announcement{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Title:             m.Title,
		Content:           m.Content,
		Date:              m.Date,
	}
}

// AnnouncementModelFromDomain creates a persistence model from a domain announcement
func AnnouncementModelFromDomain(a *notice.Announcement) *AnnouncementModel {
	m := &AnnouncementModel{
		Title:   a.Title,
		Content: a.Content,
		Date:    a.Date,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

