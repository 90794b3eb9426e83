package models

import (
	"time"

	"github.com/rental/backend/internal/domain/maintenance"
)

// RepairReportModel is the persistence model for repair reports
type RepairReportModel struct {
	AggregateModel
	TenantName  string                   `gorm:"type:varchar(100);not null"`
	RoomNumber  string                   `gorm:"type:varchar(32);not null;index"`
	Issue       string                   `gorm:"type:varchar(200);not null"`
	Description string                   `gorm:"type:text"`
	Date        time.Time                `gorm:"not null;index"`
	Status      maintenance.RepairStatus `gorm:"type:varchar(20);not null;default:'open';index"`
	ResolvedAt  *time.Time
}

// TableName returns the table name for GORM
func (RepairReportModel) TableName() string {
	return "repair_reports"
}

// ToDomain converts the persistence model to a domain RepairReport
func (m *RepairReportModel) ToDomain() *maintenance.RepairReport {
	return &maintenance.RepairReport{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		TenantName:        m.TenantName,
		RoomNumber:        m.RoomNumber,
		Issue:             m.Issue,
		Description:       m.Description,
		Date:              m.Date,
		Status:            m.Status,
		ResolvedAt:        m.ResolvedAt,
	}
}

// RepairReportModelFromDomain creates a persistence model from a domain report
func RepairReportModelFromDomain(r *maintenance.RepairReport) *RepairReportModel {
	m := &RepairReportModel{
		TenantName:  r.TenantName,
		RoomNumber:  r.RoomNumber,
		Issue:       r.Issue,
		Description: r.Description,
		Date:        r.Date,
		Status:      r.Status,
		ResolvedAt:  r.ResolvedAt,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}
