package models

import (
	"github.com/rental/backend/internal/domain/metering"
)

// MeterReadingModel is the persistence model for a monthly meter reading.
// (room_number, month) is unique; writes upsert on it.
type MeterReadingModel struct {
	AggregateModel
	RoomNumber string `gorm:"type:varchar(32);not null;uniqueIndex:idx_meter_readings_room_month,priority:1"`
	Month      string `gorm:"type:char(7);not null;uniqueIndex:idx_meter_readings_room_month,priority:2;index"`
	Value      int64  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MeterReadingModel) TableName() string {
	return "meter_readings"
}

// ToDomain converts the persistence model to a domain MeterReading
func (m *MeterReadingModel) ToDomain() *metering.MeterReading {
	return &metering.MeterReading{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		RoomNumber:        m.RoomNumber,
		Month:             metering.Month(m.Month),
		Value:             m.Value,
	}
}

// FromDomain populates the persistence model from a domain MeterReading
func (m *MeterReadingModel) FromDomain(r *metering.MeterReading) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.RoomNumber = r.RoomNumber
	m.Month = r.Month.String()
	m.Value = r.Value
}

// MeterReadingModelFromDomain creates a persistence model from a domain reading
func MeterReadingModelFromDomain(r *metering.MeterReading) *MeterReadingModel {
	m := &MeterReadingModel{}
	m.FromDomain(r)
	return m
}
