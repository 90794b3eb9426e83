package models

import (
	"time"

	"github.com/rental/backend/internal/domain/property"
	"github.com/shopspring/decimal"
)

// RoomModel is the persistence model for the Room aggregate
type RoomModel struct {
	AggregateModel
	Number        string              `gorm:"type:varchar(32);not null;uniqueIndex"`
	TenantName    string              `gorm:"type:varchar(100)"`
	RoomType      string              `gorm:"type:varchar(50)"`
	Note          string              `gorm:"type:text"`
	RentAmount    decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	Deposit       decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	Status        property.RoomStatus `gorm:"type:varchar(20);not null;default:'vacant';index"`
	RentStartDate *time.Time
	RentEndDate   *time.Time
	LandlordCode  string `gorm:"type:varchar(16);index"`
}

// TableName returns the table name for GORM
func (RoomModel) TableName() string {
	return "rooms"
}

// ToDomain converts the persistence model to a domain Room
func (m *RoomModel) ToDomain() *property.Room {
	return &property.Room{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		TenantName:        m.TenantName,
		RoomType:          m.RoomType,
		Note:              m.Note,
		RentAmount:        m.RentAmount,
		Deposit:           m.Deposit,
		Status:            m.Status,
		RentStartDate:     m.RentStartDate,
		RentEndDate:       m.RentEndDate,
		LandlordCode:      m.LandlordCode,
	}
}

// FromDomain populates the persistence model from a domain Room
func (m *RoomModel) FromDomain(r *property.Room) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.Number = r.Number
	m.TenantName = r.TenantName
	m.RoomType = r.RoomType
	m.Note = r.Note
	m.RentAmount = r.RentAmount
	m.Deposit = r.Deposit
	m.Status = r.Status
	m.RentStartDate = r.RentStartDate
	m.RentEndDate = r.RentEndDate
	m.LandlordCode = r.LandlordCode
}

// RoomModelFromDomain creates a persistence model from a domain Room
func RoomModelFromDomain(r *property.Room) *RoomModel {
	m := &RoomModel{}
	m.FromDomain(r)
	return m
}
