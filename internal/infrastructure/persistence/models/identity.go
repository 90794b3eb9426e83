package models

import (
	"time"

	"github.com/rental/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User domain entity.
type UserModel struct {
	AggregateModel
	Username     string        `gorm:"type:varchar(50);not null;uniqueIndex"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	Phone        string        `gorm:"type:varchar(50)"`
	IDNumber     string        `gorm:"type:varchar(20)"`
	Role         identity.Role `gorm:"type:varchar(20);not null"`
	LandlordCode string        `gorm:"type:varchar(16);index"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User entity.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Username:          m.Username,
		PasswordHash:      m.PasswordHash,
		Phone:             m.Phone,
		IDNumber:          m.IDNumber,
		Role:              m.Role,
		LandlordCode:      m.LandlordCode,
		LastLoginAt:       m.LastLoginAt,
	}
}

// FromDomain populates the persistence model from a domain User entity.
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Username = u.Username
	m.PasswordHash = u.PasswordHash
	m.Phone = u.Phone
	m.IDNumber = u.IDNumber
	m.Role = u.Role
	m.LandlordCode = u.LandlordCode
	m.LastLoginAt = u.LastLoginAt
}

// UserModelFromDomain creates a new persistence model from a domain User entity.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
