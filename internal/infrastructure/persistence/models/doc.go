// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer stays free of
// ORM tags. Each model has ToDomain/FromDomain mappers used by the repositories.
//
// Structure:
//   - base.go: shared ID, timestamp and version columns
//   - property.go: rooms
//   - metering.go: meter readings
//   - identity.go: user accounts
//   - maintenance.go: repair reports
//   - notice.go: announcements
package models
