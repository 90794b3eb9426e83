package persistence

import (
	"strings"

	"github.com/rental/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// RoomSortFields contains allowed sort fields for rooms
var RoomSortFields = map[string]bool{
	"number":          true,
	"tenant_name":     true,
	"rent_amount":     true,
	"status":          true,
	"rent_start_date": true,
	"rent_end_date":   true,
	"created_at":      true,
	"updated_at":      true,
}

// ReadingSortFields contains allowed sort fields for meter readings
var ReadingSortFields = map[string]bool{
	"month":       true,
	"room_number": true,
	"value":       true,
	"updated_at":  true,
}

// RepairSortFields contains allowed sort fields for repair reports
var RepairSortFields = map[string]bool{
	"date":        true,
	"room_number": true,
	"status":      true,
	"created_at":  true,
}

// AnnouncementSortFields contains allowed sort fields for announcements
var AnnouncementSortFields = map[string]bool{
	"date":       true,
	"title":      true,
	"created_at": true,
}

// applyPage orders by a whitelisted column (with a stable id tiebreak) and
// applies limit/offset when the filter asks for a page.
func applyPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField, defaultDir string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := defaultDir
	if filter.OrderDir != "" {
		dir = ValidateSortOrder(filter.OrderDir)
	}
	query = query.Order(field + " " + dir).Order("id ASC")
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize).Offset(filter.Offset())
	}
	return query
}

// likePattern builds a case-insensitive LIKE pattern for a search term
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
