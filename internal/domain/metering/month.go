package metering

import (
	"fmt"
	"strings"
	"time"

	"github.com/rental/backend/internal/domain/shared"
)

// MonthLayout is the canonical month format. It sorts lexicographically.
const MonthLayout = "2006-01"

// Month is a calendar month in "YYYY-MM" form
type Month string

// ParseMonth parses and normalizes a month string.
// "2024-7" and "2024/07" are accepted and normalized to "2024-07".
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "/", "-"))
	if s == "" {
		return "", shared.NewDomainError("INVALID_MONTH", "Month cannot be empty")
	}
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		t, err = time.Parse("2006-1", s)
		if err != nil {
			return "", shared.NewDomainError("INVALID_MONTH", fmt.Sprintf("Month %q must be in YYYY-MM format", s))
		}
	}
	return MonthOf(t), nil
}

// MustParseMonth is like ParseMonth but panics on error. Intended for tests and constants.
func MustParseMonth(s string) Month {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MonthOf returns the month containing t
func MonthOf(t time.Time) Month {
	return Month(t.Format(MonthLayout))
}

// String returns the "YYYY-MM" form
func (m Month) String() string {
	return string(m)
}

// Before reports whether m is strictly earlier than other
func (m Month) Before(other Month) bool {
	return string(m) < string(other)
}

// After reports whether m is strictly later than other
func (m Month) After(other Month) bool {
	return string(m) > string(other)
}

// Time returns the first instant of the month in UTC
func (m Month) Time() time.Time {
	t, _ := time.Parse(MonthLayout, string(m))
	return t
}

// Previous returns the calendar month before m
func (m Month) Previous() Month {
	return MonthOf(m.Time().AddDate(0, -1, 0))
}

// Next returns the calendar month after m
func (m Month) Next() Month {
	return MonthOf(m.Time().AddDate(0, 1, 0))
}

// IsValid reports whether m is a well-formed month
func (m Month) IsValid() bool {
	_, err := time.Parse(MonthLayout, string(m))
	return err == nil
}
