package spreadsheet

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Room sheet columns
const (
	ColRoomNumber = "房號"
	ColTenantName = "租客姓名"
	ColRoomType   = "房型"
	ColRent       = "租金"
	ColDeposit    = "押金"
	ColStartDate  = "起租日"
	ColEndDate    = "結束日"
	ColNote       = "備註"
)

// Meter sheet columns
const (
	ColMonth = "月份"
	ColValue = "度數"
)

// RoomHeaders is the column order of the room sheet
var RoomHeaders = []string{ColRoomNumber, ColTenantName, ColRoomType, ColRent, ColDeposit, ColStartDate, ColEndDate, ColNote}

// ReadingHeaders is the column order of the meter sheet
var ReadingHeaders = []string{ColRoomNumber, ColMonth, ColValue}

// DateLayout is the date format written to sheets
const DateLayout = "2006-01-02"

// dateLayouts are accepted when reading; Excel renders date cells as mm-dd-yy by default
var dateLayouts = []string{DateLayout, "2006/01/02", "2006/1/2", "2006.01.02", "01-02-06", "1/2/06"}

// ParseDate parses a sheet date cell. An empty cell yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}

// RoomRow is one validated line of the room sheet
type RoomRow struct {
	Line       int             `validate:"-"`
	Number     string          `validate:"required,max=20" col:"房號"`
	TenantName string          `validate:"max=100" col:"租客姓名"`
	RoomType   string          `validate:"max=50" col:"房型"`
	Rent       decimal.Decimal `validate:"-" col:"租金"`
	Deposit    decimal.Decimal `validate:"-" col:"押金"`
	StartDate  *time.Time      `validate:"-" col:"起租日"`
	EndDate    *time.Time      `validate:"-" col:"結束日"`
	Note       string          `validate:"max=500" col:"備註"`
}

// ReadingRow is one validated line of the meter sheet
type ReadingRow struct {
	Line   int    `validate:"-"`
	Number string `validate:"required,max=20" col:"房號"`
	Month  string `validate:"required,month" col:"月份"`
	Value  int64  `validate:"gte=0" col:"度數"`
}

// RowValidator converts sheet rows into typed rows
type RowValidator struct {
	validate *validator.Validate
}

// NewRowValidator creates a validator with the sheet-specific rules registered
func NewRowValidator() *RowValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("col")
	})
	_ = v.RegisterValidation("month", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01", fl.Field().String())
		return err == nil
	})
	return &RowValidator{validate: v}
}

// RoomRows converts the table into room rows. Invalid rows are reported and skipped.
func (rv *RowValidator) RoomRows(table *Table, errs *ErrorCollection) ([]RoomRow, error) {
	if err := table.RequireHeaders([]string{ColRoomNumber}); err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	var rows []RoomRow
	for _, row := range table.Rows {
		rr := RoomRow{
			Line:       row.LineNumber,
			Number:     row.Get(ColRoomNumber),
			TenantName: row.Get(ColTenantName),
			RoomType:   row.Get(ColRoomType),
			Note:       row.Get(ColNote),
		}

		ok := true
		var err error
		if rr.Rent, err = parseAmount(row.Get(ColRent)); err != nil {
			errs.Add(typeError(row, ColRent, "a non-negative amount"))
			ok = false
		}
		if rr.Deposit, err = parseAmount(row.Get(ColDeposit)); err != nil {
			errs.Add(typeError(row, ColDeposit, "a non-negative amount"))
			ok = false
		}
		if rr.StartDate, err = ParseDate(row.Get(ColStartDate)); err != nil {
			errs.Add(formatError(row, ColStartDate, "YYYY-MM-DD"))
			ok = false
		}
		if rr.EndDate, err = ParseDate(row.Get(ColEndDate)); err != nil {
			errs.Add(formatError(row, ColEndDate, "YYYY-MM-DD"))
			ok = false
		}
		if ok && rr.StartDate != nil && rr.EndDate != nil && rr.EndDate.Before(*rr.StartDate) {
			errs.Add(RowError{
				Row: row.LineNumber, Column: ColEndDate, Code: ErrCodeInvalidRange,
				Message: "end date cannot be before start date", Value: row.Get(ColEndDate),
			})
			ok = false
		}
		if !ok || !rv.check(row, rr, errs) {
			continue
		}

		if first, dup := seen[rr.Number]; dup {
			errs.Add(RowError{
				Row: row.LineNumber, Column: ColRoomNumber, Code: ErrCodeDuplicateInFile,
				Message: fmt.Sprintf("room %s already appears on row %d", rr.Number, first), Value: rr.Number,
			})
			continue
		}
		seen[rr.Number] = row.LineNumber
		rows = append(rows, rr)
	}
	return rows, nil
}

// ReadingRows converts the table into reading rows. Invalid rows are reported and skipped.
func (rv *RowValidator) ReadingRows(table *Table, errs *ErrorCollection) ([]ReadingRow, error) {
	if err := table.RequireHeaders(ReadingHeaders); err != nil {
		return nil, err
	}

	seen := make(map[string]int)
	var rows []ReadingRow
	for _, row := range table.Rows {
		rr := ReadingRow{
			Line:   row.LineNumber,
			Number: row.Get(ColRoomNumber),
			Month:  normalizeMonth(row.Get(ColMonth)),
		}
		raw := row.Get(ColValue)
		value, err := parseInt(raw)
		if err != nil {
			errs.Add(typeError(row, ColValue, "a whole number"))
			continue
		}
		rr.Value = value
		if !rv.check(row, rr, errs) {
			continue
		}

		key := rr.Number + "|" + rr.Month
		if first, dup := seen[key]; dup {
			errs.Add(RowError{
				Row: row.LineNumber, Column: ColMonth, Code: ErrCodeDuplicateInFile,
				Message: fmt.Sprintf("room %s %s already appears on row %d", rr.Number, rr.Month, first),
				Value:   rr.Month,
			})
			continue
		}
		seen[key] = row.LineNumber
		rows = append(rows, rr)
	}
	return rows, nil
}

func (rv *RowValidator) check(row *Row, v any, errs *ErrorCollection) bool {
	err := rv.validate.Struct(v)
	if err == nil {
		return true
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add(RowError{Row: row.LineNumber, Code: ErrCodeMalformedRow, Message: err.Error()})
		return false
	}
	for _, fe := range fieldErrs {
		errs.Add(fieldError(row, fe))
	}
	return false
}

func fieldError(row *Row, fe validator.FieldError) RowError {
	col := fe.Field()
	e := RowError{Row: row.LineNumber, Column: col, Value: row.Get(col)}
	switch fe.Tag() {
	case "required":
		e.Code = ErrCodeRequiredField
		e.Message = fmt.Sprintf("field '%s' is required", col)
	case "max":
		e.Code = ErrCodeInvalidLength
		e.Message = fmt.Sprintf("length must be at most %s", fe.Param())
	case "gte":
		e.Code = ErrCodeInvalidRange
		e.Message = "value cannot be negative"
	case "month":
		e.Code = ErrCodeInvalidFormat
		e.Message = "invalid format, expected YYYY-MM"
	default:
		e.Code = ErrCodeMalformedRow
		e.Message = fe.Error()
	}
	return e
}

func typeError(row *Row, col, expected string) RowError {
	return RowError{
		Row: row.LineNumber, Column: col, Code: ErrCodeInvalidType,
		Message: "expected " + expected, Value: row.Get(col),
	}
}

func formatError(row *Row, col, expected string) RowError {
	return RowError{
		Row: row.LineNumber, Column: col, Code: ErrCodeInvalidFormat,
		Message: "invalid format, expected " + expected, Value: row.Get(col),
	}
}

// parseAmount reads an optional money cell; thousands separators are allowed
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %s", s)
	}
	return d, nil
}

// parseInt reads a meter value; spreadsheet numbers may come back as "126.0"
func parseInt(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return d.IntPart(), nil
}

// normalizeMonth accepts "2024/07" and "2024-7" as well as "2024-07"
func normalizeMonth(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "/", "-")
	if y, m, ok := strings.Cut(s, "-"); ok && len(m) == 1 {
		return y + "-0" + m
	}
	return s
}
