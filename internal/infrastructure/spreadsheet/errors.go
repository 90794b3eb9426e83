package spreadsheet

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	ErrCodeRequiredField   = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeInvalidType     = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeInvalidFormat   = "ERR_IMPORT_INVALID_FORMAT"
	ErrCodeInvalidLength   = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeInvalidRange    = "ERR_IMPORT_INVALID_RANGE"
	ErrCodeDuplicateInFile = "ERR_IMPORT_DUPLICATE_IN_FILE"
	ErrCodeMalformedRow    = "ERR_IMPORT_MALFORMED_ROW"
	ErrCodeRejected        = "ERR_IMPORT_REJECTED"
)

// Common import errors
var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrInvalidEncoding   = errors.New("file is neither UTF-8 nor Big5")
	ErrMissingHeader     = errors.New("file is missing the header row")
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .xlsx or .csv")
)

// MissingColumnsError lists required headers absent from a sheet
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %v", e.Columns)
}

// RowError represents an error in a specific row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection gathers row errors up to a limit and keeps counting past it
type ErrorCollection struct {
	errors     []RowError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a new ErrorCollection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{maxErrors: maxErrors}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err RowError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// TotalCount returns the total number of errors including those not collected
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated returns true if some errors were not collected due to the limit
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}
