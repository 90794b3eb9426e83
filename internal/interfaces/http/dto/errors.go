package dto

import (
	"net/http"
	"strings"
)

// API error codes, ERR_<CATEGORY>[_<DETAIL>]
const (
	ErrCodeUnknown     = "ERR_UNKNOWN"
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeUnavailable = "ERR_UNAVAILABLE" // printing or another optional backend is off

	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"

	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"

	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeTariffConfiguration = "ERR_TARIFF_CONFIGURATION"

	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeInvalidFile     = "ERR_INVALID_FILE" // unreadable spreadsheet upload
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"

	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

var httpStatus = map[string]int{
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeInvalidJSON:        http.StatusBadRequest,
	ErrCodeInvalidFile:        http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus is 500 for ERR_INTERNAL, ERR_TARIFF_CONFIGURATION and any
// code it does not know
func GetHTTPStatus(code string) int {
	if status, ok := httpStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodes are the domain error codes the suffix and prefix rules in
// NormalizeErrorCode would classify wrongly or not at all
var domainCodes = map[string]string{
	"ALREADY_EXISTS": ErrCodeAlreadyExists,
	"USERNAME_TAKEN": ErrCodeAlreadyExists,

	"INVALID_MONTH":     ErrCodeValidationFormat,
	"INVALID_FILE":      ErrCodeInvalidFile,
	"MISSING_COLUMNS":   ErrCodeInvalidFile,
	"PASSWORD_MISMATCH": ErrCodeInvalidInput,
	"VALIDATION_ERROR":  ErrCodeValidation,
	"BAD_REQUEST":       ErrCodeBadRequest,

	"INVALID_STATE": ErrCodeInvalidState,
	"INVALID_USAGE": ErrCodeInvalidState,

	"UNAUTHORIZED":        ErrCodeUnauthorized,
	"INVALID_CREDENTIALS": ErrCodeUnauthorized,
	"FORBIDDEN":           ErrCodeForbidden,
	"TOKEN_EXPIRED":       ErrCodeTokenExpired,
	"TOKEN_INVALID":       ErrCodeTokenInvalid,
	"TOKEN_ERROR":         ErrCodeTokenInvalid,
	"TOKEN_MAX_REFRESH":   ErrCodeTokenInvalid,
	"TOKEN_REVOKED":       ErrCodeTokenRevoked,

	"TARIFF_CONFIGURATION": ErrCodeTariffConfiguration,
	"PRINTING_DISABLED":    ErrCodeUnavailable,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode maps a domain code (ROOM_NOT_FOUND, INVALID_RENT, ...)
// onto the API codes above. ERR_ codes and unknown codes pass through.
func NormalizeErrorCode(code string) string {
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	if mapped, ok := domainCodes[code]; ok {
		return mapped
	}
	switch {
	case code == "NOT_FOUND" || strings.HasSuffix(code, "_NOT_FOUND"):
		return ErrCodeNotFound
	case strings.HasPrefix(code, "INVALID_"):
		return ErrCodeInvalidInput
	}
	return code
}
