// Package dto holds the JSON envelope shared by every handler.
package dto

import "time"

const DefaultPageSize = 20

// Response is the envelope: data on success, error otherwise
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta describes one page of a listing
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta falls back to DefaultPageSize for a
// non-positive pageSize
func NewSuccessResponseWithMeta(data any, total int64, page, pageSize int) Response {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	size := int64(pageSize)
	return Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: int((total + size - 1) / size),
		},
	}
}

// NewErrorResponse normalizes domain codes, see NormalizeErrorCode
func NewErrorResponse(code, message string) Response {
	return Response{Error: &ErrorInfo{
		Code:      NormalizeErrorCode(code),
		Message:   message,
		Timestamp: time.Now(),
	}}
}

func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	r := NewErrorResponse(code, message)
	r.Error.RequestID = requestID
	return r
}

func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	r := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	r.Error.Details = details
	return r
}
