package printing

import (
	"context"
	"time"
)

// A4 paper in millimeters
const (
	PaperWidthMM  = 210.0
	PaperHeightMM = 297.0
)

// Margins in millimeters
type Margins struct {
	Top, Right, Bottom, Left float64
}

// DefaultMargins is used when a request leaves Margins zero
func DefaultMargins() Margins {
	return Margins{Top: 20, Right: 18, Bottom: 20, Left: 18}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	HTML    string
	Title   string
	Margins Margins
	// FooterHTML is printed on every page (optional). Chrome substitutes
	// pageNumber and totalPages classes.
	FooterHTML string
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDFData        []byte
	PageCount      int
	RenderDuration time.Duration
}

// PDFRenderer renders HTML to PDF
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout = "RENDER_TIMEOUT"
	ErrCodeRenderFailed  = "RENDER_FAILED"
	ErrCodeInvalidHTML   = "INVALID_HTML"
	ErrCodeDisabled      = "PRINTING_DISABLED"
	ErrCodeTemplate      = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// DisabledRenderer is used when printing is switched off in configuration
type DisabledRenderer struct{}

func (DisabledRenderer) Render(context.Context, *RenderRequest) (*RenderResult, error) {
	return nil, NewRenderError(ErrCodeDisabled, "PDF rendering is disabled", nil)
}

func (DisabledRenderer) Close() error { return nil }
