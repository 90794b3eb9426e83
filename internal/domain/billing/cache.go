package billing

import (
	"context"

	"github.com/rental/backend/internal/domain/metering"
)

// ResultCache stores computed results until their inputs change
type ResultCache interface {
	// Get returns the cached result or nil on a miss
	Get(ctx context.Context, month metering.Month) (*Result, error)
	Set(ctx context.Context, result *Result) error
	// InvalidateFrom drops month and every later month
	InvalidateFrom(ctx context.Context, month metering.Month) error
}
