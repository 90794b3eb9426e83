package billing

import (
	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/metering"
	"github.com/rental/backend/internal/domain/shared"
)

// AggregateTypeBilling is the aggregate type of billing results
const AggregateTypeBilling = "BillingResult"

// EventTypeBillingComputed is published after a month has been (re)computed
const EventTypeBillingComputed = "BillingComputed"

// ComputedEvent carries a freshly computed result to subscribers
type ComputedEvent struct {
	shared.BaseDomainEvent
	Result *Result `json:"result"`
}

// NewComputedEvent creates a ComputedEvent. The aggregate id is derived from the month.
func NewComputedEvent(result *Result) *ComputedEvent {
	return &ComputedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillingComputed, AggregateTypeBilling, MonthID(result.Month)),
		Result:          result,
	}
}

// MonthID returns a stable identifier for a billing month
func MonthID(month metering.Month) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("billing:"+month.String()))
}
