// Package notify delivers lifecycle events to interested parties. Delivery is
// best effort and happens after the owning state change has been committed; a
// failed delivery never rolls anything back.
package notify

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
)

// Event describes one lifecycle transition worth announcing.
type Event struct {
	Kind      domain.RequestKind `json:"kind"`
	RequestID int64              `json:"request_id,omitempty"`
	UserID    int64              `json:"user_id"`
	Status    domain.Status      `json:"status"`
	Amount    decimal.Decimal    `json:"amount,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// Sink represents a delivery channel for lifecycle events.
type Sink interface {
	// Deliver sends one event. Implementations return an error only for
	// diagnostics; callers must not treat a failure as fatal.
	Deliver(ctx context.Context, event Event) error
}
