// Package session holds the conversational state of each chat user between
// messages. State is an explicit enum plus a small typed payload rather than
// ambient flags, so a stale session can be inspected and expired cleanly.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
)

// ErrNotFound is returned when a user has no live session.
var ErrNotFound = errors.New("session not found")

// State names the step of the conversation the user is in.
type State string

const (
	StateIdle                State = "idle"
	StateAwaitingName        State = "awaiting_name"
	StateAwaitingPassport    State = "awaiting_passport"
	StateAwaitingDeposit     State = "awaiting_deposit_amount"
	StateAwaitingWithdrawal  State = "awaiting_withdrawal_input"
	StateAwaitingPhoto       State = "awaiting_document_photo"
	StateAwaitingAdjustment  State = "awaiting_adjustment_amount"
	StateAwaitingStaffTarget State = "awaiting_staff_target"
)

// Valid reports whether s is a known conversational state.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StateAwaitingName, StateAwaitingPassport, StateAwaitingDeposit,
		StateAwaitingWithdrawal, StateAwaitingPhoto, StateAwaitingAdjustment,
		StateAwaitingStaffTarget:
		return true
	}
	return false
}

// Session is one user's conversational position. The payload fields carry
// the selection the next message will act on.
type Session struct {
	UserID        int64              `json:"user_id"`
	State         State              `json:"state"`
	RequestKind   domain.RequestKind `json:"request_kind,omitempty"`
	RequestID     int64              `json:"request_id,omitempty"`
	ManagedUserID int64              `json:"managed_user_id,omitempty"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// Manager stores sessions keyed by chat user id. Sessions expire after the
// configured TTL; an expired or missing session reads as ErrNotFound.
type Manager interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Put(ctx context.Context, session *Session) error
	Clear(ctx context.Context, userID int64) error
}
