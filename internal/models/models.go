package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
)

// User is a registered client of the brokerage. Balance and OnHold are
// maintained exclusively by the lifecycle engine: OnHold always equals the
// sum of the user's pending withdrawal amounts.
type User struct {
	ID       int64           `json:"user_id"`
	FullName string          `json:"full_name"`
	Passport string          `json:"passport,omitempty"`
	Balance  decimal.Decimal `json:"balance"`
	OnHold   decimal.Decimal `json:"on_hold"`
	Verified bool            `json:"verified"`
	Language string          `json:"language"`
}

// DepositRequest asks staff to credit the user's balance. The balance is
// touched only on approval.
type DepositRequest struct {
	ID        int64           `json:"request_id"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    domain.Status   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// WithdrawalRequest asks staff to pay out escrowed funds. The amount is
// debited from the balance and moved on hold at submission time.
type WithdrawalRequest struct {
	ID        int64           `json:"request_id"`
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Details   string          `json:"details"`
	Status    domain.Status   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// VerificationRequest carries an opaque reference to the identity document
// photo held by the chat transport. Resolved requests are deleted rather
// than retained.
type VerificationRequest struct {
	ID        int64         `json:"request_id"`
	UserID    int64         `json:"user_id"`
	PhotoRef  string        `json:"photo_file_id"`
	Status    domain.Status `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// StaffMember is an entry in the flat staff roster.
type StaffMember struct {
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
}
