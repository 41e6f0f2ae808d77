// Package storage defines the persistence contracts consumed by the
// lifecycle engine. Two backends implement them: jsonstore (durable JSON
// files, the default) and postgres.
package storage

import (
	"context"
	"errors"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/models"
)

// ErrNotFound is returned by lookups that reference an absent record. The
// engine translates it into the user-facing taxonomy.
var ErrNotFound = errors.New("record not found")

// Ledger is the durable user collection. Upsert replaces the whole record
// keyed by user id; callers follow a read-modify-write discipline and are
// responsible for serializing conflicting writers.
type Ledger interface {
	Get(ctx context.Context, userID int64) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	List(ctx context.Context) ([]models.User, error)
}

// DepositRequests is the durable deposit request collection. Append assigns
// the next identifier from a monotonic counter owned by the store, so ids
// are never reused even after deletions.
type DepositRequests interface {
	Append(ctx context.Context, req *models.DepositRequest) error
	Get(ctx context.Context, id int64) (*models.DepositRequest, error)
	List(ctx context.Context, status domain.Status) ([]models.DepositRequest, error)
	SetStatus(ctx context.Context, id int64, status domain.Status) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// WithdrawalRequests mirrors DepositRequests for withdrawals.
type WithdrawalRequests interface {
	Append(ctx context.Context, req *models.WithdrawalRequest) error
	Get(ctx context.Context, id int64) (*models.WithdrawalRequest, error)
	List(ctx context.Context, status domain.Status) ([]models.WithdrawalRequest, error)
	SetStatus(ctx context.Context, id int64, status domain.Status) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// VerificationRequests mirrors DepositRequests for identity verification.
// Delete is the terminal transition here: resolved requests are removed.
type VerificationRequests interface {
	Append(ctx context.Context, req *models.VerificationRequest) error
	Get(ctx context.Context, id int64) (*models.VerificationRequest, error)
	List(ctx context.Context, status domain.Status) ([]models.VerificationRequest, error)
	SetStatus(ctx context.Context, id int64, status domain.Status) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// Staff is the persisted part of the flat staff roster. Add is idempotent
// on user id.
type Staff interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
	Add(ctx context.Context, member *models.StaffMember) error
	List(ctx context.Context) ([]models.StaffMember, error)
}

// Store bundles the five collections of one backend.
type Store interface {
	Ledger() Ledger
	Deposits() DepositRequests
	Withdrawals() WithdrawalRequests
	Verifications() VerificationRequests
	Staff() Staff
	Close() error
}
