// Package jsonstore persists each collection as one JSON file under a data
// directory, mirroring the legacy bot's users.json / deposits.json /
// withdrawals.json / verifications.json / staff.json layout. Every mutation
// rewrites the whole file atomically.
package jsonstore

import (
	"context"
	"fmt"
	"os"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/models"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage"
)

const (
	usersFile         = "users.json"
	depositsFile      = "deposits.json"
	withdrawalsFile   = "withdrawals.json"
	verificationsFile = "verifications.json"
	staffFile         = "staff.json"
)

// Store is the file-backed storage.Store implementation.
type Store struct {
	ledger        *ledgerStore
	deposits      *requestStore[models.DepositRequest]
	withdrawals   *requestStore[models.WithdrawalRequest]
	verifications *requestStore[models.VerificationRequest]
	staff         *staffStore
}

var _ storage.Store = (*Store)(nil)

// Open loads (or creates) the collection files under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	users, err := openCollection[models.User](dir, usersFile, nil)
	if err != nil {
		return nil, err
	}
	staff, err := openCollection[models.StaffMember](dir, staffFile, nil)
	if err != nil {
		return nil, err
	}
	deposits, err := openCollection[models.DepositRequest](dir, depositsFile,
		func(r models.DepositRequest) int64 { return r.ID })
	if err != nil {
		return nil, err
	}
	withdrawals, err := openCollection[models.WithdrawalRequest](dir, withdrawalsFile,
		func(r models.WithdrawalRequest) int64 { return r.ID })
	if err != nil {
		return nil, err
	}
	verifications, err := openCollection[models.VerificationRequest](dir, verificationsFile,
		func(r models.VerificationRequest) int64 { return r.ID })
	if err != nil {
		return nil, err
	}

	return &Store{
		ledger: &ledgerStore{col: users},
		staff:  &staffStore{col: staff},
		deposits: &requestStore[models.DepositRequest]{
			col:    deposits,
			id:     func(r *models.DepositRequest) *int64 { return &r.ID },
			status: func(r *models.DepositRequest) *domain.Status { return &r.Status },
		},
		withdrawals: &requestStore[models.WithdrawalRequest]{
			col:    withdrawals,
			id:     func(r *models.WithdrawalRequest) *int64 { return &r.ID },
			status: func(r *models.WithdrawalRequest) *domain.Status { return &r.Status },
		},
		verifications: &requestStore[models.VerificationRequest]{
			col:    verifications,
			id:     func(r *models.VerificationRequest) *int64 { return &r.ID },
			status: func(r *models.VerificationRequest) *domain.Status { return &r.Status },
		},
	}, nil
}

func (s *Store) Ledger() storage.Ledger                       { return s.ledger }
func (s *Store) Deposits() storage.DepositRequests            { return s.deposits }
func (s *Store) Withdrawals() storage.WithdrawalRequests      { return s.withdrawals }
func (s *Store) Verifications() storage.VerificationRequests  { return s.verifications }
func (s *Store) Staff() storage.Staff                         { return s.staff }
func (s *Store) Close() error                                 { return nil }

// ledgerStore implements storage.Ledger over the users file.
type ledgerStore struct {
	col *collection[models.User]
}

func (s *ledgerStore) Get(_ context.Context, userID int64) (*models.User, error) {
	for _, u := range s.col.snapshot() {
		if u.ID == userID {
			u := u
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}

// Upsert splices the record over an existing entry with the same id, or
// appends a new one, then rewrites the file.
func (s *ledgerStore) Upsert(_ context.Context, user *models.User) error {
	return s.col.update(func(items []models.User, nextID int64) ([]models.User, int64, error) {
		for i := range items {
			if items[i].ID == user.ID {
				items[i] = *user
				return items, nextID, nil
			}
		}
		return append(items, *user), nextID, nil
	})
}

func (s *ledgerStore) List(_ context.Context) ([]models.User, error) {
	return s.col.snapshot(), nil
}

// requestStore implements the shared request-collection contract for all
// three request types. The id and status accessors let one implementation
// serve the three record shapes.
type requestStore[T any] struct {
	col    *collection[T]
	id     func(*T) *int64
	status func(*T) *domain.Status
}

func (s *requestStore[T]) Append(_ context.Context, req *T) error {
	return s.col.update(func(items []T, nextID int64) ([]T, int64, error) {
		*s.id(req) = nextID
		return append(items, *req), nextID + 1, nil
	})
}

func (s *requestStore[T]) Get(_ context.Context, id int64) (*T, error) {
	for _, item := range s.col.snapshot() {
		item := item
		if *s.id(&item) == id {
			return &item, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *requestStore[T]) List(_ context.Context, status domain.Status) ([]T, error) {
	all := s.col.snapshot()
	if status == "" {
		return all, nil
	}
	out := make([]T, 0, len(all))
	for _, item := range all {
		item := item
		if *s.status(&item) == status {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *requestStore[T]) SetStatus(_ context.Context, id int64, status domain.Status) error {
	return s.col.update(func(items []T, nextID int64) ([]T, int64, error) {
		for i := range items {
			if *s.id(&items[i]) == id {
				*s.status(&items[i]) = status
				return items, nextID, nil
			}
		}
		return nil, 0, storage.ErrNotFound
	})
}

func (s *requestStore[T]) Delete(_ context.Context, id int64) (bool, error) {
	found := false
	err := s.col.update(func(items []T, nextID int64) ([]T, int64, error) {
		kept := items[:0]
		for i := range items {
			if *s.id(&items[i]) == id {
				found = true
				continue
			}
			kept = append(kept, items[i])
		}
		return kept, nextID, nil
	})
	return found, err
}

// staffStore implements storage.Staff over the staff file.
type staffStore struct {
	col *collection[models.StaffMember]
}

func (s *staffStore) IsMember(_ context.Context, userID int64) (bool, error) {
	for _, m := range s.col.snapshot() {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *staffStore) Add(_ context.Context, member *models.StaffMember) error {
	return s.col.update(func(items []models.StaffMember, nextID int64) ([]models.StaffMember, int64, error) {
		for _, m := range items {
			if m.UserID == member.UserID {
				return items, nextID, nil
			}
		}
		return append(items, *member), nextID, nil
	})
}

func (s *staffStore) List(_ context.Context) ([]models.StaffMember, error) {
	return s.col.snapshot(), nil
}
