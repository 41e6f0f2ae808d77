// Package service implements the request lifecycle engine: request
// submission, staff decisions, and the balance ledger they mutate.
package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/models"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/notify"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage"
)

// Engine owns every mutation of the ledger and the request collections.
// Operations that touch more than one collection take the collection locks in
// a fixed order: ledger, deposits, withdrawals, verifications. Taking them in
// that order only is what keeps concurrent submissions and decisions free of
// both deadlock and balance races.
type Engine struct {
	store  storage.Store
	sink   notify.Sink
	admins map[int64]struct{}

	ledgerMu        sync.Mutex
	depositsMu      sync.Mutex
	withdrawalsMu   sync.Mutex
	verificationsMu sync.Mutex
}

// NewEngine creates the engine. adminIDs are staff regardless of the
// persisted roster.
func NewEngine(store storage.Store, sink notify.Sink, adminIDs []int64) *Engine {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &Engine{
		store:  store,
		sink:   sink,
		admins: admins,
	}
}

// notifyUser delivers a lifecycle event after the owning mutation committed.
// Failures are logged and dropped.
func (e *Engine) notifyUser(ctx context.Context, event notify.Event) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Deliver(ctx, event); err != nil {
		zap.L().Warn("notification delivery failed",
			zap.Int64("user_id", event.UserID),
			zap.String("kind", string(event.Kind)),
			zap.Error(err),
		)
	}
}

// getUser loads a ledger record, translating the storage miss into the
// engine's taxonomy. Callers hold ledgerMu when they intend to write back.
func (e *Engine) getUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := e.store.Ledger().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
