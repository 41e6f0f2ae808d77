package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/observability"
)

// ReconciliationService verifies the escrow invariant: for every user, the
// on-hold total must equal the sum of that user's pending withdrawal amounts.
type ReconciliationService struct {
	engine *Engine
}

// NewReconciliationService creates a reconciliation service.
func NewReconciliationService(engine *Engine) *ReconciliationService {
	return &ReconciliationService{engine: engine}
}

// Run recomputes the invariant across the whole ledger. Divergence is
// reported through metrics and the log; it is not an error of the run itself.
func (s *ReconciliationService) Run(ctx context.Context) error {
	e := s.engine
	e.ledgerMu.Lock()
	defer e.ledgerMu.Unlock()
	e.withdrawalsMu.Lock()
	defer e.withdrawalsMu.Unlock()

	users, err := e.store.Ledger().List(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	pending, err := e.store.Withdrawals().List(ctx, domain.StatusPending)
	if err != nil {
		return fmt.Errorf("load pending withdrawals: %w", err)
	}

	held := make(map[int64]decimal.Decimal, len(users))
	for _, w := range pending {
		held[w.UserID] = held[w.UserID].Add(w.Amount)
	}

	balanced := true
	known := make(map[int64]struct{}, len(users))
	for _, u := range users {
		known[u.ID] = struct{}{}
		want := held[u.ID]
		if u.OnHold.Equal(want) {
			continue
		}
		balanced = false
		observability.IncrementHoldImbalance()
		zap.L().Error("CRITICAL: on-hold total diverged from pending withdrawals",
			zap.Int64("user_id", u.ID),
			zap.String("on_hold", u.OnHold.String()),
			zap.String("pending_sum", want.String()),
		)
	}
	for userID, want := range held {
		if _, ok := known[userID]; ok {
			continue
		}
		balanced = false
		observability.IncrementHoldImbalance()
		zap.L().Error("CRITICAL: pending withdrawals for unknown user",
			zap.Int64("user_id", userID),
			zap.String("pending_sum", want.String()),
		)
	}

	if balanced {
		zap.L().Info("escrow holds balanced",
			zap.Int("users", len(users)),
			zap.Int("pending_withdrawals", len(pending)),
		)
	}
	observability.SetPendingQueueSize(string(domain.KindWithdrawal), len(pending))
	return nil
}
