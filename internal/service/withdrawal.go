package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/models"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/notify"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/observability"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage"
)

// CreateWithdrawalRequest escrows the amount at submission time: the user's
// available balance drops and the on-hold total rises before the request is
// recorded, so two concurrent submissions can never both spend the same
// funds.
func (e *Engine) CreateWithdrawalRequest(ctx context.Context, userID int64, details string, amount decimal.Decimal) (*models.WithdrawalRequest, error) {
	if details == "" {
		return nil, fmt.Errorf("%w: payout details are required", domain.ErrMalformedInput)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: must be positive", domain.ErrInvalidAmount)
	}

	e.ledgerMu.Lock()
	defer e.ledgerMu.Unlock()
	e.withdrawalsMu.Lock()
	defer e.withdrawalsMu.Unlock()

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Balance.LessThan(amount) {
		return nil, fmt.Errorf("%w: balance %s, requested %s",
			domain.ErrInsufficientBalance, domain.FormatAmount(user.Balance), domain.FormatAmount(amount))
	}

	user.Balance = user.Balance.Sub(amount)
	user.OnHold = user.OnHold.Add(amount)
	if err := e.store.Ledger().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("escrow withdrawal: %w", err)
	}

	req := &models.WithdrawalRequest{
		UserID:    userID,
		Amount:    amount,
		Details:   details,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.Withdrawals().Append(ctx, req); err != nil {
		// Put the escrowed funds back so the ledger does not leak a hold
		// with no matching request.
		user.Balance = user.Balance.Add(amount)
		user.OnHold = user.OnHold.Sub(amount)
		if rbErr := e.store.Ledger().Upsert(ctx, user); rbErr != nil {
			zap.L().Error("failed to release escrow after append failure",
				zap.Int64("user_id", userID),
				zap.String("amount", amount.String()),
				zap.Error(rbErr),
			)
		}
		return nil, fmt.Errorf("create withdrawal request: %w", err)
	}

	e.notifyUser(ctx, notify.Event{
		Kind:      domain.KindWithdrawal,
		RequestID: req.ID,
		UserID:    userID,
		Status:    domain.StatusPending,
		Amount:    amount,
		Message:   fmt.Sprintf("withdrawal request #%d for %s submitted, funds on hold", req.ID, domain.FormatAmount(amount)),
	})
	return req, nil
}

// ApproveWithdrawal releases the escrowed amount out of the system: the hold
// shrinks and the funds leave. The available balance is untouched because the
// submission already debited it.
func (e *Engine) ApproveWithdrawal(ctx context.Context, requestID int64) (*models.WithdrawalRequest, error) {
	e.ledgerMu.Lock()
	defer e.ledgerMu.Unlock()
	e.withdrawalsMu.Lock()
	defer e.withdrawalsMu.Unlock()

	req, err := e.pendingWithdrawal(ctx, requestID)
	if err != nil {
		return nil, err
	}
	user, err := e.getUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if err := e.store.Withdrawals().SetStatus(ctx, requestID, domain.StatusApproved); err != nil {
		return nil, fmt.Errorf("approve withdrawal: %w", err)
	}
	req.Status = domain.StatusApproved

	user.OnHold = user.OnHold.Sub(req.Amount)
	if err := e.store.Ledger().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("release hold: %w", err)
	}

	observability.IncrementRequestDecision(string(domain.KindWithdrawal), string(domain.StatusApproved))
	e.notifyUser(ctx, notify.Event{
		Kind:      domain.KindWithdrawal,
		RequestID: req.ID,
		UserID:    req.UserID,
		Status:    domain.StatusApproved,
		Amount:    req.Amount,
		Message:   fmt.Sprintf("withdrawal #%d for %s paid out", req.ID, domain.FormatAmount(req.Amount)),
	})
	return req, nil
}

// RejectWithdrawal refunds the escrowed amount in full: the hold shrinks and
// the available balance grows by the same amount.
func (e *Engine) RejectWithdrawal(ctx context.Context, requestID int64) (*models.WithdrawalRequest, error) {
	e.ledgerMu.Lock()
	defer e.ledgerMu.Unlock()
	e.withdrawalsMu.Lock()
	defer e.withdrawalsMu.Unlock()

	req, err := e.pendingWithdrawal(ctx, requestID)
	if err != nil {
		return nil, err
	}
	user, err := e.getUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if err := e.store.Withdrawals().SetStatus(ctx, requestID, domain.StatusRejected); err != nil {
		return nil, fmt.Errorf("reject withdrawal: %w", err)
	}
	req.Status = domain.StatusRejected

	user.OnHold = user.OnHold.Sub(req.Amount)
	user.Balance = user.Balance.Add(req.Amount)
	if err := e.store.Ledger().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("refund withdrawal: %w", err)
	}

	observability.IncrementRequestDecision(string(domain.KindWithdrawal), string(domain.StatusRejected))
	e.notifyUser(ctx, notify.Event{
		Kind:      domain.KindWithdrawal,
		RequestID: req.ID,
		UserID:    req.UserID,
		Status:    domain.StatusRejected,
		Amount:    req.Amount,
		Message:   fmt.Sprintf("withdrawal #%d rejected, %s returned to balance", req.ID, domain.FormatAmount(req.Amount)),
	})
	return req, nil
}

// ListWithdrawals returns withdrawal requests, optionally filtered by status.
func (e *Engine) ListWithdrawals(ctx context.Context, status domain.Status) ([]models.WithdrawalRequest, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrMalformedInput, status)
	}
	reqs, err := e.store.Withdrawals().List(ctx, status)
	if err != nil {
		return nil, err
	}
	if status == domain.StatusPending {
		observability.SetPendingQueueSize(string(domain.KindWithdrawal), len(reqs))
	}
	return reqs, nil
}

func (e *Engine) pendingWithdrawal(ctx context.Context, requestID int64) (*models.WithdrawalRequest, error) {
	req, err := e.store.Withdrawals().Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	if req.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: withdrawal #%d is %s", domain.ErrRequestNotPending, req.ID, req.Status)
	}
	return req, nil
}
