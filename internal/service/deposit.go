package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/models"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/notify"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/observability"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage"
)

// CreateDepositRequest records a pending deposit. The balance is not touched
// until staff approve it.
func (e *Engine) CreateDepositRequest(ctx context.Context, userID int64, amount decimal.Decimal) (*models.DepositRequest, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: must be positive", domain.ErrInvalidAmount)
	}

	e.depositsMu.Lock()
	defer e.depositsMu.Unlock()

	req := &models.DepositRequest{
		UserID:    userID,
		Amount:    amount,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.Deposits().Append(ctx, req); err != nil {
		return nil, fmt.Errorf("create deposit request: %w", err)
	}

	e.notifyUser(ctx, notify.Event{
		Kind:      domain.KindDeposit,
		RequestID: req.ID,
		UserID:    userID,
		Status:    domain.StatusPending,
		Amount:    amount,
		Message:   fmt.Sprintf("deposit request #%d for %s submitted", req.ID, domain.FormatAmount(amount)),
	})
	return req, nil
}

// ApproveDeposit credits the request amount to the user's balance. The
// request must still be pending; the decision is final.
func (e *Engine) ApproveDeposit(ctx context.Context, requestID int64) (*models.DepositRequest, error) {
	e.ledgerMu.Lock()
	defer e.ledgerMu.Unlock()
	e.depositsMu.Lock()
	defer e.depositsMu.Unlock()

	req, err := e.pendingDeposit(ctx, requestID)
	if err != nil {
		return nil, err
	}
	user, err := e.getUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if err := e.store.Deposits().SetStatus(ctx, requestID, domain.StatusApproved); err != nil {
		return nil, fmt.Errorf("approve deposit: %w", err)
	}
	req.Status = domain.StatusApproved

	user.Balance = user.Balance.Add(req.Amount)
	if err := e.store.Ledger().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("credit deposit: %w", err)
	}

	observability.IncrementRequestDecision(string(domain.KindDeposit), string(domain.StatusApproved))
	e.notifyUser(ctx, notify.Event{
		Kind:      domain.KindDeposit,
		RequestID: req.ID,
		UserID:    req.UserID,
		Status:    domain.StatusApproved,
		Amount:    req.Amount,
		Message:   fmt.Sprintf("deposit #%d approved, balance is now %s", req.ID, domain.FormatAmount(user.Balance)),
	})
	return req, nil
}

// RejectDeposit marks the request rejected. No ledger movement happens since
// none happened at submission.
func (e *Engine) RejectDeposit(ctx context.Context, requestID int64) (*models.DepositRequest, error) {
	e.depositsMu.Lock()
	defer e.depositsMu.Unlock()

	req, err := e.pendingDeposit(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := e.store.Deposits().SetStatus(ctx, requestID, domain.StatusRejected); err != nil {
		return nil, fmt.Errorf("reject deposit: %w", err)
	}
	req.Status = domain.StatusRejected

	observability.IncrementRequestDecision(string(domain.KindDeposit), string(domain.StatusRejected))
	e.notifyUser(ctx, notify.Event{
		Kind:      domain.KindDeposit,
		RequestID: req.ID,
		UserID:    req.UserID,
		Status:    domain.StatusRejected,
		Amount:    req.Amount,
		Message:   fmt.Sprintf("deposit #%d rejected", req.ID),
	})
	return req, nil
}

// ListDeposits returns deposit requests, optionally filtered by status.
func (e *Engine) ListDeposits(ctx context.Context, status domain.Status) ([]models.DepositRequest, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrMalformedInput, status)
	}
	reqs, err := e.store.Deposits().List(ctx, status)
	if err != nil {
		return nil, err
	}
	if status == domain.StatusPending {
		observability.SetPendingQueueSize(string(domain.KindDeposit), len(reqs))
	}
	return reqs, nil
}

func (e *Engine) pendingDeposit(ctx context.Context, requestID int64) (*models.DepositRequest, error) {
	req, err := e.store.Deposits().Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	if req.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: deposit #%d is %s", domain.ErrRequestNotPending, req.ID, req.Status)
	}
	return req, nil
}
