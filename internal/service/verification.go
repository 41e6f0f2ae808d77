package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/models"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/notify"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/observability"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage"
)

// CreateVerificationRequest records a pending identity check. photoRef is the
// chat transport's opaque handle for the document photo.
func (e *Engine) CreateVerificationRequest(ctx context.Context, userID int64, photoRef string) (*models.VerificationRequest, error) {
	if photoRef == "" {
		return nil, fmt.Errorf("%w: document photo is required", domain.ErrMalformedInput)
	}

	e.verificationsMu.Lock()
	defer e.verificationsMu.Unlock()

	req := &models.VerificationRequest{
		UserID:    userID,
		PhotoRef:  photoRef,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.Verifications().Append(ctx, req); err != nil {
		return nil, fmt.Errorf("create verification request: %w", err)
	}

	e.notifyUser(ctx, notify.Event{
		Kind:      domain.KindVerification,
		RequestID: req.ID,
		UserID:    userID,
		Status:    domain.StatusPending,
		Message:   fmt.Sprintf("verification request #%d submitted", req.ID),
	})
	return req, nil
}

// ApproveVerification marks the user verified and removes the request.
// Resolved verification requests are deleted rather than archived; the
// verified flag on the user is the durable outcome.
func (e *Engine) ApproveVerification(ctx context.Context, requestID int64) error {
	e.ledgerMu.Lock()
	defer e.ledgerMu.Unlock()
	e.verificationsMu.Lock()
	defer e.verificationsMu.Unlock()

	req, err := e.pendingVerification(ctx, requestID)
	if err != nil {
		return err
	}
	user, err := e.getUser(ctx, req.UserID)
	if err != nil {
		return err
	}

	user.Verified = true
	if err := e.store.Ledger().Upsert(ctx, user); err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if _, err := e.store.Verifications().Delete(ctx, requestID); err != nil {
		return fmt.Errorf("remove verification request: %w", err)
	}

	observability.IncrementRequestDecision(string(domain.KindVerification), string(domain.StatusApproved))
	e.notifyUser(ctx, notify.Event{
		Kind:      domain.KindVerification,
		RequestID: requestID,
		UserID:    req.UserID,
		Status:    domain.StatusApproved,
		Message:   "identity verification approved",
	})
	return nil
}

// RejectVerification removes the request without touching the user record.
func (e *Engine) RejectVerification(ctx context.Context, requestID int64) error {
	e.verificationsMu.Lock()
	defer e.verificationsMu.Unlock()

	req, err := e.pendingVerification(ctx, requestID)
	if err != nil {
		return err
	}
	if _, err := e.store.Verifications().Delete(ctx, requestID); err != nil {
		return fmt.Errorf("remove verification request: %w", err)
	}

	observability.IncrementRequestDecision(string(domain.KindVerification), string(domain.StatusRejected))
	e.notifyUser(ctx, notify.Event{
		Kind:      domain.KindVerification,
		RequestID: requestID,
		UserID:    req.UserID,
		Status:    domain.StatusRejected,
		Message:   "identity verification rejected, submit a new document photo",
	})
	return nil
}

// ListVerifications returns verification requests, optionally filtered by
// status. Only pending ones exist in practice since decisions delete.
func (e *Engine) ListVerifications(ctx context.Context, status domain.Status) ([]models.VerificationRequest, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrMalformedInput, status)
	}
	reqs, err := e.store.Verifications().List(ctx, status)
	if err != nil {
		return nil, err
	}
	if status == domain.StatusPending {
		observability.SetPendingQueueSize(string(domain.KindVerification), len(reqs))
	}
	return reqs, nil
}

func (e *Engine) pendingVerification(ctx context.Context, requestID int64) (*models.VerificationRequest, error) {
	req, err := e.store.Verifications().Get(ctx, requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, err
	}
	if req.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: verification #%d is %s", domain.ErrRequestNotPending, req.ID, req.Status)
	}
	return req, nil
}
