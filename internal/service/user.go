package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/models"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/notify"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage"
)

// RegisterUser creates a ledger record for a new chat user. Registration is
// idempotent: a second call for a known id returns the existing record
// untouched, balances included.
func (e *Engine) RegisterUser(ctx context.Context, userID int64, fullName, passport, language string) (*models.User, error) {
	if language == "" {
		language = domain.DefaultLanguage
	}

	e.ledgerMu.Lock()
	defer e.ledgerMu.Unlock()

	existing, err := e.store.Ledger().Get(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	user := &models.User{
		ID:       userID,
		FullName: fullName,
		Passport: passport,
		Balance:  decimal.Zero,
		OnHold:   decimal.Zero,
		Language: language,
	}
	if err := e.store.Ledger().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	return user, nil
}

// GetUser returns one ledger record.
func (e *Engine) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return e.getUser(ctx, userID)
}

// ListUsers returns every ledger record.
func (e *Engine) ListUsers(ctx context.Context) ([]models.User, error) {
	return e.store.Ledger().List(ctx)
}

// UpdateProfile changes a user's name and/or passport. Nil fields are left
// untouched.
func (e *Engine) UpdateProfile(ctx context.Context, userID int64, fullName, passport *string) (*models.User, error) {
	e.ledgerMu.Lock()
	defer e.ledgerMu.Unlock()

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if fullName != nil {
		user.FullName = *fullName
	}
	if passport != nil {
		user.Passport = *passport
	}
	if err := e.store.Ledger().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// SetLanguage switches the user's interface language.
func (e *Engine) SetLanguage(ctx context.Context, userID int64, language string) (*models.User, error) {
	if language != domain.LanguageRU && language != domain.LanguageEN {
		return nil, fmt.Errorf("%w: unsupported language %q", domain.ErrMalformedInput, language)
	}

	e.ledgerMu.Lock()
	defer e.ledgerMu.Unlock()

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Language = language
	if err := e.store.Ledger().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	return user, nil
}

// AdjustBalance applies a direct staff correction to the available balance.
// The amount must be positive; the mode picks the direction. Subtracting more
// than the available balance is refused.
func (e *Engine) AdjustBalance(ctx context.Context, userID int64, amount decimal.Decimal, mode domain.AdjustMode) (*models.User, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: must be positive", domain.ErrInvalidAmount)
	}
	if mode != domain.AdjustAdd && mode != domain.AdjustSubtract {
		return nil, fmt.Errorf("%w: unknown adjustment mode %q", domain.ErrMalformedInput, mode)
	}

	e.ledgerMu.Lock()
	defer e.ledgerMu.Unlock()

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch mode {
	case domain.AdjustAdd:
		user.Balance = user.Balance.Add(amount)
	case domain.AdjustSubtract:
		if user.Balance.LessThan(amount) {
			return nil, fmt.Errorf("%w: balance %s, requested %s",
				domain.ErrInsufficientBalance, domain.FormatAmount(user.Balance), domain.FormatAmount(amount))
		}
		user.Balance = user.Balance.Sub(amount)
	}
	if err := e.store.Ledger().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("adjust balance: %w", err)
	}

	verb := "increased"
	if mode == domain.AdjustSubtract {
		verb = "decreased"
	}
	e.notifyUser(ctx, notify.Event{
		UserID:  user.ID,
		Amount:  amount,
		Message: fmt.Sprintf("balance %s by %s, now %s", verb, domain.FormatAmount(amount), domain.FormatAmount(user.Balance)),
	})
	return user, nil
}

// ToggleVerification flips the user's verified flag.
func (e *Engine) ToggleVerification(ctx context.Context, userID int64) (*models.User, error) {
	e.ledgerMu.Lock()
	defer e.ledgerMu.Unlock()

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Verified = !user.Verified
	if err := e.store.Ledger().Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("toggle verification: %w", err)
	}

	state := "revoked"
	if user.Verified {
		state = "granted"
	}
	e.notifyUser(ctx, notify.Event{
		UserID:  user.ID,
		Message: "verification " + state,
	})
	return user, nil
}
