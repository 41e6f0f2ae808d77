package service

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/notify"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/storage/jsonstore"
)

// recordingSink captures delivered events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *recordingSink) Deliver(_ context.Context, event notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func newTestEngine(t *testing.T, adminIDs ...int64) (*Engine, *recordingSink) {
	t.Helper()
	store, err := jsonstore.Open(t.TempDir())
	require.NoError(t, err)
	sink := &recordingSink{}
	return NewEngine(store, sink, adminIDs), sink
}

func registerWithBalance(t *testing.T, e *Engine, userID int64, balance string) {
	t.Helper()
	ctx := context.Background()
	_, err := e.RegisterUser(ctx, userID, "Test User", "", "ru")
	require.NoError(t, err)
	if balance != "0" {
		_, err = e.AdjustBalance(ctx, userID, decimal.RequireFromString(balance), domain.AdjustAdd)
		require.NoError(t, err)
	}
}

func TestRegisterUserIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := e.RegisterUser(ctx, 100, "Ivan Petrov", "4510 123456", "ru")
	require.NoError(t, err)
	assert.True(t, first.Balance.IsZero())
	assert.False(t, first.Verified)

	_, err = e.AdjustBalance(ctx, 100, decimal.NewFromInt(500), domain.AdjustAdd)
	require.NoError(t, err)

	again, err := e.RegisterUser(ctx, 100, "Somebody Else", "", "en")
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrov", again.FullName, "repeat registration must not overwrite")
	assert.True(t, again.Balance.Equal(decimal.NewFromInt(500)))
}

func TestRegisterUserDefaultsLanguage(t *testing.T) {
	e, _ := newTestEngine(t)
	user, err := e.RegisterUser(context.Background(), 1, "Anna", "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLanguage, user.Language)
}

func TestDepositLifecycle(t *testing.T) {
	e, sink := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "0")

	req, err := e.CreateDepositRequest(ctx, 100, decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, req.Status)

	user, err := e.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, user.Balance.IsZero(), "submission must not touch the balance")

	resolved, err := e.ApproveDeposit(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, resolved.Status)

	user, err = e.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(300)))
	assert.True(t, user.OnHold.IsZero())
	assert.Greater(t, sink.count(), 0)
}

func TestRejectDepositLeavesBalance(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "50")

	req, err := e.CreateDepositRequest(ctx, 100, decimal.NewFromInt(300))
	require.NoError(t, err)

	resolved, err := e.RejectDeposit(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, resolved.Status)

	user, err := e.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(50)))
}

func TestDecisionIsFinal(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "0")

	req, err := e.CreateDepositRequest(ctx, 100, decimal.NewFromInt(10))
	require.NoError(t, err)
	_, err = e.ApproveDeposit(ctx, req.ID)
	require.NoError(t, err)

	_, err = e.ApproveDeposit(ctx, req.ID)
	assert.ErrorIs(t, err, domain.ErrRequestNotPending)
	_, err = e.RejectDeposit(ctx, req.ID)
	assert.ErrorIs(t, err, domain.ErrRequestNotPending)

	user, err := e.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(10)), "no double credit")
}

func TestDecideMissingRequest(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.ApproveDeposit(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
	_, err = e.RejectWithdrawal(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestWithdrawalEscrowsOnSubmit(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "500")

	req, err := e.CreateWithdrawalRequest(ctx, 100, "card 4276", decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, req.Status)

	user, err := e.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(200)))
	assert.True(t, user.OnHold.Equal(decimal.NewFromInt(300)))
}

func TestWithdrawalInsufficientBalance(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "100")

	_, err := e.CreateWithdrawalRequest(ctx, 100, "card", decimal.NewFromInt(101))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	user, err := e.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(100)), "failed submission must not move funds")
	assert.True(t, user.OnHold.IsZero())
}

func TestWithdrawalUnknownUser(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.CreateWithdrawalRequest(context.Background(), 404, "card", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestApproveWithdrawalReleasesHold(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "500")

	req, err := e.CreateWithdrawalRequest(ctx, 100, "card", decimal.NewFromInt(300))
	require.NoError(t, err)

	resolved, err := e.ApproveWithdrawal(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, resolved.Status)

	user, err := e.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(200)), "approval must not touch the balance")
	assert.True(t, user.OnHold.IsZero())
}

func TestRejectWithdrawalRefunds(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "500")

	req, err := e.CreateWithdrawalRequest(ctx, 100, "card", decimal.NewFromInt(300))
	require.NoError(t, err)

	resolved, err := e.RejectWithdrawal(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, resolved.Status)

	user, err := e.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(500)), "rejection refunds in full")
	assert.True(t, user.OnHold.IsZero())
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "100")

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.CreateWithdrawalRequest(ctx, 100, "card", decimal.NewFromInt(30))
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, accepted, "only three 30s fit into 100")

	user, err := e.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(10)))
	assert.True(t, user.OnHold.Equal(decimal.NewFromInt(90)))
	assert.False(t, user.Balance.IsNegative())

	pending, err := e.ListWithdrawals(ctx, domain.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestVerificationLifecycle(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "0")

	req, err := e.CreateVerificationRequest(ctx, 100, "photo-abc")
	require.NoError(t, err)

	require.NoError(t, e.ApproveVerification(ctx, req.ID))

	user, err := e.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.True(t, user.Verified)

	remaining, err := e.ListVerifications(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, remaining, "resolved verification requests are removed")

	err = e.ApproveVerification(ctx, req.ID)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)
}

func TestRejectVerificationAllowsResubmit(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "0")

	req, err := e.CreateVerificationRequest(ctx, 100, "photo-1")
	require.NoError(t, err)
	require.NoError(t, e.RejectVerification(ctx, req.ID))

	user, err := e.GetUser(ctx, 100)
	require.NoError(t, err)
	assert.False(t, user.Verified)

	again, err := e.CreateVerificationRequest(ctx, 100, "photo-2")
	require.NoError(t, err)
	assert.Greater(t, again.ID, req.ID, "ids are never reused")
}

func TestVerificationRequiresPhoto(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.CreateVerificationRequest(context.Background(), 100, "")
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestAdjustBalance(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "100")

	user, err := e.AdjustBalance(ctx, 100, decimal.NewFromInt(40), domain.AdjustSubtract)
	require.NoError(t, err)
	assert.True(t, user.Balance.Equal(decimal.NewFromInt(60)))

	_, err = e.AdjustBalance(ctx, 100, decimal.NewFromInt(61), domain.AdjustSubtract)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	_, err = e.AdjustBalance(ctx, 100, decimal.Zero, domain.AdjustAdd)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = e.AdjustBalance(ctx, 404, decimal.NewFromInt(5), domain.AdjustAdd)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestToggleVerification(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "0")

	user, err := e.ToggleVerification(ctx, 100)
	require.NoError(t, err)
	assert.True(t, user.Verified)

	user, err = e.ToggleVerification(ctx, 100)
	require.NoError(t, err)
	assert.False(t, user.Verified)
}

func TestSetLanguage(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "0")

	user, err := e.SetLanguage(ctx, 100, domain.LanguageEN)
	require.NoError(t, err)
	assert.Equal(t, "en", user.Language)

	_, err = e.SetLanguage(ctx, 100, "de")
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestUpdateProfile(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "0")

	name := "Ivan Petrov"
	user, err := e.UpdateProfile(ctx, 100, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrov", user.FullName)

	passport := "4510 654321"
	user, err = e.UpdateProfile(ctx, 100, nil, &passport)
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrov", user.FullName)
	assert.Equal(t, "4510 654321", user.Passport)

	_, err = e.UpdateProfile(ctx, 404, &name, nil)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestStaffSetIsUnionOfAdminsAndRoster(t *testing.T) {
	e, _ := newTestEngine(t, 1, 2)
	ctx := context.Background()

	ok, err := e.IsStaff(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.IsStaff(ctx, 50)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.AddStaff(ctx, 50, "Olga"))
	ok, err = e.IsStaff(ctx, 50)
	require.NoError(t, err)
	assert.True(t, ok)

	// Re-adding is a no-op.
	require.NoError(t, e.AddStaff(ctx, 50, "Olga"))
	members, err := e.ListStaff(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestReconciliationRunsClean(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	registerWithBalance(t, e, 100, "500")
	registerWithBalance(t, e, 200, "80")

	_, err := e.CreateWithdrawalRequest(ctx, 100, "card", decimal.NewFromInt(300))
	require.NoError(t, err)
	_, err = e.CreateWithdrawalRequest(ctx, 200, "card", decimal.NewFromInt(80))
	require.NoError(t, err)

	svc := NewReconciliationService(e)
	require.NoError(t, svc.Run(ctx))
}
