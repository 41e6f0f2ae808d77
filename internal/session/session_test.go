package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/domain"
)

func TestMemoryManagerRoundTrip(t *testing.T) {
	m := NewMemoryManager(time.Minute)
	ctx := context.Background()

	_, err := m.Get(ctx, 100)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Put(ctx, &Session{
		UserID:      100,
		State:       StateAwaitingWithdrawal,
		RequestKind: domain.KindWithdrawal,
	}))

	got, err := m.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingWithdrawal, got.State)
	assert.Equal(t, domain.KindWithdrawal, got.RequestKind)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestMemoryManagerClear(t *testing.T) {
	m := NewMemoryManager(time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, &Session{UserID: 100, State: StateIdle}))
	require.NoError(t, m.Clear(ctx, 100))

	_, err := m.Get(ctx, 100)
	assert.ErrorIs(t, err, ErrNotFound)

	// Clearing an absent session is fine.
	require.NoError(t, m.Clear(ctx, 100))
}

func TestMemoryManagerExpiry(t *testing.T) {
	m := NewMemoryManager(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, &Session{UserID: 100, State: StateAwaitingPhoto}))
	time.Sleep(30 * time.Millisecond)

	_, err := m.Get(ctx, 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryManagerReturnsCopy(t *testing.T) {
	m := NewMemoryManager(time.Minute)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, &Session{UserID: 100, State: StateIdle}))

	got, err := m.Get(ctx, 100)
	require.NoError(t, err)
	got.State = StateAwaitingDeposit

	again, err := m.Get(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, again.State, "mutating a returned session must not leak into the store")
}

func TestStateValid(t *testing.T) {
	assert.True(t, StateIdle.Valid())
	assert.True(t, StateAwaitingAdjustment.Valid())
	assert.False(t, State("typing").Valid())
}
