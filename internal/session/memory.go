package session

import (
	"context"
	"sync"
	"time"
)

// MemoryManager keeps sessions in process memory. It is the fallback when no
// Redis endpoint is configured, and the backend of choice in tests.
type MemoryManager struct {
	ttl time.Duration

	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewMemoryManager creates an in-memory manager.
func NewMemoryManager(ttl time.Duration) *MemoryManager {
	return &MemoryManager{
		ttl:      ttl,
		sessions: make(map[int64]*Session),
	}
}

func (m *MemoryManager) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if m.ttl > 0 && time.Since(s.UpdatedAt) > m.ttl {
		delete(m.sessions, userID)
		return nil, ErrNotFound
	}
	out := *s
	return &out, nil
}

func (m *MemoryManager) Put(_ context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session.UpdatedAt = time.Now().UTC()
	stored := *session
	m.sessions[session.UserID] = &stored
	return nil
}

func (m *MemoryManager) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}
