package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session"

// RedisManager keeps sessions in Redis with a TTL, surviving service
// restarts and shared across replicas.
type RedisManager struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisManager creates a Redis-backed manager.
func NewRedisManager(client redis.Cmdable, ttl time.Duration) *RedisManager {
	return &RedisManager{client: client, ttl: ttl}
}

func (m *RedisManager) Get(ctx context.Context, userID int64) (*Session, error) {
	val, err := m.client.Get(ctx, redisKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (m *RedisManager) Put(ctx context.Context, session *Session) error {
	session.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := m.client.Set(ctx, redisKey(session.UserID), payload, m.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (m *RedisManager) Clear(ctx context.Context, userID int64) error {
	if err := m.client.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func redisKey(userID int64) string {
	return fmt.Sprintf("%s:%d", redisKeyPrefix, userID)
}
