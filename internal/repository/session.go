package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRepository tracks live sessions so that signing out revokes a token
// before it expires.
type SessionRepository interface {
	Save(ctx context.Context, sessionID, accountID string, ttl time.Duration) error
	AccountID(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

type sessionRepository struct {
	rdb *redis.Client
}

func NewSessionRepository(rdb *redis.Client) SessionRepository {
	return &sessionRepository{rdb: rdb}
}

func (r *sessionRepository) key(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func (r *sessionRepository) Save(ctx context.Context, sessionID, accountID string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, r.key(sessionID), accountID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", translateRedis(err))
	}
	return nil
}

func (r *sessionRepository) AccountID(ctx context.Context, sessionID string) (string, error) {
	accountID, err := r.rdb.Get(ctx, r.key(sessionID)).Result()
	if err != nil {
		return "", fmt.Errorf("failed to get session: %w", translateRedis(err))
	}
	return accountID, nil
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", translateRedis(err))
	}
	return nil
}
