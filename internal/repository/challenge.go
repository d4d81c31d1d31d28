package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tush00nka/filestash/internal/model"
)

// ChallengeRepository stores pending email one-time codes keyed by account.
type ChallengeRepository interface {
	Save(ctx context.Context, code *model.VerificationCode) error
	Get(ctx context.Context, accountID string) (*model.VerificationCode, error)
	// CountAttempt atomically records one verification attempt and returns the
	// number of attempts made against the current code, this one included.
	CountAttempt(ctx context.Context, accountID string, ttl time.Duration) (int, error)
	Delete(ctx context.Context, accountID string) error
}

type challengeRepository struct {
	rdb *redis.Client
}

func NewChallengeRepository(rdb *redis.Client) ChallengeRepository {
	return &challengeRepository{rdb: rdb}
}

func (r *challengeRepository) key(accountID string) string {
	return fmt.Sprintf("verification:%s", accountID)
}

func (r *challengeRepository) attemptsKey(accountID string) string {
	return fmt.Sprintf("verification:%s:attempts", accountID)
}

// Save stores code until its ExpiresAt, replacing any earlier code of the
// account and resetting its attempt counter.
func (r *challengeRepository) Save(ctx context.Context, code *model.VerificationCode) error {
	ttl := time.Until(code.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("verification code for %s already expired", code.AccountID)
	}

	data, err := json.Marshal(code)
	if err != nil {
		return fmt.Errorf("failed to marshal verification code: %w", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key(code.AccountID), data, ttl)
		pipe.Del(ctx, r.attemptsKey(code.AccountID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save verification code: %w", translateRedis(err))
	}
	return nil
}

func (r *challengeRepository) Get(ctx context.Context, accountID string) (*model.VerificationCode, error) {
	data, err := r.rdb.Get(ctx, r.key(accountID)).Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification code: %w", translateRedis(err))
	}

	var code model.VerificationCode
	if err := json.Unmarshal(data, &code); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verification code: %w", err)
	}
	return &code, nil
}

func (r *challengeRepository) CountAttempt(ctx context.Context, accountID string, ttl time.Duration) (int, error) {
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, r.attemptsKey(accountID))
		pipe.Expire(ctx, r.attemptsKey(accountID), ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count verification attempt: %w", translateRedis(err))
	}
	return int(incr.Val()), nil
}

// Delete drops the code. Its attempt counter is left to expire so that
// requests already holding the code keep counting against the limit.
func (r *challengeRepository) Delete(ctx context.Context, accountID string) error {
	if err := r.rdb.Del(ctx, r.key(accountID)).Err(); err != nil {
		return fmt.Errorf("failed to delete verification code: %w", translateRedis(err))
	}
	return nil
}
