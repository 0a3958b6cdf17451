package tokenRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smovers/models"

	"github.com/go-redis/redis/v8"
)

const usedTokenPrefix = "proposal:used:"

// minRetention keeps a key around even if the token is already past expiry.
const minRetention = time.Minute

// RedisUsedTokenRepo stores the used set as SETNX keys that expire with the token.
type RedisUsedTokenRepo struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisUsedTokenRepo(client *redis.Client) *RedisUsedTokenRepo {
	return &RedisUsedTokenRepo{client: client, now: time.Now}
}

var _ UsedTokenRepository = (*RedisUsedTokenRepo)(nil)

func (r *RedisUsedTokenRepo) MarkUsed(ctx context.Context, token models.UsedToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal used token: %w", err)
	}

	ttl := token.ExpiresAt.Sub(r.now())
	if ttl < minRetention {
		ttl = minRetention
	}

	ok, err := r.client.SetNX(ctx, usedTokenPrefix+token.TokenID, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to record token %s: %w", token.TokenID, err)
	}
	if !ok {
		return ErrTokenAlreadyUsed
	}
	return nil
}

func (r *RedisUsedTokenRepo) IsUsed(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, usedTokenPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up token %s: %w", tokenID, err)
	}
	return n > 0, nil
}

func (r *RedisUsedTokenRepo) Release(ctx context.Context, tokenID string) error {
	if err := r.client.Del(ctx, usedTokenPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("failed to release token %s: %w", tokenID, err)
	}
	return nil
}
