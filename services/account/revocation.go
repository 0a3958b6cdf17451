package account

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedPrefix = "auth:revoked:"

// RevocationStore remembers logged-out session tokens by hash.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

// RedisRevocations keeps revoked hashes in redis until the session would have expired.
type RedisRevocations struct {
	Client *redis.Client
}

func (r *RedisRevocations) Revoke(ctx context.Context, tokenHash string, ttl time.Duration) error {
	return r.Client.Set(ctx, revokedPrefix+tokenHash, 1, ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	err := r.Client.Get(ctx, revokedPrefix+tokenHash).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MemoryRevocations is an in-process RevocationStore.
type MemoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{revoked: make(map[string]time.Time)}
}

func (m *MemoryRevocations) Revoke(_ context.Context, tokenHash string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[tokenHash] = time.Now().Add(ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, tokenHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[tokenHash]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(m.revoked, tokenHash)
		return false, nil
	}
	return true, nil
}
