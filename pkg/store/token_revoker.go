package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRevoker tracks revoked session token IDs until their natural expiry.
type TokenRevoker interface {
	Revoke(jti string, ttl time.Duration) error
	IsRevoked(jti string) (bool, error)
}

// RedisTokenRevoker keeps revoked jtis in Redis with TTL.
type RedisTokenRevoker struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenRevoker builds a Redis-backed revoker.
func NewRedisTokenRevoker(addr, password string) *RedisTokenRevoker {
	return &RedisTokenRevoker{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: "barbari:sessions:revoked",
	}
}

func (r *RedisTokenRevoker) key(jti string) string {
	return r.prefix + ":" + strings.TrimSpace(jti)
}

// Revoke marks a jti revoked for ttl.
func (r *RedisTokenRevoker) Revoke(jti string, ttl time.Duration) error {
	if strings.TrimSpace(jti) == "" || ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return r.client.Set(ctx, r.key(jti), "1", ttl).Err()
}

// IsRevoked reports whether a jti has been revoked.
func (r *RedisTokenRevoker) IsRevoked(jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := r.client.Get(ctx, r.key(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MemoryTokenRevoker is an in-process revoker for tests.
type MemoryTokenRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryTokenRevoker initializes an empty in-memory revoker.
func NewMemoryTokenRevoker() *MemoryTokenRevoker {
	return &MemoryTokenRevoker{revoked: make(map[string]time.Time)}
}

// Revoke marks a jti revoked until now+ttl.
func (m *MemoryTokenRevoker) Revoke(jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked reports whether a jti is currently revoked.
func (m *MemoryTokenRevoker) IsRevoked(jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(until) {
		delete(m.revoked, jti)
		return false, nil
	}
	return true, nil
}
