package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "jwt:blacklist:"

// TokenBlacklist revokes tokens before their natural expiration to support logout.
// Entries live in Redis when configured, otherwise in process memory.
type TokenBlacklist struct {
	rc  *redis.Client
	now func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

// NewTokenBlacklist creates a blacklist. rc may be nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, now: time.Now, entries: map[string]time.Time{}}
}

// Revoke stores the token id until expiresAt.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 || tokenID == "" {
		return nil
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return b.rc.Set(ctx, blacklistKeyPrefix+tokenID, "1", ttl).Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[tokenID] = expiresAt
	return nil
}

// IsRevoked checks if a token was revoked before natural expiration.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) bool {
	if tokenID == "" {
		return false
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := b.rc.Exists(ctx, blacklistKeyPrefix+tokenID).Result()
		if err != nil {
			// fail open to avoid locking everyone out when Redis is down
			Sugar.Warnf("token blacklist lookup failed err=%v", err)
			return false
		}
		return n > 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	expiresAt, ok := b.entries[tokenID]
	if !ok {
		return false
	}
	if !b.now().Before(expiresAt) {
		delete(b.entries, tokenID)
		return false
	}
	return true
}
