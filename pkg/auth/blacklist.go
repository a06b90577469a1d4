package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pipelinealfa/crm/pkg/cache"
)

const blacklistKeyPrefix = "jwt:blacklist:"

// TokenBlacklist revokes access tokens ahead of their natural expiry. Entries
// live in Redis for the TTL given at construction, which must be at least the
// token lifetime so a revoked token never outlives its blacklist entry.
type TokenBlacklist struct {
	cache *cache.Client
	ttl   time.Duration
}

// NewTokenBlacklist creates a blacklist whose entries expire after ttl.
func NewTokenBlacklist(cache *cache.Client, ttl time.Duration) *TokenBlacklist {
	return &TokenBlacklist{
		cache: cache,
		ttl:   ttl,
	}
}

// Add revokes the token. Only the SHA256 hash is stored, never the raw token.
func (b *TokenBlacklist) Add(ctx context.Context, token string) error {
	return b.cache.Set(ctx, blacklistKeyPrefix+hashToken(token), "revoked", b.ttl)
}

// IsBlacklisted checks if a token has been revoked.
func (b *TokenBlacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return b.cache.Exists(ctx, blacklistKeyPrefix+hashToken(token))
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
