package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pipelinealfa/crm/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*cache.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	redisURL := "redis://" + mr.Addr()
	client, err := cache.NewClient(redisURL)
	require.NoError(t, err)

	return client, mr
}

func TestTokenBlacklist_Add(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	blacklist := NewTokenBlacklist(client, time.Hour)
	ctx := context.Background()

	token := "test.jwt.token"

	err := blacklist.Add(ctx, token)
	assert.NoError(t, err)

	isBlacklisted, err := blacklist.IsBlacklisted(ctx, token)
	assert.NoError(t, err)
	assert.True(t, isBlacklisted, "Token should be blacklisted")
}

func TestTokenBlacklist_IsBlacklisted_NotFound(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	blacklist := NewTokenBlacklist(client, time.Hour)
	ctx := context.Background()

	isBlacklisted, err := blacklist.IsBlacklisted(ctx, "nonexistent.jwt.token")
	assert.NoError(t, err)
	assert.False(t, isBlacklisted)
}

func TestTokenBlacklist_EntriesExpireWithTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	blacklist := NewTokenBlacklist(client, time.Second)
	ctx := context.Background()

	token := "short.lived.token"
	require.NoError(t, blacklist.Add(ctx, token))

	// miniredis keys expire only when the clock is advanced manually
	mr.FastForward(2 * time.Second)

	isBlacklisted, err := blacklist.IsBlacklisted(ctx, token)
	assert.NoError(t, err)
	assert.False(t, isBlacklisted, "Token should expire from the blacklist")
}

func TestTokenBlacklist_HashedStorage(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	blacklist := NewTokenBlacklist(client, time.Hour)
	ctx := context.Background()

	token := "raw.jwt.token.value"
	require.NoError(t, blacklist.Add(ctx, token))

	// The raw token never touches Redis, only its SHA256 hash.
	for _, key := range mr.Keys() {
		assert.NotContains(t, key, token)
	}
}
