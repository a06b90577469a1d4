package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pipelinealfa/crm/pkg/auth"
	"github.com/pipelinealfa/crm/pkg/cache"
	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/notify"
	"github.com/pipelinealfa/crm/pkg/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	active bool
}

func (c *stubChecker) Refresh(_ context.Context, email string) *subscription.Verdict {
	return &subscription.Verdict{HasActiveSubscription: c.active, Message: subscription.MsgActiveFound}
}

func newTestManager(t *testing.T, checker *stubChecker) (*Manager, *auth.TokenBlacklist) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	blacklist := auth.NewTokenBlacklist(client, time.Hour)
	m := NewManager(checker, notify.NewRecorder(), blacklist, logger.Default(), 50*time.Millisecond, 10*time.Millisecond)
	return m, blacklist
}

func TestManager_StartAndEnd(t *testing.T) {
	m, blacklist := newTestManager(t, &stubChecker{active: true})

	m.Start("User@Example.com", "token-1")
	assert.True(t, m.Active("user@example.com"))

	err := m.End(context.Background(), "user@example.com", "token-1")
	require.NoError(t, err)
	assert.False(t, m.Active("user@example.com"))

	revoked, err := blacklist.IsBlacklisted(context.Background(), "token-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestManager_StartReplacesToken(t *testing.T) {
	m, _ := newTestManager(t, &stubChecker{active: true})

	m.Start("user@example.com", "token-1")
	m.Start("user@example.com", "token-2")

	m.mu.Lock()
	e := m.entries["user@example.com"]
	m.mu.Unlock()
	require.NotNil(t, e)
	assert.Equal(t, "token-2", e.token)
}

func TestManager_ForcedSignOutRevokesToken(t *testing.T) {
	m, blacklist := newTestManager(t, &stubChecker{active: false})

	forced := make(chan struct{}, 1)
	m.OnForcedSignOut = func() { forced <- struct{}{} }

	m.Start("user@example.com", "token-1")

	select {
	case <-forced:
	case <-time.After(2 * time.Second):
		t.Fatal("expected forced sign-out")
	}

	assert.Eventually(t, func() bool {
		revoked, err := blacklist.IsBlacklisted(context.Background(), "token-1")
		return err == nil && revoked
	}, time.Second, 10*time.Millisecond)
	assert.False(t, m.Active("user@example.com"))
}
