// Package session tracks one live session per user e-mail: the access token
// to revoke on a forced sign-out and the watcher guarding the subscription.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pipelinealfa/crm/pkg/auth"
	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/notify"
	"github.com/pipelinealfa/crm/pkg/watcher"
)

// Manager owns one watcher per signed-in e-mail. A second sign-in for the
// same e-mail replaces the tracked token; the watcher keeps running.
type Manager struct {
	checker   watcher.Checker
	notifier  notify.Notifier
	blacklist *auth.TokenBlacklist
	log       logger.Logger

	interval time.Duration
	grace    time.Duration

	// OnForcedSignOut runs after a watcher-triggered revocation. Optional.
	OnForcedSignOut func()

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	token   string
	watcher *watcher.Watcher
}

// NewManager creates a manager whose watchers use the given timings. The
// blacklist carries its own TTL, sized to the JWT expiration.
func NewManager(checker watcher.Checker, notifier notify.Notifier, blacklist *auth.TokenBlacklist, log logger.Logger, interval, grace time.Duration) *Manager {
	return &Manager{
		checker:   checker,
		notifier:  notifier,
		blacklist: blacklist,
		log:       log,
		interval:  interval,
		grace:     grace,
		entries:   make(map[string]*entry),
	}
}

// Start begins (or refreshes) watching the session for email. The token is
// the one that will be blacklisted if the subscription goes inactive.
func (m *Manager) Start(email, accessToken string) {
	email = normalize(email)

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[email]; ok {
		e.token = accessToken
		if !e.watcher.Watching() {
			e.watcher.Watch(email)
		}
		return
	}

	w := watcher.New(m.checker, m.notifier, m.forceSignOut, m.log)
	w.SetTimings(m.interval, m.grace)
	m.entries[email] = &entry{token: accessToken, watcher: w}
	w.Watch(email)
}

// End stops watching and revokes the token. Called on explicit logout.
func (m *Manager) End(ctx context.Context, email, accessToken string) error {
	email = normalize(email)

	m.mu.Lock()
	if e, ok := m.entries[email]; ok {
		e.watcher.Stop()
		delete(m.entries, email)
	}
	m.mu.Unlock()

	return m.blacklist.Add(ctx, accessToken)
}

// Active reports whether a session for email is being watched.
func (m *Manager) Active(email string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[normalize(email)]
	return ok
}

// forceSignOut is the watcher callback: the grace period has elapsed and
// the subscription is still inactive, so the tracked token is revoked.
func (m *Manager) forceSignOut(ctx context.Context, email string) {
	email = normalize(email)

	m.mu.Lock()
	e, ok := m.entries[email]
	if ok {
		delete(m.entries, email)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	if err := m.blacklist.Add(ctx, e.token); err != nil {
		m.log.Error("failed to revoke token on forced sign-out", "email", email, "error", err)
	}
	m.log.Warn("session terminated: subscription inactive", "email", email)

	if m.OnForcedSignOut != nil {
		m.OnForcedSignOut()
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
