package authgate

import (
	"sync"
	"time"
)

// Reset-password throttling windows.
const (
	resetAttemptWindow = 60 * time.Second
	resetSuccessWindow = 300 * time.Second
)

// cooldownTracker enforces the per-email reset-password throttle: one attempt
// per minute, and a five minute cooldown after a successful send.
type cooldownTracker struct {
	mu    sync.Mutex
	until map[string]time.Time
	now   func() time.Time
}

func newCooldownTracker() *cooldownTracker {
	return &cooldownTracker{
		until: make(map[string]time.Time),
		now:   time.Now,
	}
}

// remaining returns how long the e-mail must still wait, zero when it may
// attempt now.
func (t *cooldownTracker) remaining(email string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	deadline, ok := t.until[email]
	if !ok {
		return 0
	}
	if left := deadline.Sub(t.now()); left > 0 {
		return left
	}
	delete(t.until, email)
	return 0
}

// markAttempt starts the one minute window after any attempt.
func (t *cooldownTracker) markAttempt(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.until[email] = t.now().Add(resetAttemptWindow)
}

// markSuccess extends the window to five minutes after a successful send.
func (t *cooldownTracker) markSuccess(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.until[email] = t.now().Add(resetSuccessWindow)
}
