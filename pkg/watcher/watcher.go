// Package watcher keeps an eye on signed-in sessions: it re-checks the
// subscription every few minutes and forces a sign-out, after a short grace
// period, the moment the subscription goes inactive.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/notify"
	"github.com/pipelinealfa/crm/pkg/subscription"
)

// Default timings. Both are injectable for tests.
const (
	DefaultCheckInterval = 5 * time.Minute
	DefaultGracePeriod   = 5 * time.Second
)

// Checker performs a live subscription check, bypassing any memoized verdict.
type Checker interface {
	Refresh(ctx context.Context, email string) *subscription.Verdict
}

// SignOutFunc revokes the watched session. It receives the e-mail being
// watched so the caller can blacklist the right token.
type SignOutFunc func(ctx context.Context, email string)

// Watcher monitors one session at a time. It is either idle or watching; a
// new Watch replaces the previous session.
type Watcher struct {
	checker  Checker
	notifier notify.Notifier
	signOut  SignOutFunc
	log      logger.Logger

	interval time.Duration
	grace    time.Duration

	mu         sync.Mutex
	cancel     context.CancelFunc
	generation int
	watching   bool
}

// New creates an idle watcher with the default timings.
func New(checker Checker, notifier notify.Notifier, signOut SignOutFunc, log logger.Logger) *Watcher {
	return &Watcher{
		checker:  checker,
		notifier: notifier,
		signOut:  signOut,
		log:      log,
		interval: DefaultCheckInterval,
		grace:    DefaultGracePeriod,
	}
}

// SetTimings overrides the check interval and grace period. Only for tests
// and local tooling; call before Watch.
func (w *Watcher) SetTimings(interval, grace time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.interval = interval
	w.grace = grace
}

// Watching reports whether a session is currently monitored.
func (w *Watcher) Watching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

// Watch starts monitoring the e-mail's subscription: one immediate check,
// then one per interval. Any previous watch is stopped first.
func (w *Watcher) Watch(email string) {
	w.mu.Lock()
	if w.cancel != nil {
		w.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.generation++
	gen := w.generation
	w.watching = true
	interval := w.interval
	w.mu.Unlock()

	go w.run(ctx, gen, email, interval)
}

// Stop cancels the current watch. Checks already in flight are discarded.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.generation++
	w.watching = false
}

func (w *Watcher) run(ctx context.Context, gen int, email string, interval time.Duration) {
	if !w.checkOnce(ctx, gen, email) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.checkOnce(ctx, gen, email) {
				return
			}
		}
	}
}

// checkOnce runs one subscription check. It returns false when watching
// should stop, either because the session was signed out or superseded.
func (w *Watcher) checkOnce(ctx context.Context, gen int, email string) bool {
	verdict := w.checker.Refresh(ctx, email)

	if w.stale(gen) {
		// A Stop or newer Watch happened while the check was in flight
		return false
	}

	if verdict.Active() {
		return true
	}

	w.log.Warn("subscription no longer active, scheduling sign-out", "email", email)
	w.notifier.Notify(notify.Notice{
		Title:   "Assinatura inativa",
		Message: "Sua assinatura não está mais ativa. Você será desconectado.",
		Variant: notify.VariantDestructive,
	})

	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.gracePeriod()):
	}

	if w.stale(gen) {
		return false
	}

	w.Stop()
	w.signOut(context.Background(), email)
	return false
}

func (w *Watcher) stale(gen int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return gen != w.generation
}

func (w *Watcher) gracePeriod() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.grace
}
