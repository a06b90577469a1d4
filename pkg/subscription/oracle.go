// Package subscription decides whether an e-mail holds an active subscription.
// The primary source is the Hotmart payments API; when it is unreachable the
// check falls back to the local subscriptions table, and when both sources
// fail the verdict is fail-closed.
package subscription

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/pipelinealfa/crm/pkg/hotmart"
	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/store"
)

// emailPattern is intentionally loose: it only guards against obviously
// incomplete input so no remote lookup is wasted on it.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// staleAfterDays is how long an "active" row stays trustworthy without a
// webhook refresh.
const staleAfterDays = 30

// PaymentsAPI is the slice of the Hotmart client the oracle needs.
type PaymentsAPI interface {
	ActiveSubscriptions(ctx context.Context, email string) ([]hotmart.Subscription, error)
}

// Oracle answers subscription checks with per-email memoization. Verdicts are
// remembered until Forget, Flush, or Refresh, except that an active verdict
// backed by a local row is re-checked once the row crosses the staleness
// window. Callers that need a live answer use Refresh.
type Oracle struct {
	payments PaymentsAPI
	subs     store.SubscriptionStore
	log      logger.Logger

	mu   sync.Mutex
	memo map[string]*Verdict

	now func() time.Time
}

// NewOracle creates an oracle backed by the payments API and the local
// subscriptions table. payments may be nil, in which case only the local
// table is consulted.
func NewOracle(payments PaymentsAPI, subs store.SubscriptionStore, log logger.Logger) *Oracle {
	return &Oracle{
		payments: payments,
		subs:     subs,
		log:      log,
		memo:     make(map[string]*Verdict),
		now:      time.Now,
	}
}

// IsValidEmail reports whether the e-mail is complete enough to check.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// CheckStatus returns the verdict for the e-mail. A syntactically invalid
// e-mail yields nil without touching any remote source. Repeated checks for
// the same e-mail return the memoized verdict.
func (o *Oracle) CheckStatus(ctx context.Context, email string) *Verdict {
	if !IsValidEmail(email) {
		return nil
	}

	o.mu.Lock()
	if v, ok := o.memo[email]; ok && !o.wentStale(v) {
		o.mu.Unlock()
		return v
	}
	o.mu.Unlock()

	return o.Refresh(ctx, email)
}

// wentStale reports whether a memoized active verdict is backed by a local
// row that has since crossed the staleness window. Such a verdict must not
// keep authorizing sign-ins, so the caller re-checks instead of returning it.
func (o *Oracle) wentStale(v *Verdict) bool {
	if !v.HasActiveSubscription || v.Subscription == nil {
		return false
	}
	return o.now().Sub(v.Subscription.UpdatedAt).Hours()/24 > staleAfterDays
}

// Refresh performs a live check, replacing any memoized verdict.
func (o *Oracle) Refresh(ctx context.Context, email string) *Verdict {
	if !IsValidEmail(email) {
		return nil
	}

	v := o.check(ctx, email)

	o.mu.Lock()
	o.memo[email] = v
	o.mu.Unlock()

	return v
}

// Forget drops the memoized verdict for the e-mail. Called when a webhook
// changes the subscription row.
func (o *Oracle) Forget(email string) {
	o.mu.Lock()
	delete(o.memo, email)
	o.mu.Unlock()
}

// Flush drops every memoized verdict. The nightly sweep calls it after
// expiring rows so memoized answers cannot outlive the rows behind them.
func (o *Oracle) Flush() {
	o.mu.Lock()
	o.memo = make(map[string]*Verdict)
	o.mu.Unlock()
}

func (o *Oracle) check(ctx context.Context, email string) *Verdict {
	if o.payments != nil {
		verdict, err := o.checkPayments(ctx, email)
		if err == nil {
			return verdict
		}
		o.log.Warn("payments API check failed, falling back to local table", "email", email, "error", err)
	}

	return o.checkLocal(ctx, email)
}

func (o *Oracle) checkPayments(ctx context.Context, email string) (*Verdict, error) {
	subs, err := o.payments.ActiveSubscriptions(ctx, email)
	if err != nil {
		if errors.Is(err, hotmart.ErrUserNotFound) {
			// Definitive answer, not a transport failure
			return &Verdict{HasActiveSubscription: false, Message: MsgUserNotFound}, nil
		}
		return nil, err
	}

	if len(subs) == 0 {
		return &Verdict{HasActiveSubscription: false, Message: MsgNoneFound}, nil
	}
	return &Verdict{HasActiveSubscription: true, Message: MsgActiveFound}, nil
}

func (o *Oracle) checkLocal(ctx context.Context, email string) *Verdict {
	sub, err := o.subs.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &Verdict{HasActiveSubscription: false, Message: MsgNoneFound}
		}
		o.log.Error("local subscription lookup failed", "email", email, "error", err)
		// Fail closed when both sources are unavailable
		return &Verdict{HasActiveSubscription: false, Message: MsgCheckFailed}
	}

	// An active row that stopped receiving webhook updates is not trusted
	daysSinceUpdate := o.now().Sub(sub.UpdatedAt).Hours() / 24
	if daysSinceUpdate > staleAfterDays {
		return &Verdict{HasActiveSubscription: false, Message: MsgExpired, Subscription: sub}
	}

	return &Verdict{HasActiveSubscription: true, Message: MsgActiveFound, Subscription: sub}
}
