// Package authgate fronts every identity operation with a subscription check:
// no sign-in, sign-up, or password reset reaches the identity provider unless
// the e-mail holds an active subscription.
package authgate

import (
	"context"
	"math"

	"github.com/pipelinealfa/crm/pkg/domain"
	"github.com/pipelinealfa/crm/pkg/identity"
	"github.com/pipelinealfa/crm/pkg/logger"
	"github.com/pipelinealfa/crm/pkg/subscription"
)

// Rejection messages shown when the subscription gate blocks an operation.
const (
	MsgSignUpBlocked = "Email não possui assinatura ativa. Verifique se você completou a compra na Hotmart e aguarde alguns minutos para o sistema processar."
	MsgSignInBlocked = "Sua assinatura não está ativa. Verifique se o pagamento foi processado ou reative sua assinatura na Hotmart."
	MsgResetBlocked  = "Email não possui assinatura ativa. Verifique se você completou a compra na Hotmart."
)

// Checker is the slice of the subscription oracle the gate needs.
type Checker interface {
	CheckStatus(ctx context.Context, email string) *subscription.Verdict
}

// Gate wraps an identity provider with the subscription gate and the
// reset-password cooldown.
type Gate struct {
	provider identity.Provider
	checker  Checker
	log      logger.Logger

	resetRedirectURL string
	cooldowns        *cooldownTracker
}

// New creates a gate in front of the identity provider. resetRedirectURL is
// where recovery e-mails send the user.
func New(provider identity.Provider, checker Checker, resetRedirectURL string, log logger.Logger) *Gate {
	return &Gate{
		provider:         provider,
		checker:          checker,
		log:              log,
		resetRedirectURL: resetRedirectURL,
		cooldowns:        newCooldownTracker(),
	}
}

// SignUp registers a new account. The subscription check runs first; an
// inactive verdict never reaches the provider.
func (g *Gate) SignUp(ctx context.Context, email, password string) (*identity.Session, error) {
	if err := g.requireActive(ctx, email, MsgSignUpBlocked); err != nil {
		return nil, err
	}

	session, err := g.provider.SignUp(ctx, email, password)
	if err != nil {
		if err == identity.ErrUserExists {
			return nil, domain.NewConflictError("E-mail já cadastrado")
		}
		g.log.Error("sign up failed", "email", email, "error", err)
		return nil, domain.NewInternalError(err)
	}
	return session, nil
}

// SignIn exchanges credentials for a session, gated on the subscription.
func (g *Gate) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	if err := g.requireActive(ctx, email, MsgSignInBlocked); err != nil {
		return nil, err
	}

	session, err := g.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		if err == identity.ErrInvalidCredentials {
			return nil, domain.NewUnauthorizedError()
		}
		g.log.Error("sign in failed", "email", email, "error", err)
		return nil, domain.NewInternalError(err)
	}
	return session, nil
}

// ResetPassword sends a recovery e-mail, gated on the subscription and the
// per-email cooldown. A rejected attempt does not consume the cooldown.
func (g *Gate) ResetPassword(ctx context.Context, email string) error {
	if left := g.cooldowns.remaining(email); left > 0 {
		return domain.NewCooldownError(int(math.Ceil(left.Seconds())))
	}

	if err := g.requireActive(ctx, email, MsgResetBlocked); err != nil {
		return err
	}

	g.cooldowns.markAttempt(email)

	if err := g.provider.ResetPasswordForEmail(ctx, email, g.resetRedirectURL); err != nil {
		g.log.Error("reset password failed", "email", email, "error", err)
		return domain.NewInternalError(err)
	}

	g.cooldowns.markSuccess(email)
	return nil
}

// UpdatePassword sets a new password for the session owner.
func (g *Gate) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	if err := g.provider.UpdatePassword(ctx, accessToken, newPassword); err != nil {
		g.log.Error("update password failed", "error", err)
		return domain.NewInternalError(err)
	}
	return nil
}

// SignOut revokes the session at the provider.
func (g *Gate) SignOut(ctx context.Context, accessToken string) error {
	if err := g.provider.SignOut(ctx, accessToken); err != nil {
		g.log.Error("sign out failed", "error", err)
		return domain.NewInternalError(err)
	}
	return nil
}

func (g *Gate) requireActive(ctx context.Context, email, rejection string) error {
	if !subscription.IsValidEmail(email) {
		return domain.NewValidationError("E-mail inválido")
	}

	verdict := g.checker.CheckStatus(ctx, email)
	if !verdict.Active() {
		return domain.NewSubscriptionRequiredError(rejection)
	}
	return nil
}
