// Package identity wraps the external identity provider (a GoTrue-compatible
// REST API) behind a small interface so services and tests never talk HTTP
// directly.
package identity

import (
	"context"
	"errors"
)

// ErrInvalidCredentials is returned when the provider rejects an e-mail and
// password combination.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUserExists is returned when a sign-up targets an e-mail that is already
// registered.
var ErrUserExists = errors.New("user already registered")

// User is the provider's view of an account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// Provider is the identity operations the application needs. The production
// implementation is the GoTrue HTTP client; tests substitute fakes.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error
	SignOut(ctx context.Context, accessToken string) error
}
