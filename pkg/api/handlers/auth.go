package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pipelinealfa/crm/pkg/api/errors"
	"github.com/pipelinealfa/crm/pkg/authgate"
	"github.com/pipelinealfa/crm/pkg/domain"
	"github.com/pipelinealfa/crm/pkg/metrics"
	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/session"
)

// AuthHandler handles authentication endpoints. Every sign-up and sign-in
// goes through the gate, which refuses users without an active subscription
// before the identity provider is ever called.
type AuthHandler struct {
	gate      *authgate.Gate
	sessions  *session.Manager
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(gate *authgate.Gate, sessions *session.Manager, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		gate:      gate,
		sessions:  sessions,
		metrics:   m,
		validator: validator.New(),
	}
}

// Register creates a new account, provided the e-mail has an active
// subscription.
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	sess, err := h.gate.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return errors.DomainError(c, err)
	}

	h.sessions.Start(sess.User.Email, sess.AccessToken)

	return c.JSON(http.StatusCreated, models.AuthResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User: &models.UserInfo{
			ID:    sess.User.ID,
			Email: sess.User.Email,
		},
	})
}

// Login authenticates an existing account. The subscription check runs
// first: a blocked login never reaches the identity provider.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	sess, err := h.gate.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		h.metrics.LoginAttempts.WithLabelValues(loginOutcome(err)).Inc()
		return errors.DomainError(c, err)
	}

	h.metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.sessions.Start(sess.User.Email, sess.AccessToken)

	return c.JSON(http.StatusOK, models.AuthResponse{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		User: &models.UserInfo{
			ID:    sess.User.ID,
			Email: sess.User.Email,
		},
	})
}

// ForgotPassword sends a password-reset e-mail, subject to the per-e-mail
// cooldown and the subscription check.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req models.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	if err := h.gate.ResetPassword(ctx, req.Email); err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "E-mail de recuperação enviado! Verifique sua caixa de entrada.",
	})
}

// UpdatePassword sets a new password for the authenticated session created
// by the reset link.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	token, ok := c.Get("token").(string)
	if !ok || token == "" {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "missing_token",
			Message: "No token found in request",
		})
	}

	var req models.UpdatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	if err := h.gate.UpdatePassword(ctx, token, req.Password); err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Senha atualizada com sucesso!",
	})
}

// Logout revokes the current token and stops the session watcher.
func (h *AuthHandler) Logout(c echo.Context) error {
	token, ok := c.Get("token").(string)
	if !ok || token == "" {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "missing_token",
			Message: "No token found in request",
		})
	}

	email, _ := c.Get("user_email").(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.gate.SignOut(ctx, token); err != nil {
		// The provider call is best effort; the local revocation below is
		// what actually invalidates the token.
		c.Logger().Warnf("provider sign-out failed: %v", err)
	}

	if err := h.sessions.End(ctx, email, token); err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "logout_error",
			Message: "Failed to revoke token",
		})
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Successfully logged out",
	})
}

// Me returns the identity claims of the current token.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error: "unauthorized",
		})
	}
	email, _ := c.Get("user_email").(string)

	return c.JSON(http.StatusOK, models.UserInfo{
		ID:    userID,
		Email: email,
	})
}

func loginOutcome(err error) string {
	if domain.IsSubscriptionRequired(err) {
		return "blocked"
	}
	return "failed"
}
