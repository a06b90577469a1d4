package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pipelinealfa/crm/pkg/metrics"
	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/subscription"
)

// SubscriptionHandler exposes the subscription check. The check endpoint is
// public: the login and sign-up screens call it before any credentials exist.
type SubscriptionHandler struct {
	oracle  *subscription.Oracle
	metrics *metrics.Metrics
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(oracle *subscription.Oracle, m *metrics.Metrics) *SubscriptionHandler {
	return &SubscriptionHandler{oracle: oracle, metrics: m}
}

// Check verifies the subscription status for an e-mail. Accepts the e-mail
// as a query parameter (GET) or JSON body (POST).
func (h *SubscriptionHandler) Check(c echo.Context) error {
	var req models.SubscriptionCheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}

	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: subscription.MsgEmailRequired,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	verdict := h.oracle.CheckStatus(ctx, req.Email)
	if verdict == nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "E-mail inválido",
		})
	}

	h.metrics.SubscriptionChecks.WithLabelValues(verdictLabel(verdict)).Inc()

	return c.JSON(http.StatusOK, verdict)
}

// Status reports the subscription verdict for the authenticated user.
func (h *SubscriptionHandler) Status(c echo.Context) error {
	if _, err := requireUser(c); err != nil {
		return err
	}
	email, _ := c.Get("user_email").(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	verdict := h.oracle.CheckStatus(ctx, email)
	if verdict == nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "E-mail inválido",
		})
	}

	h.metrics.SubscriptionChecks.WithLabelValues(verdictLabel(verdict)).Inc()

	return c.JSON(http.StatusOK, verdict)
}

func verdictLabel(v *subscription.Verdict) string {
	switch {
	case v.Active():
		return "active"
	case v.Message == subscription.MsgCheckFailed:
		return "error"
	default:
		return "inactive"
	}
}
