package handlers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pipelinealfa/crm/pkg/api/errors"
	"github.com/pipelinealfa/crm/pkg/metrics"
	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/webhook"
)

// WebhookHandler receives payment-platform event notifications and applies
// them to the local subscriptions table.
type WebhookHandler struct {
	service *webhook.Service
	secret  string
	metrics *metrics.Metrics
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(service *webhook.Service, secret string, m *metrics.Metrics) *WebhookHandler {
	return &WebhookHandler{service: service, secret: secret, metrics: m}
}

// Receive processes one event. The shared secret may come as a query
// parameter or as the X-Webhook-Secret header.
func (h *WebhookHandler) Receive(c echo.Context) error {
	if !h.authorized(c) {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid webhook secret",
		})
	}

	var event webhook.Event
	if err := c.Bind(&event); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid event payload",
		})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	row, err := h.service.Process(ctx, &event)
	if err != nil {
		return errors.DomainError(c, err)
	}

	h.metrics.WebhookEvents.WithLabelValues(event.Event).Inc()

	if row == nil {
		// Unknown event types are acknowledged so the platform stops retrying.
		return c.JSON(http.StatusOK, models.SuccessResponse{
			Success: true,
			Message: "Evento ignorado",
		})
	}

	return c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: "Evento processado",
	})
}

func (h *WebhookHandler) authorized(c echo.Context) bool {
	if h.secret == "" {
		return false
	}
	provided := c.QueryParam("secret")
	if provided == "" {
		provided = c.Request().Header.Get("X-Webhook-Secret")
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) == 1
}
