package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pipelinealfa/crm/pkg/analytics"
	"github.com/pipelinealfa/crm/pkg/api/errors"
	"github.com/pipelinealfa/crm/pkg/board"
	"github.com/pipelinealfa/crm/pkg/metrics"
	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/phone"
)

// LeadHandler handles lead CRUD, stage moves and interaction logging. Every
// operation runs against the caller's board; boards are cached per user by
// the registry.
type LeadHandler struct {
	boards    *board.Registry
	analytics *analytics.Service
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(boards *board.Registry, analyticsService *analytics.Service, m *metrics.Metrics) *LeadHandler {
	return &LeadHandler{
		boards:    boards,
		analytics: analyticsService,
		metrics:   m,
		validator: validator.New(),
	}
}

// List returns every lead on the caller's board, newest first.
func (h *LeadHandler) List(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.boards.Get(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	return c.JSON(http.StatusOK, b.Leads())
}

// Create adds a new lead. Leads without an explicit status land on the
// first pipeline stage.
func (h *LeadHandler) Create(c echo.Context) error {
	var req models.LeadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.boards.Get(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	lead, err := b.CreateLead(ctx, &req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	h.metrics.LeadsCreated.Inc()
	h.analytics.Invalidate(ctx, userID)

	return c.JSON(http.StatusCreated, lead)
}

// Update replaces a lead's editable fields.
func (h *LeadHandler) Update(c echo.Context) error {
	var req models.LeadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.boards.Get(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	lead, err := b.UpdateLead(ctx, c.Param("id"), &req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	h.analytics.Invalidate(ctx, userID)

	return c.JSON(http.StatusOK, lead)
}

// Move drags a lead between pipeline stages. Dropping a lead on its own
// stage is a no-op.
func (h *LeadHandler) Move(c echo.Context) error {
	var req models.MoveLeadRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.boards.Get(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	if err := b.MoveLead(ctx, c.Param("id"), req.From, req.To); err != nil {
		return errors.DomainError(c, err)
	}

	h.metrics.StageMoves.WithLabelValues(req.To).Inc()
	h.analytics.Invalidate(ctx, userID)

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// Delete removes a lead and its tasks.
func (h *LeadHandler) Delete(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.boards.Get(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	if err := b.DeleteLead(ctx, c.Param("id")); err != nil {
		return errors.DomainError(c, err)
	}

	h.analytics.Invalidate(ctx, userID)

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

// AddInteraction appends one contact event to a lead's history.
func (h *LeadHandler) AddInteraction(c echo.Context) error {
	var req models.InteractionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.boards.Get(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	lead, err := b.AddInteraction(ctx, c.Param("id"), &req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	return c.JSON(http.StatusOK, lead)
}

// WhatsApp returns the wa.me deep link for a lead's phone number.
func (h *LeadHandler) WhatsApp(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.boards.Get(ctx, userID)
	if err != nil {
		return errors.DatabaseError(c, err)
	}

	leadID := c.Param("id")
	for _, lead := range b.Leads() {
		if lead.ID != leadID {
			continue
		}
		if lead.Phone == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "Lead não possui telefone cadastrado",
			})
		}
		link, err := phone.WhatsAppLink(lead.Phone)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "Telefone inválido",
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"link":   link,
			"mobile": phone.IsMobileBR(lead.Phone),
		})
	}

	return errors.NotFoundError(c, "lead")
}

// requireUser extracts the authenticated user set by the JWT middleware.
func requireUser(c echo.Context) (string, error) {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return userID, nil
}
