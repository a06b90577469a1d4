package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pipelinealfa/crm/pkg/analytics"
	"github.com/pipelinealfa/crm/pkg/api/errors"
	"github.com/pipelinealfa/crm/pkg/board"
)

// DashboardHandler serves the aggregated pipeline overview.
type DashboardHandler struct {
	boards    *board.Registry
	analytics *analytics.Service
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(boards *board.Registry, analyticsService *analytics.Service) *DashboardHandler {
	return &DashboardHandler{boards: boards, analytics: analyticsService}
}

// Get returns stage counts, conversion rate, task buckets, priority leads
// and urgent tasks for the caller's board. Results are cached briefly.
func (h *DashboardHandler) Get(c echo.Context) error {
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

	dashboard := h.analytics.ForUser(ctx, userID, b.Leads(), b.Tasks())
	return c.JSON(http.StatusOK, dashboard)
}
