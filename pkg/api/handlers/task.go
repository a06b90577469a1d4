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
)

// TaskHandler handles follow-up task CRUD and completion toggling.
type TaskHandler struct {
	boards    *board.Registry
	analytics *analytics.Service
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(boards *board.Registry, analyticsService *analytics.Service, m *metrics.Metrics) *TaskHandler {
	return &TaskHandler{
		boards:    boards,
		analytics: analyticsService,
		metrics:   m,
		validator: validator.New(),
	}
}

// List returns every task on the caller's board.
func (h *TaskHandler) List(c echo.Context) error {
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

	return c.JSON(http.StatusOK, b.Tasks())
}

// Create adds a follow-up task tied to a lead.
func (h *TaskHandler) Create(c echo.Context) error {
	var req models.TaskRequest
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

	task, err := b.CreateTask(ctx, &req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	h.metrics.TasksCreated.Inc()
	h.analytics.Invalidate(ctx, userID)

	return c.JSON(http.StatusCreated, task)
}

// Update replaces a task's editable fields.
func (h *TaskHandler) Update(c echo.Context) error {
	var req models.TaskRequest
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

	task, err := b.UpdateTask(ctx, c.Param("id"), &req)
	if err != nil {
		return errors.DomainError(c, err)
	}

	h.analytics.Invalidate(ctx, userID)

	return c.JSON(http.StatusOK, task)
}

// Toggle flips a task's completion state.
func (h *TaskHandler) Toggle(c echo.Context) error {
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

	task, err := b.ToggleTask(ctx, c.Param("id"))
	if err != nil {
		return errors.DomainError(c, err)
	}

	h.analytics.Invalidate(ctx, userID)

	return c.JSON(http.StatusOK, task)
}

// Delete removes a task.
func (h *TaskHandler) Delete(c echo.Context) error {
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

	if err := b.DeleteTask(ctx, c.Param("id")); err != nil {
		return errors.DomainError(c, err)
	}

	h.analytics.Invalidate(ctx, userID)

	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
