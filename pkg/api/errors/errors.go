package errors

import (
	stderrors "errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pipelinealfa/crm/pkg/domain"
	"github.com/pipelinealfa/crm/pkg/models"
)

// ValidationError returns a generic validation error without exposing internal details
func ValidationError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[VALIDATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data. Please check your input and try again.",
	})
}

// DatabaseError returns a generic database error without exposing internal details
func DatabaseError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[DATABASE ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "database_error",
		Message: "A database error occurred. Please try again later.",
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	// Log the actual error for debugging
	log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// UnauthorizedError returns a generic unauthorized error
func UnauthorizedError(c echo.Context, reason string) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "You are not authorized to access this resource.",
	})
}

// NotFoundError returns a generic not found error
func NotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: "The requested resource was not found.",
	})
}

// ConflictError returns a generic conflict error
func ConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, models.ErrorResponse{
		Error:   "conflict",
		Message: message, // Message is safe to expose (e.g., "User already exists")
	})
}

// SubscriptionRequiredError returns 403 with the Portuguese reason produced by
// the subscription check. The message is user-facing and safe to expose.
func SubscriptionRequiredError(c echo.Context, message string) error {
	return c.JSON(http.StatusForbidden, models.ErrorResponse{
		Error:   "subscription_required",
		Message: message,
	})
}

// CooldownError returns 429 for reset-password attempts made too soon.
func CooldownError(c echo.Context, message string) error {
	return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
		Error:   "cooldown_active",
		Message: message,
	})
}

// DomainError maps a domain error to the matching HTTP response. Unknown
// error values fall through to InternalError.
func DomainError(c echo.Context, err error) error {
	var de *domain.DomainError
	if !stderrors.As(err, &de) {
		return InternalError(c, err)
	}

	switch de.Code {
	case domain.ErrCodeValidation, domain.ErrCodeBadRequest:
		// Domain validation messages are written for the user and safe to expose.
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: de.Message,
		})
	case domain.ErrCodeNotFound:
		return NotFoundError(c, "")
	case domain.ErrCodeUnauthorized:
		return UnauthorizedError(c, de.Message)
	case domain.ErrCodeSubscriptionRequired:
		return SubscriptionRequiredError(c, de.Message)
	case domain.ErrCodeCooldown:
		return CooldownError(c, de.Message)
	case domain.ErrCodeConflict:
		return ConflictError(c, de.Message)
	default:
		return InternalError(c, de)
	}
}
