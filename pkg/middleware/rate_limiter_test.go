package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(60, 3)

	e := echo.New()
	handler := rl.RateLimitMiddleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		assert.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiter_BlocksBeyondBurst(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	e := echo.New()
	handler := rl.RateLimitMiddleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	first := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	first.RemoteAddr = "10.0.0.2:1234"
	rec1 := httptest.NewRecorder()
	assert.NoError(t, handler(e.NewContext(first, rec1)))
	assert.Equal(t, http.StatusOK, rec1.Code)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	second.RemoteAddr = "10.0.0.2:1234"
	rec2 := httptest.NewRecorder()
	assert.NoError(t, handler(e.NewContext(second, rec2)))
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestRateLimiter_SeparateLimitsPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	e := echo.New()
	handler := rl.RateLimitMiddleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	blocked := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	blocked.RemoteAddr = "10.0.0.3:1234"
	_ = handler(e.NewContext(blocked, httptest.NewRecorder()))

	other := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	other.RemoteAddr = "10.0.0.4:1234"
	rec := httptest.NewRecorder()
	assert.NoError(t, handler(e.NewContext(other, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
