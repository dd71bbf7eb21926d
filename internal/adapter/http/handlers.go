package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Check is a named dependency probe used by /health.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	checks  []Check
	timeout time.Duration
}

func NewHandler(checks ...Check) *Handler { return &Handler{checks: checks, timeout: 2 * time.Second} }

// Health reports ok only when every dependency answers.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for _, ch := range h.checks {
		if err := ch.Ping(ctx); err != nil {
			deps[ch.Name] = "down"
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		deps[ch.Name] = "up"
	}
	return c.JSON(code, map[string]any{
		"status":       status,
		"dependencies": deps,
		"time":         time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
