package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"cooploan-backend/internal/adapter/identity"
)

// ContextUserID is the echo context key holding the caller's member id.
const ContextUserID = "user_id"

// Auth requires a valid bearer token and stores the caller in the request
// context for the identity provider.
func Auth(j *identity.JWT) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(h, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			}
			p, err := j.Parse(strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			}
			req := c.Request()
			c.SetRequest(req.WithContext(identity.WithPrincipal(req.Context(), p)))
			c.Set(ContextUserID, p.UserID)
			return next(c)
		}
	}
}

// RequirePermission lets the request through only when the caller holds perm.
func RequirePermission(ids identity.Provider, perm string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			uid, err := ids.CurrentUserID(ctx)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			}
			if !ids.HasPermission(ctx, uid, perm) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "missing permission " + perm})
			}
			return next(c)
		}
	}
}
