package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"cooploan-backend/internal/adapter/identity"
)

func TestAuth_AndRequirePermission(t *testing.T) {
	j := identity.NewJWT("s3cret", "coop-id", time.Hour)
	e := echo.New()
	g := e.Group("", Auth(j))
	g.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get(ContextUserID).(string))
	})
	g.POST("/admin", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) },
		RequirePermission(j, identity.PermApproveLoans))

	member, _ := j.Issue(identity.Principal{UserID: "U1"})
	officer, _ := j.Issue(identity.Principal{UserID: "U2", Permissions: []string{identity.PermApproveLoans}})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/me", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/me", "abc", http.StatusUnauthorized},
		{"member", http.MethodGet, "/me", member, http.StatusOK},
		{"member on admin route", http.MethodPost, "/admin", member, http.StatusForbidden},
		{"officer on admin route", http.MethodPost, "/admin", officer, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusOK && rec.Body.String() != "U1" {
				t.Fatalf("user id = %q", rec.Body.String())
			}
		})
	}
}
