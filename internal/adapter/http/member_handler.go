package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cooploan-backend/internal/adapter/identity"
	"cooploan-backend/internal/adapter/notify"
	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/usecase/feature"
	"cooploan-backend/internal/usecase/member"
)

type inbox interface {
	Latest(ctx context.Context, userID string, n int64) ([]notify.Message, error)
}

// MemberHandler serves the caller's own profile, inbox and flag lookups.
type MemberHandler struct {
	members  *member.Usecase
	features *feature.Usecase
	inbox    inbox
	log      *zap.Logger
}

func NewMemberHandler(members *member.Usecase, features *feature.Usecase, in inbox, log *zap.Logger) *MemberHandler {
	return &MemberHandler{members: members, features: features, inbox: in, log: orNop(log)}
}

// Sync upserts the caller's profile from the verified token claims.
func (h *MemberHandler) Sync(c echo.Context) error {
	p, _ := identity.FromContext(c.Request().Context())
	m, err := h.members.Register(c.Request().Context(), member.RegisterInput{MemberID: p.UserID, Name: p.Name, Region: p.Region})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) Me(c echo.Context) error {
	m, err := h.members.Get(c.Request().Context(), caller(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MemberHandler) Feature(c echo.Context) error {
	p, _ := identity.FromContext(c.Request().Context())
	name := c.Param("name")
	on := h.features.IsEnabled(c.Request().Context(), name, p.UserID, p.Region)
	return c.JSON(http.StatusOK, feature.Decision{Flag: name, Enabled: on})
}

// Notifications lists the caller's newest in-app messages, 20 by default.
func (h *MemberHandler) Notifications(c echo.Context) error {
	n := int64(20)
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 1 || v > 100 {
			return writeError(c, h.log, apperr.Validation("limit must be between 1 and 100"))
		}
		n = v
	}
	msgs, err := h.inbox.Latest(c.Request().Context(), caller(c), n)
	if err != nil {
		return writeError(c, h.log, apperr.Storage(err))
	}
	if msgs == nil {
		msgs = []notify.Message{}
	}
	return c.JSON(http.StatusOK, map[string]any{"notifications": msgs})
}
