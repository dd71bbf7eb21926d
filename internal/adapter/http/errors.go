package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"cooploan-backend/internal/adapter/identity"
	"cooploan-backend/internal/domain/apperr"
)

// statusOf maps the error taxonomy onto HTTP statuses.
func statusOf(e *apperr.Error) int {
	switch e.Kind {
	case apperr.KindValidation, apperr.KindInsufficientFunds, apperr.KindInvalidAmount:
		return http.StatusUnprocessableEntity
	case apperr.KindPrecondition:
		if e.Code == apperr.ErrFeatureDisabled.Code || e.Code == apperr.ErrForbidden.Code {
			return http.StatusForbidden
		}
		return http.StatusConflict
	case apperr.KindToken:
		if e.Code == apperr.ErrTokenExpired.Code {
			return http.StatusGone
		}
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func correlationID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}

// writeError renders err. Storage details are logged, never returned.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	log = orNop(log)
	var e *apperr.Error
	if !errors.As(apperr.Wrap(err), &e) {
		e = apperr.Storage(err)
	}
	status := statusOf(e)
	body := ErrorResponse{Error: e.Message, Code: e.Code}
	if status >= http.StatusInternalServerError || e.Kind == apperr.KindConflict {
		body.CorrelationID = correlationID(c)
		log.Error("request failed",
			zap.String("correlation_id", body.CorrelationID),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.JSON(status, body)
}

// bindValid binds the body and runs the validator. Its errors are
// *echo.HTTPError values rendered by echo's error handler.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(dst); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, ErrorResponse{
			Error: "validation failed", Code: apperr.ErrValidation.Code, Details: ToFieldErrors(err),
		})
	}
	return nil
}

// caller returns the authenticated member id; Auth guarantees it on every
// route that uses it.
func caller(c echo.Context) string {
	p, _ := identity.FromContext(c.Request().Context())
	return p.UserID
}
