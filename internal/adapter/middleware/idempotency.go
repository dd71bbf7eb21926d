package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cooploan-backend/internal/adapter/identity"
)

// Allowed client/server clock skew for X-Request-At.
const maxClockSkew = 10 * time.Minute

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func reject(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, errorBody{Error: msg, Code: code})
}

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

// IdempotencyMiddleware makes mutating requests safe to resend. Each request
// carries an Idempotency-Key scoped to the authenticated caller and route; a
// repeat with the same body gets the recorded response without running the
// handler again. Server errors are not recorded so the client can retry with
// the same key. It runs after Auth.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("idempotency")
	store := replayStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			key := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
			if key == "" {
				return reject(c, http.StatusBadRequest, "idempotency_key_required", "missing "+HeaderIdempotencyKey)
			}
			if !validKey(key) {
				return reject(c, http.StatusBadRequest, "idempotency_key_invalid", HeaderIdempotencyKey+" must be a lowercase UUID or 32-char hex id")
			}
			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return reject(c, http.StatusBadRequest, "request_at_invalid", err.Error())
			}
			now := nowUTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return reject(c, http.StatusBadRequest, "request_at_skewed", HeaderRequestAt+" too skewed")
			}

			caller, ok := identity.FromContext(req.Context())
			if !ok {
				return reject(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
			}

			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			hash := bodyHash(body)

			rk := replayKey(caller.UserID, req.Method, c.Path(), key)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			reserved, err := store.reserve(ctx, rk, replayEntry{BodySHA256: hash, RequestAtMS: reqAt.UnixMilli(), CreatedAt: now})
			if err != nil {
				log.Error("reserve idempotency key", zap.String("key", rk), zap.Error(err))
				return reject(c, http.StatusServiceUnavailable, "idempotency_unavailable", "please try again")
			}
			if !reserved {
				cur, found, err := store.load(ctx, rk)
				if err != nil {
					log.Warn("load idempotency entry", zap.String("key", rk), zap.Error(err))
				}
				switch {
				case found && cur.BodySHA256 != hash:
					return reject(c, http.StatusUnprocessableEntity, "idempotency_key_reused", HeaderIdempotencyKey+" reused with a different body")
				case found && !cur.Pending:
					c.Response().Header().Set(HeaderReplayed, "true")
					ct := cur.ContentType
					if ct == "" {
						ct = echo.MIMEApplicationJSONCharsetUTF8
					}
					return c.Blob(cur.Status, ct, cur.Body)
				}
				return reject(c, http.StatusConflict, "request_in_progress", "the same request is already being processed")
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the handler is done; a cancelled client must not leave the key pending
			bg, done := context.WithTimeout(context.WithoutCancel(req.Context()), 2*time.Second)
			defer done()
			if rec.code >= http.StatusInternalServerError {
				if err := store.release(bg, rk); err != nil {
					log.Error("release idempotency key", zap.String("key", rk), zap.Error(err))
				}
				return nil
			}
			err = store.finish(bg, rk, replayEntry{
				Status:      rec.code,
				ContentType: rec.Header().Get(echo.HeaderContentType),
				Body:        rec.buf.Bytes(),
				BodySHA256:  hash,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			})
			if err != nil {
				log.Error("save idempotency entry", zap.String("key", rk), zap.Error(err))
			}
			return nil
		}
	}
}
