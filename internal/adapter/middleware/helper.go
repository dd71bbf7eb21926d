package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"cooploan-backend/pkg/id"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRequestAt      = "X-Request-At"
	HeaderReplayed       = "Idempotent-Replayed"
)

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

// replayKey scopes a client key to the caller and the route it was sent to.
func replayKey(userID, method, route, key string) string {
	return "idemp:" + userID + ":" + strings.ToLower(method) + ":" + route + ":" + key
}

// validKey accepts a lowercase canonical UUID or a 32-char lowercase hex id,
// the two forms the mobile clients generate.
func validKey(k string) bool {
	if id.Valid(k) {
		return true
	}
	if len(k) != 36 || strings.ToLower(k) != k {
		return false
	}
	_, err := uuid.Parse(k)
	return err == nil
}

// parseRequestAt accepts epoch seconds, epoch milliseconds, or RFC3339 with an
// explicit zone. Naive local timestamps are rejected.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}
