package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// pendingTTL bounds how long a crashed request keeps its key reserved.
const pendingTTL = 60 * time.Second

type replayEntry struct {
	Pending     bool      `json:"pending"`
	Status      int       `json:"status,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	BodySHA256  string    `json:"body_sha256"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// replayStore keeps one entry per idempotency key: pending while the handler
// runs, then the recorded response until ttl expires.
type replayStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func (s replayStore) reserve(ctx context.Context, key string, e replayEntry) (bool, error) {
	e.Pending = true
	b, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, b, pendingTTL).Result()
}

// load reports ok=false when the key vanished between reserve and load.
func (s replayStore) load(ctx context.Context, key string) (replayEntry, bool, error) {
	var e replayEntry
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return e, false, nil
	}
	if err != nil {
		return e, false, err
	}
	if err := json.Unmarshal(b, &e); err != nil {
		return e, false, err
	}
	return e, true, nil
}

func (s replayStore) finish(ctx context.Context, key string, e replayEntry) error {
	e.Pending = false
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, s.ttl).Err()
}

// release frees the key so the client can retry with it.
func (s replayStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
