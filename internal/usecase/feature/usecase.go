// Package feature evaluates rollout flags.
package feature

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/feature"
)

const cachePrefix = "feature:flag:"

type Usecase struct {
	repo  feature.Repository
	rdb   *redis.Client
	ttl   time.Duration
	roles RoleChecker
	log   *zap.Logger

	now    func() time.Time
	bucket func() int
}

// NewUsecase wires the gate. rdb may be nil, which disables caching.
func NewUsecase(repo feature.Repository, rdb *redis.Client, ttl time.Duration, roles RoleChecker, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		repo:   repo,
		rdb:    rdb,
		ttl:    ttl,
		roles:  roles,
		log:    log.Named("feature"),
		now:    func() time.Time { return time.Now().UTC() },
		bucket: func() int { return rand.Intn(100) },
	}
}

// Bucket places userID in [0,100) for flag name; stable across processes.
func Bucket(name, userID string) int {
	return int(xxhash.Sum64String(name+":"+userID) % 100)
}

// IsEnabled never fails: any lookup problem evaluates to false.
func (u *Usecase) IsEnabled(ctx context.Context, name, userID, region string) bool {
	f, err := u.load(ctx, name)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			u.log.Warn("flag lookup failed", zap.String("flag", name), zap.Error(err))
		}
		return false
	}
	return u.evaluate(ctx, f, userID, region)
}

func (u *Usecase) evaluate(ctx context.Context, f *feature.Flag, userID, region string) bool {
	if !f.Enabled || f.Status != feature.StatusActive {
		return false
	}
	now := u.now()
	if f.StartDate != nil && now.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && now.After(*f.EndDate) {
		return false
	}

	b := u.bucket()
	if userID != "" {
		b = Bucket(f.Name, userID)
	}
	if b >= f.RolloutPercentage {
		return false
	}

	if !u.inAudience(ctx, f.TargetAudience, userID) {
		return false
	}
	if len(f.TargetRegions) > 0 {
		return slices.ContainsFunc(f.TargetRegions, func(r string) bool { return strings.EqualFold(r, region) })
	}
	return true
}

func (u *Usecase) inAudience(ctx context.Context, audience []string, userID string) bool {
	if len(audience) == 0 || slices.Contains(audience, feature.AudienceAll) {
		return true
	}
	if userID == "" || u.roles == nil {
		return false
	}
	for _, role := range audience {
		if u.roles.HasRole(ctx, userID, role) {
			return true
		}
	}
	return false
}

func (u *Usecase) load(ctx context.Context, name string) (*feature.Flag, error) {
	if u.rdb != nil {
		raw, err := u.rdb.Get(ctx, cachePrefix+name).Bytes()
		switch {
		case err == nil:
			var f feature.Flag
			if jerr := json.Unmarshal(raw, &f); jerr == nil {
				return &f, nil
			}
		case !errors.Is(err, redis.Nil):
			u.log.Warn("flag cache read failed", zap.String("flag", name), zap.Error(err))
		}
	}

	f, err := u.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if u.rdb != nil {
		if b, jerr := json.Marshal(f); jerr == nil {
			if err := u.rdb.Set(ctx, cachePrefix+name, b, u.ttl).Err(); err != nil {
				u.log.Warn("flag cache write failed", zap.String("flag", name), zap.Error(err))
			}
		}
	}
	return f, nil
}

func (u *Usecase) Get(ctx context.Context, name string) (*feature.Flag, error) {
	f, err := u.repo.GetByName(ctx, name)
	return f, apperr.Wrap(err)
}

func (u *Usecase) List(ctx context.Context) ([]feature.Flag, error) {
	out, err := u.repo.List(ctx)
	return out, apperr.Wrap(err)
}

func (u *Usecase) Upsert(ctx context.Context, in UpsertInput) (*feature.Flag, error) {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, apperr.Validation("flag name is required")
	case in.RolloutPercentage < 0 || in.RolloutPercentage > 100:
		return nil, apperr.Validation("rollout_percentage must be between 0 and 100")
	case in.Status != feature.StatusPlanning && in.Status != feature.StatusActive && in.Status != feature.StatusDeprecated:
		return nil, apperr.Validation("unknown status " + string(in.Status))
	case in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate):
		return nil, apperr.Validation("end_date must not be before start_date")
	}

	f := &feature.Flag{
		Name:              in.Name,
		Description:       in.Description,
		Enabled:           in.Enabled,
		RolloutPercentage: in.RolloutPercentage,
		Status:            in.Status,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		TargetAudience:    in.TargetAudience,
		TargetRegions:     in.TargetRegions,
		Config:            in.Config,
	}
	if err := u.repo.Upsert(ctx, f); err != nil {
		return nil, apperr.Wrap(err)
	}
	if u.rdb != nil {
		if err := u.rdb.Del(ctx, cachePrefix+in.Name).Err(); err != nil {
			u.log.Warn("flag cache invalidation failed", zap.String("flag", in.Name), zap.Error(err))
		}
	}
	u.log.Info("flag updated", zap.String("flag", in.Name), zap.Bool("enabled", in.Enabled),
		zap.Int("rollout", in.RolloutPercentage), zap.String("status", string(in.Status)))
	return f, nil
}
