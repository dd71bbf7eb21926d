package feature

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/feature"
	"cooploan-backend/internal/testutil/featuremock"
)

type roles map[string][]string

func (r roles) HasRole(_ context.Context, userID, role string) bool {
	for _, have := range r[userID] {
		if have == role {
			return true
		}
	}
	return false
}

func staticRepo(f *feature.Flag) *featuremock.Repo {
	return &featuremock.Repo{
		GetByNameFn: func(_ context.Context, name string) (*feature.Flag, error) {
			if f == nil || name != f.Name {
				return nil, apperr.NotFound("feature flag")
			}
			cp := *f
			return &cp, nil
		},
	}
}

func activeFlag() *feature.Flag {
	return &feature.Flag{Name: "rollover_requests", Enabled: true, RolloutPercentage: 100, Status: feature.StatusActive}
}

func TestIsEnabled_Rules(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	tests := []struct {
		name   string
		mutate func(f *feature.Flag)
		user   string
		region string
		want   bool
	}{
		{"active and fully rolled out", func(*feature.Flag) {}, "u1", "", true},
		{"disabled", func(f *feature.Flag) { f.Enabled = false }, "u1", "", false},
		{"planning status", func(f *feature.Flag) { f.Status = feature.StatusPlanning }, "u1", "", false},
		{"deprecated status", func(f *feature.Flag) { f.Status = feature.StatusDeprecated }, "u1", "", false},
		{"not started", func(f *feature.Flag) { f.StartDate = &future }, "u1", "", false},
		{"ended", func(f *feature.Flag) { f.EndDate = &past }, "u1", "", false},
		{"inside window", func(f *feature.Flag) { f.StartDate, f.EndDate = &past, &future }, "u1", "", true},
		{"zero rollout", func(f *feature.Flag) { f.RolloutPercentage = 0 }, "u1", "", false},
		{"audience all", func(f *feature.Flag) { f.TargetAudience = []string{"all"} }, "u1", "", true},
		{"audience role held", func(f *feature.Flag) { f.TargetAudience = []string{"beta"} }, "tester", "", true},
		{"audience role missing", func(f *feature.Flag) { f.TargetAudience = []string{"beta"} }, "u1", "", false},
		{"audience anonymous", func(f *feature.Flag) { f.TargetAudience = []string{"beta"} }, "", "", false},
		{"region match ignores case", func(f *feature.Flag) { f.TargetRegions = []string{"Lagos"} }, "u1", "lagos", true},
		{"region mismatch", func(f *feature.Flag) { f.TargetRegions = []string{"lagos"} }, "u1", "abuja", false},
		{"region unknown", func(f *feature.Flag) { f.TargetRegions = []string{"lagos"} }, "u1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := activeFlag()
			tt.mutate(f)
			u := NewUsecase(staticRepo(f), nil, 0, roles{"tester": {"beta"}}, nil)
			u.now = func() time.Time { return now }
			if got := u.IsEnabled(context.Background(), f.Name, tt.user, tt.region); got != tt.want {
				t.Fatalf("IsEnabled = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsEnabled_MissingOrBrokenIsFalse(t *testing.T) {
	u := NewUsecase(staticRepo(nil), nil, 0, nil, nil)
	if u.IsEnabled(context.Background(), "nope", "u1", "") {
		t.Fatalf("missing flag must be off")
	}
	broken := &featuremock.Repo{GetByNameFn: func(context.Context, string) (*feature.Flag, error) {
		return nil, errors.New("db down")
	}}
	if NewUsecase(broken, nil, 0, nil, nil).IsEnabled(context.Background(), "x", "u1", "") {
		t.Fatalf("lookup errors must evaluate to off")
	}
}

func TestRollout_StableAndProportional(t *testing.T) {
	f := activeFlag()
	f.RolloutPercentage = 30
	u := NewUsecase(staticRepo(f), nil, 0, nil, nil)
	ctx := context.Background()

	on := 0
	for i := 0; i < 2000; i++ {
		user := fmt.Sprintf("member-%d", i)
		first := u.IsEnabled(ctx, f.Name, user, "")
		if first != u.IsEnabled(ctx, f.Name, user, "") {
			t.Fatalf("bucket for %s is not stable", user)
		}
		if first {
			on++
		}
	}
	if on < 450 || on > 750 {
		t.Fatalf("30%% rollout enabled %d of 2000", on)
	}

	u.bucket = func() int { return 29 }
	if !u.IsEnabled(ctx, f.Name, "", "") {
		t.Fatalf("anonymous bucket 29 is inside a 30%% rollout")
	}
	u.bucket = func() int { return 30 }
	if u.IsEnabled(ctx, f.Name, "", "") {
		t.Fatalf("anonymous bucket 30 is outside a 30%% rollout")
	}
}

func TestLoad_ReadThroughCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := activeFlag()
	hits := 0
	repo := &featuremock.Repo{
		GetByNameFn: func(_ context.Context, name string) (*feature.Flag, error) {
			hits++
			cp := *f
			return &cp, nil
		},
		UpsertFn: func(_ context.Context, in *feature.Flag) error {
			f = in
			return nil
		},
	}
	u := NewUsecase(repo, rdb, time.Minute, nil, nil)
	ctx := context.Background()

	if !u.IsEnabled(ctx, f.Name, "u1", "") || !u.IsEnabled(ctx, f.Name, "u1", "") {
		t.Fatalf("flag should be on")
	}
	if hits != 1 {
		t.Fatalf("repo hits = %d, want 1 (second read served from redis)", hits)
	}
	if ttl := mr.TTL(cachePrefix + f.Name); ttl != time.Minute {
		t.Fatalf("cache ttl = %s", ttl)
	}

	if _, err := u.Upsert(ctx, UpsertInput{Name: f.Name, Enabled: false, RolloutPercentage: 100, Status: feature.StatusActive}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if mr.Exists(cachePrefix + f.Name) {
		t.Fatalf("upsert must invalidate the cached flag")
	}
	if u.IsEnabled(ctx, f.Name, "u1", "") {
		t.Fatalf("flag should be off after update")
	}
	if hits != 2 {
		t.Fatalf("repo hits = %d, want 2", hits)
	}
}

func TestLoad_RedisDownFallsBackToRepo(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	u := NewUsecase(staticRepo(activeFlag()), rdb, time.Minute, nil, nil)
	if !u.IsEnabled(context.Background(), "rollover_requests", "u1", "") {
		t.Fatalf("redis failures must not switch flags off")
	}
}

func TestUpsert_Validation(t *testing.T) {
	u := NewUsecase(&featuremock.Repo{}, nil, 0, nil, nil)
	start := time.Now()
	end := start.Add(-time.Hour)

	bad := []UpsertInput{
		{Name: "", Status: feature.StatusActive},
		{Name: "x", Status: feature.StatusActive, RolloutPercentage: 101},
		{Name: "x", Status: feature.StatusActive, RolloutPercentage: -1},
		{Name: "x", Status: "live"},
		{Name: "x", Status: feature.StatusActive, StartDate: &start, EndDate: &end},
	}
	for i, in := range bad {
		if _, err := u.Upsert(context.Background(), in); apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("case %d: want validation error, got %v", i, err)
		}
	}
}
