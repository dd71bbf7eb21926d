package feature

import (
	"context"
	"time"

	"cooploan-backend/internal/domain/feature"
)

// RoleChecker answers audience questions; the identity provider implements it.
type RoleChecker interface {
	HasRole(ctx context.Context, userID, role string) bool
}

type UpsertInput struct {
	Name              string            `json:"-"`
	Description       string            `json:"description"`
	Enabled           bool              `json:"enabled"`
	RolloutPercentage int               `json:"rollout_percentage" validate:"gte=0,lte=100"`
	Status            feature.Status    `json:"status" validate:"required,oneof=planning active deprecated"`
	StartDate         *time.Time        `json:"start_date"`
	EndDate           *time.Time        `json:"end_date"`
	TargetAudience    []string          `json:"target_audience"`
	TargetRegions     []string          `json:"target_regions"`
	Config            map[string]string `json:"config"`
}

type Decision struct {
	Flag    string `json:"flag"`
	Enabled bool   `json:"enabled"`
}
