package feature

import "time"

type Status string

const (
	StatusPlanning   Status = "planning"
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

const AudienceAll = "all"

type Flag struct {
	ID                uint64            `gorm:"primaryKey;column:id" json:"-"`
	Name              string            `gorm:"column:name;size:64;uniqueIndex:ux_feature_flags_name" json:"name"`
	Description       string            `gorm:"column:description;size:255" json:"description,omitempty"`
	Enabled           bool              `gorm:"column:enabled" json:"enabled"`
	RolloutPercentage int               `gorm:"column:rollout_percentage" json:"rollout_percentage"`
	Status            Status            `gorm:"column:status;size:16;default:'planning'" json:"status"`
	StartDate         *time.Time        `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate           *time.Time        `gorm:"column:end_date" json:"end_date,omitempty"`
	TargetAudience    []string          `gorm:"column:target_audience;serializer:json;type:json" json:"target_audience,omitempty"`
	TargetRegions     []string          `gorm:"column:target_regions;serializer:json;type:json" json:"target_regions,omitempty"`
	Config            map[string]string `gorm:"column:config;serializer:json;type:json" json:"config,omitempty"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Flag) TableName() string { return "feature_flags" }
