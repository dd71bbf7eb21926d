package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	featureDomain "cooploan-backend/internal/domain/feature"
)

type FeatureRepository struct{ db *gorm.DB }

func NewFeatureRepository(db *gorm.DB) *FeatureRepository { return &FeatureRepository{db: db} }

func (r *FeatureRepository) GetByName(ctx context.Context, name string) (*featureDomain.Flag, error) {
	var out featureDomain.Flag
	res := r.db.WithContext(ctx).Where("name = ?", name).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "feature flag")
	}
	return &out, nil
}

// Upsert inserts the flag or overwrites every column of the flag with the same name.
func (r *FeatureRepository) Upsert(ctx context.Context, f *featureDomain.Flag) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"description", "enabled", "rollout_percentage", "status", "start_date",
			"end_date", "target_audience", "target_regions", "config", "updated_at",
		}),
	}).Create(f)
	return translate(res.Error, "feature flag")
}

func (r *FeatureRepository) List(ctx context.Context) ([]featureDomain.Flag, error) {
	var out []featureDomain.Flag
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, translate(err, "feature flag")
	}
	return out, nil
}
