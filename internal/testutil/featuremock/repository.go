package featuremock

import (
	"context"

	domain "cooploan-backend/internal/domain/feature"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed feature.Repository.
type Repo struct {
	GetByNameFn func(ctx context.Context, name string) (*domain.Flag, error)
	UpsertFn    func(ctx context.Context, f *domain.Flag) error
	ListFn      func(ctx context.Context) ([]domain.Flag, error)
}

func (m *Repo) GetByName(ctx context.Context, name string) (*domain.Flag, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(ctx, name)
	}
	return nil, context.Canceled
}

func (m *Repo) Upsert(ctx context.Context, f *domain.Flag) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, f)
	}
	return nil
}

func (m *Repo) List(ctx context.Context) ([]domain.Flag, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, context.Canceled
}
