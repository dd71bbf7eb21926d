package feature

import "context"

type Repository interface {
	GetByName(ctx context.Context, name string) (*Flag, error)
	Upsert(ctx context.Context, f *Flag) error
	List(ctx context.Context) ([]Flag, error)
}
