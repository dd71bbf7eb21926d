package member

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, m *Member) error
	Save(ctx context.Context, m *Member) error
	GetByMemberID(ctx context.Context, memberID string) (*Member, error)
	// Row-locks the member; used to serialize applications and guarantees per user.
	GetByMemberIDForUpdate(ctx context.Context, memberID string) (*Member, error)
	AddContribution(ctx context.Context, memberID string, amount decimal.Decimal) error
}
