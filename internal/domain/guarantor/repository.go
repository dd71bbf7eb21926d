package guarantor

import (
	"context"

	"github.com/shopspring/decimal"

	"cooploan-backend/internal/domain/loan"
)

type Repository interface {
	Create(ctx context.Context, c *Confirmation) error
	ListByLoan(ctx context.Context, loanID uint64) ([]Confirmation, error)
	GetByLoanAndGuarantor(ctx context.Context, loanID uint64, guarantorID string) (*Confirmation, error)
	MaxPosition(ctx context.Context, loanID uint64) (int, error)
	CountByStatus(ctx context.Context, loanID uint64, status Status) (int, error)
	// Moves every confirmation of the loan in `from` to `to`; returns rows touched.
	UpdateStatusByLoan(ctx context.Context, loanID uint64, from, to Status) (int64, error)
	// Sum of loan amounts the guarantor has confirmed on loans in the given states.
	SumExposure(ctx context.Context, guarantorID string, states []loan.State) (decimal.Decimal, error)
}
