package loanmock

import (
	"context"
	"time"

	domain "cooploan-backend/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to no-ops; reads default to context.Canceled.
type Repo struct {
	CreateFn                  func(ctx context.Context, l *domain.Loan) error
	SaveFn                    func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDFn             func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetByLoanIDForUpdateFn    func(ctx context.Context, loanID string) (*domain.Loan, error)
	GetOpenLoanByBorrowerIDFn func(ctx context.Context, borrowerID string) (*domain.Loan, error)
	ListByBorrowerIDFn        func(ctx context.Context, borrowerID string) ([]domain.Loan, error)
	ListOverdueFn             func(ctx context.Context, cutoff time.Time, states []domain.State) ([]domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, l *domain.Loan) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDFn != nil {
		return m.GetByLoanIDFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	if m.GetByLoanIDForUpdateFn != nil {
		return m.GetByLoanIDForUpdateFn(ctx, loanID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetOpenLoanByBorrowerID(ctx context.Context, borrowerID string) (*domain.Loan, error) {
	if m.GetOpenLoanByBorrowerIDFn != nil {
		return m.GetOpenLoanByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByBorrowerID(ctx context.Context, borrowerID string) ([]domain.Loan, error) {
	if m.ListByBorrowerIDFn != nil {
		return m.ListByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListOverdue(ctx context.Context, cutoff time.Time, states []domain.State) ([]domain.Loan, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, cutoff, states)
	}
	return nil, context.Canceled
}
