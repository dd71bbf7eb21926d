package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "cooploan-backend/internal/domain/loan"
)

type LoanRepository struct{ db *gorm.DB }

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	return translate(r.db.WithContext(ctx).Create(l).Error, "loan")
}

func (r *LoanRepository) Save(ctx context.Context, l *loanDomain.Loan) error {
	return translate(r.db.WithContext(ctx).Save(l).Error, "loan")
}

func (r *LoanRepository) GetByLoanID(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "loan")
	}
	return &out, nil
}

func (r *LoanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("loan_id = ?", loanID).
		First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "loan")
	}
	return &out, nil
}

func (r *LoanRepository) GetOpenLoanByBorrowerID(ctx context.Context, borrowerID string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("borrower_id = ? AND state IN ?", borrowerID, stateStrings(loanDomain.OpenStates)).
		Order("state_updated_at DESC, id DESC").
		First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "loan")
	}
	return &out, nil
}

func (r *LoanRepository) ListByBorrowerID(ctx context.Context, borrowerID string) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("borrower_id = ?", borrowerID).
		Order("id DESC").
		Find(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "loan")
	}
	return out, nil
}

func (r *LoanRepository) ListOverdue(ctx context.Context, cutoff time.Time, states []loanDomain.State) ([]loanDomain.Loan, error) {
	var out []loanDomain.Loan
	res := r.db.WithContext(ctx).
		Where("state IN ? AND due_date IS NOT NULL AND due_date < ?", stateStrings(states), cutoff).
		Order("due_date ASC").
		Find(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "loan")
	}
	return out, nil
}
