package mysql

import (
	"context"

	"gorm.io/gorm"

	"cooploan-backend/internal/domain/loan"
	"cooploan-backend/internal/domain/uow"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Members:      &MemberRepository{db: tx},
		Wallets:      &WalletRepository{db: tx},
		Transactions: &TransactionRepository{db: tx},
		Loans:        &LoanRepository{db: tx},
		Guarantors:   &GuarantorRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
	// commit failures (deadlock on commit, lost connection) still need a kind
	return translate(err, "")
}

func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the loan row up-front; everything else is locked after it
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
	return translate(err, "")
}
