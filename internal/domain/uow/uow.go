package uow

import (
	"context"
	"errors"
	"time"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/guarantor"
	"cooploan-backend/internal/domain/loan"
	"cooploan-backend/internal/domain/member"
	"cooploan-backend/internal/domain/wallet"
)

// Repos are bound to the same transaction.
type Repos struct {
	Members      member.Repository
	Wallets      wallet.Repository
	Transactions wallet.TransactionRepository
	Loans        loan.Repository
	Guarantors   guarantor.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}

// Retry reruns fn while it fails with a concurrency conflict. Once attempts are
// exhausted the conflict is reported as a storage error.
func Retry(ctx context.Context, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !errors.Is(err, apperr.ErrConflict) {
			return err
		}
		select {
		case <-ctx.Done():
			return apperr.Storage(ctx.Err())
		case <-time.After(time.Duration(i+1) * 10 * time.Millisecond):
		}
	}
	return apperr.Storage(err)
}
