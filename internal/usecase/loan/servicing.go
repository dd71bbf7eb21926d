package loan

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/event"
	"cooploan-backend/internal/domain/guarantor"
	"cooploan-backend/internal/domain/loan"
	"cooploan-backend/internal/domain/uow"
	"cooploan-backend/internal/domain/wallet"
	"cooploan-backend/internal/usecase/ledger"
)

// RequestRollover asks to extend an active loan. Only the borrower may ask
// and only while the rollover flag is on for them.
func (u *Usecase) RequestRollover(ctx context.Context, in RolloverInput) (*LoanDTO, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.Reason == "" {
		return nil, apperr.Validation("a rollover reason is required")
	}
	if in.NewTenor != 0 {
		if _, ok := u.policy.Rates[in.NewTenor]; !ok {
			return nil, apperr.Validation("new_tenor is not offered")
		}
	}
	if !u.enabled(ctx, u.policy.RolloverFlag, in.RequesterID) {
		return nil, apperr.ErrFeatureDisabled
	}

	var (
		out *loan.Loan
		ev  event.Event
	)
	err := u.inLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if l.BorrowerID != in.RequesterID {
			return apperr.ErrForbidden
		}
		now := u.now()
		e, err := u.move(l, loan.StatePendingRollover, event.LoanRolloverRequested, in.RequesterID, now)
		if err != nil {
			return err
		}
		l.Details.Rollover = &loan.RolloverRequest{
			Reason:      in.Reason,
			NewTenor:    in.NewTenor,
			RequestedBy: in.RequesterID,
			RequestedAt: now,
		}
		l.Details.RolloverResolution = nil
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		e.Reason = in.Reason
		out, ev = l, e
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, ev)
	return toDTO(out), nil
}

// ResolveRollover approves (rolled_over, guarantors released) or declines
// (back to active) a pending rollover.
func (u *Usecase) ResolveRollover(ctx context.Context, loanID, resolverID string, approve bool) (*LoanDTO, error) {
	var (
		out *loan.Loan
		ev  event.Event
	)
	err := u.inLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.State != loan.StatePendingRollover {
			return transitionErr(l, "resolve a rollover on")
		}
		next := loan.StateActive
		if approve {
			next = loan.StateRolledOver
		}
		now := u.now()
		e, err := u.move(l, next, event.LoanRolloverResolved, resolverID, now)
		if err != nil {
			return err
		}
		if approve {
			if _, err := r.Guarantors.UpdateStatusByLoan(ctx, l.ID, guarantor.StatusConfirmed, guarantor.StatusReleased); err != nil {
				return err
			}
		}
		l.Details.RolloverResolution = &loan.RolloverResolution{Approved: approve, ResolvedBy: resolverID, ResolvedAt: now}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out, ev = l, e
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, ev)
	return toDTO(out), nil
}

// Repay debits the borrower's savings wallet towards the loan. Payments above
// the outstanding balance are capped; settling it completes the loan.
func (u *Usecase) Repay(ctx context.Context, loanID, payerID string, amount decimal.Decimal) (*RepayResult, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return nil, apperr.ErrInvalidAmount
	}
	var (
		res RepayResult
		evs []event.Event
	)
	err := u.inLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.BorrowerID != payerID {
			return apperr.ErrForbidden
		}
		if l.State != loan.StateActive {
			return transitionErr(l, "repay")
		}
		applied := decimal.Min(amount, l.Outstanding())
		tx, err := ledger.DebitTx(ctx, r, payerID, wallet.TypeSavings, applied, ledger.Meta{
			Type:        wallet.TxLoanRepayment,
			Reference:   l.LoanID,
			Description: "loan repayment",
		})
		if err != nil {
			return err
		}
		now := u.now()
		l.AmountRepaid = l.AmountRepaid.Add(applied)

		batch := []event.Event{{
			Name: event.LoanRepaymentReceived, LoanID: l.LoanID, BorrowerID: l.BorrowerID, ActorID: payerID,
			Amount: applied, OccurredAt: now, Reference: tx.TxID,
		}}
		if l.Outstanding().IsZero() {
			done, err := u.move(l, loan.StateCompleted, event.LoanCompleted, payerID, now)
			if err != nil {
				return err
			}
			if _, err := r.Guarantors.UpdateStatusByLoan(ctx, l.ID, guarantor.StatusConfirmed, guarantor.StatusReleased); err != nil {
				return err
			}
			batch = append(batch, done)
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		res = RepayResult{Loan: toDTO(l), Transaction: tx, Applied: applied}
		evs = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("repayment received", zap.String("loan_id", loanID), zap.String("applied", res.Applied.StringFixed(2)),
		zap.String("state", res.Loan.State))
	u.publish(ctx, evs...)
	return &res, nil
}
