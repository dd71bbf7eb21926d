package loan

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/event"
	"cooploan-backend/internal/domain/guarantor"
	"cooploan-backend/internal/domain/loan"
	"cooploan-backend/internal/domain/uow"
	"cooploan-backend/internal/domain/wallet"
	"cooploan-backend/internal/usecase/ledger"
)

func (u *Usecase) StartReview(ctx context.Context, loanID, reviewerID string) (*LoanDTO, error) {
	var (
		out *loan.Loan
		ev  event.Event
	)
	err := u.inLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		now := u.now()
		e, err := u.move(l, loan.StateUnderReview, event.LoanReviewStarted, reviewerID, now)
		if err != nil {
			return err
		}
		l.Details.Review = &loan.ReviewDetails{ReviewedBy: reviewerID, StartedAt: now}
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

// Approve activates a fully guaranteed loan and disburses the principal into
// the borrower's savings wallet in the same transaction.
func (u *Usecase) Approve(ctx context.Context, loanID, approverID string) (*LoanDTO, error) {
	var (
		out *loan.Loan
		ev  event.Event
	)
	err := u.inLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if !l.State.AwaitingGuarantors() {
			return transitionErr(l, "approve")
		}
		confirmed, err := r.Guarantors.CountByStatus(ctx, l.ID, guarantor.StatusConfirmed)
		if err != nil {
			return err
		}
		if confirmed < l.GuarantorsRequired {
			return apperr.ErrGuarantorsIncomplete
		}

		now := u.now()
		old := l.State
		if _, err := u.move(l, loan.StateApproved, event.LoanApproved, approverID, now); err != nil {
			return err
		}
		e, err := u.move(l, loan.StateActive, event.LoanApproved, approverID, now)
		if err != nil {
			return err
		}
		e.OldState = string(old)

		tx, err := ledger.CreditTx(ctx, r, l.BorrowerID, wallet.TypeSavings, l.Amount, ledger.Meta{
			Type:        wallet.TxLoanDisbursement,
			Reference:   l.LoanID,
			Description: "loan disbursement",
		})
		if err != nil {
			return err
		}

		due := now.AddDate(0, l.TenorMonths, 0)
		l.DisbursedAt = &now
		l.DueDate = &due
		l.GuarantorsConfirmed = confirmed
		l.Details.Approval = &loan.ApprovalDetails{
			ApprovedBy:      approverID,
			ApprovedAt:      now,
			DisbursementTx:  tx.TxID,
			DisbursedWallet: string(wallet.TypeSavings),
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		e.Reference = tx.TxID
		out, ev = l, e
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("loan approved", zap.String("loan_id", out.LoanID), zap.String("approved_by", approverID),
		zap.String("amount", out.Amount.StringFixed(2)), zap.Time("due_date", *out.DueDate))
	u.publish(ctx, ev)
	return toDTO(out), nil
}

// Reject closes an undecided loan; its confirmations stop counting as exposure.
func (u *Usecase) Reject(ctx context.Context, loanID, rejectorID, reason string) (*LoanDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("a rejection reason is required")
	}
	var (
		out *loan.Loan
		ev  event.Event
	)
	err := u.inLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		now := u.now()
		e, err := u.move(l, loan.StateRejected, event.LoanRejected, rejectorID, now)
		if err != nil {
			return err
		}
		for _, from := range []guarantor.Status{guarantor.StatusConfirmed, guarantor.StatusPending} {
			if _, err := r.Guarantors.UpdateStatusByLoan(ctx, l.ID, from, guarantor.StatusRejected); err != nil {
				return err
			}
		}
		l.Details.Rejection = &loan.RejectionDetails{Reason: reason, RejectedBy: rejectorID, RejectedAt: now}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		e.Reason = reason
		out, ev = l, e
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("loan rejected", zap.String("loan_id", out.LoanID), zap.String("rejected_by", rejectorID))
	u.publish(ctx, ev)
	return toDTO(out), nil
}

// MarkDefaulted closes an overdue loan. Confirmations stay confirmed so the
// guarantors remain on record for recovery.
func (u *Usecase) MarkDefaulted(ctx context.Context, loanID, actorID, reason string) (*LoanDTO, error) {
	var (
		out *loan.Loan
		ev  event.Event
	)
	err := u.inLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if !l.State.CanMoveTo(loan.StateDefaulted) {
			return transitionErr(l, "default")
		}
		now := u.now()
		if l.DueDate == nil || !now.After(*l.DueDate) {
			return &apperr.Error{Kind: apperr.KindPrecondition, Code: apperr.ErrInvalidTransition.Code,
				Message: "the loan is not past its due date"}
		}
		e, err := u.move(l, loan.StateDefaulted, event.LoanDefaulted, actorID, now)
		if err != nil {
			return err
		}
		l.Details.Default = &loan.DefaultDetails{
			Reason:      reason,
			MarkedBy:    actorID,
			MarkedAt:    now,
			Outstanding: l.Outstanding().StringFixed(2),
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		e.Reason = reason
		e.Amount = l.Outstanding()
		out, ev = l, e
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Warn("loan defaulted", zap.String("loan_id", out.LoanID), zap.String("outstanding", out.Outstanding().StringFixed(2)))
	u.publish(ctx, ev)
	return toDTO(out), nil
}

// SweepOverdue defaults every active loan whose due date passed more than the
// grace period ago. Loans awaiting a rollover decision are left for the
// resolver. It returns how many were defaulted.
func (u *Usecase) SweepOverdue(ctx context.Context, actorID string) (int, error) {
	cutoff := u.now().Add(-u.policy.DefaultGrace)
	due, err := u.loans.ListOverdue(ctx, cutoff, []loan.State{loan.StateActive})
	if err != nil {
		return 0, apperr.Wrap(err)
	}
	n := 0
	for _, l := range due {
		if ctx.Err() != nil {
			return n, apperr.Storage(ctx.Err())
		}
		if _, err := u.MarkDefaulted(ctx, l.LoanID, actorID, "overdue by more than "+u.policy.DefaultGrace.Round(time.Hour).String()); err != nil {
			u.log.Error("default sweep failed", zap.String("loan_id", l.LoanID), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
}
