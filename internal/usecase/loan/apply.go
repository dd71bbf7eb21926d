package loan

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/event"
	"cooploan-backend/internal/domain/loan"
	"cooploan-backend/internal/domain/uow"
	"cooploan-backend/internal/domain/wallet"
	"cooploan-backend/internal/usecase/token"
	"cooploan-backend/pkg/id"
)

const maxPurposeLen = 500

func (u *Usecase) validateApply(in ApplyInput) error {
	switch {
	case in.BorrowerID == "":
		return apperr.Validation("borrower is required")
	case in.Amount.LessThan(u.policy.MinAmount):
		return apperr.Validation("amount must be at least " + u.policy.MinAmount.String())
	case !in.Amount.Equal(in.Amount.Round(2)):
		return apperr.Validation("amount must have at most two decimal places")
	case strings.TrimSpace(in.Purpose) == "":
		return apperr.Validation("purpose is required")
	case len(in.Purpose) > maxPurposeLen:
		return apperr.Validation("purpose is too long")
	}
	if _, ok := u.policy.Rates[in.TenorMonths]; !ok {
		return apperr.Validation("tenor_months is not offered")
	}
	return nil
}

// Apply opens a pending loan for a verified member and issues the guarantor QR.
func (u *Usecase) Apply(ctx context.Context, in ApplyInput) (*ApplyResult, error) {
	if err := u.validateApply(in); err != nil {
		return nil, err
	}
	if u.policy.ApplicationsFlag != "" && !u.enabled(ctx, u.policy.ApplicationsFlag, in.BorrowerID) {
		return nil, apperr.ErrFeatureDisabled
	}
	quote, _ := u.policy.Quote(in.Amount, in.TenorMonths)

	var (
		out *loan.Loan
		tok *token.Issued
		ev  event.Event
	)
	err := u.inTx(ctx, func(r uow.Repos) error {
		// the member lock serializes concurrent applications by one borrower
		m, err := r.Members.GetByMemberIDForUpdate(ctx, in.BorrowerID)
		if err != nil {
			return notFoundAs(err, apperr.ErrKycRequired)
		}
		if !m.Verified() {
			return apperr.ErrKycRequired
		}

		open, err := r.Loans.GetOpenLoanByBorrowerID(ctx, in.BorrowerID)
		switch {
		case err == nil:
			return &apperr.Error{Kind: apperr.KindPrecondition, Code: apperr.ErrExistingLoan.Code,
				Message: "you already have a loan that is " + string(open.State)}
		case !errors.Is(err, apperr.ErrNotFound):
			return err
		}

		n, err := r.Transactions.CountCompleted(ctx, in.BorrowerID, wallet.TxContribution)
		if err != nil {
			return err
		}
		if n < u.policy.MinContributions {
			return apperr.ErrInsufficientContributions
		}

		now := u.now()
		l := &loan.Loan{
			LoanID:             id.NewID32(),
			BorrowerID:         in.BorrowerID,
			Amount:             in.Amount,
			TenorMonths:        in.TenorMonths,
			InterestRate:       quote.InterestRate,
			ProcessingFee:      quote.ProcessingFee,
			MonthlyRepayment:   quote.MonthlyRepayment,
			TotalRepayment:     quote.TotalRepayment,
			AmountRepaid:       decimal.Zero,
			Purpose:            strings.TrimSpace(in.Purpose),
			State:              loan.StatePending,
			GuarantorsRequired: u.policy.GuarantorsRequired,
			StateUpdatedAt:     now,
			Details: loan.Details{
				Guarantors: loan.GuarantorProgress{Required: u.policy.GuarantorsRequired},
			},
		}
		issued, err := u.tokens.Issue(l, m.Name)
		if err != nil {
			return err
		}
		l.QRToken = issued.QR
		l.QRSignature = issued.Signature
		l.QRExpiresAt = issued.ExpiresAt
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}

		out, tok = l, issued
		ev = event.Event{
			Name:         event.LoanApplied,
			LoanID:       l.LoanID,
			BorrowerID:   l.BorrowerID,
			ActorID:      l.BorrowerID,
			NewState:     string(l.State),
			Amount:       l.Amount,
			OccurredAt:   now,
			BorrowerName: m.Name,
			Required:     l.GuarantorsRequired,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("loan applied", zap.String("loan_id", out.LoanID), zap.String("borrower_id", out.BorrowerID),
		zap.String("amount", out.Amount.StringFixed(2)), zap.Int("tenor", out.TenorMonths))
	u.publish(ctx, ev)
	return &ApplyResult{Loan: toDTO(out), Token: tok}, nil
}

// RefreshToken re-issues the QR while the loan still collects guarantors. The
// previous token stops being redeemable.
func (u *Usecase) RefreshToken(ctx context.Context, loanID, actorID string) (*token.Issued, error) {
	var (
		tok *token.Issued
		ev  event.Event
	)
	err := u.inLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.BorrowerID != actorID {
			return apperr.ErrForbidden
		}
		if !l.State.AwaitingGuarantors() {
			return transitionErr(l, "refresh the QR code of")
		}
		name := ""
		if m, err := r.Members.GetByMemberID(ctx, l.BorrowerID); err == nil {
			name = m.Name
		}
		issued, err := u.tokens.Issue(l, name)
		if err != nil {
			return err
		}
		l.QRToken = issued.QR
		l.QRSignature = issued.Signature
		l.QRExpiresAt = issued.ExpiresAt
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		tok = issued
		ev = event.Event{
			Name: event.LoanTokenRefreshed, LoanID: l.LoanID, BorrowerID: l.BorrowerID,
			ActorID: actorID, Amount: l.Amount, OccurredAt: u.now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, ev)
	return tok, nil
}
