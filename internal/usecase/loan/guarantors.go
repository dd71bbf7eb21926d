package loan

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/event"
	"cooploan-backend/internal/domain/guarantor"
	"cooploan-backend/internal/domain/loan"
	"cooploan-backend/internal/domain/uow"
)

// checkSlot runs the guarantor checks that need no member lock.
func checkSlot(ctx context.Context, r uow.Repos, l *loan.Loan, guarantorID string) (confirmed int, err error) {
	if !l.State.AwaitingGuarantors() {
		return 0, transitionErr(l, "add a guarantor to")
	}
	if guarantorID == l.BorrowerID {
		return 0, apperr.ErrSelfGuarantor
	}
	_, err = r.Guarantors.GetByLoanAndGuarantor(ctx, l.ID, guarantorID)
	switch {
	case err == nil:
		return 0, apperr.ErrAlreadyGuarantor
	case !errors.Is(err, apperr.ErrNotFound):
		return 0, err
	}
	confirmed, err = r.Guarantors.CountByStatus(ctx, l.ID, guarantor.StatusConfirmed)
	if err != nil {
		return 0, err
	}
	if confirmed >= l.GuarantorsRequired {
		return 0, apperr.ErrGuarantorSlotsFull
	}
	return confirmed, nil
}

// InviteGuarantor lets the borrower ask a member to back the loan.
func (u *Usecase) InviteGuarantor(ctx context.Context, loanID, borrowerID, guarantorID string) (*InviteResult, error) {
	var (
		res InviteResult
		ev  event.Event
	)
	err := u.inLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.BorrowerID != borrowerID {
			return apperr.ErrForbidden
		}
		confirmed, err := checkSlot(ctx, r, l, guarantorID)
		if err != nil {
			return err
		}
		if _, err := r.Members.GetByMemberID(ctx, guarantorID); err != nil {
			return err
		}
		borrowerName := ""
		if b, err := r.Members.GetByMemberID(ctx, l.BorrowerID); err == nil {
			borrowerName = b.Name
		}
		res = InviteResult{LoanID: l.LoanID, GuarantorID: guarantorID, Position: confirmed + 1, Required: l.GuarantorsRequired}
		ev = event.Event{
			Name: event.GuarantorRequested, LoanID: l.LoanID, BorrowerID: l.BorrowerID, ActorID: borrowerID,
			Amount: l.Amount, OccurredAt: u.now(), BorrowerName: borrowerName, GuarantorID: guarantorID,
			Position: res.Position, Confirmed: confirmed, Required: l.GuarantorsRequired,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.publish(ctx, ev)
	return &res, nil
}

// ConfirmGuarantor records the guarantor in the next free position.
func (u *Usecase) ConfirmGuarantor(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	return u.confirm(ctx, in, "")
}

// RedeemToken verifies a scanned QR (or payload/signature pair) and confirms
// the guarantor on the loan it names. Superseded tokens are refused.
func (u *Usecase) RedeemToken(ctx context.Context, in RedeemInput) (*ConfirmResult, error) {
	raw, sig := in.Payload, in.Signature
	if in.QR != "" {
		var err error
		if raw, sig, err = u.tokens.ParseQR(in.QR); err != nil {
			return nil, err
		}
	}
	if raw == "" || sig == "" {
		return nil, apperr.ErrMalformedToken
	}
	p, err := u.tokens.Verify(raw, sig)
	if err != nil {
		return nil, err
	}
	return u.confirm(ctx, ConfirmInput{
		LoanID:            p.LoanID,
		GuarantorID:       in.GuarantorID,
		BiometricVerified: in.BiometricVerified,
	}, sig)
}

func (u *Usecase) confirm(ctx context.Context, in ConfirmInput, tokenSig string) (*ConfirmResult, error) {
	if in.GuarantorID == "" {
		return nil, apperr.Validation("guarantor is required")
	}
	var (
		res ConfirmResult
		ev  event.Event
	)
	err := u.inLoanTx(ctx, in.LoanID, func(r uow.Repos, l *loan.Loan) error {
		if tokenSig != "" && tokenSig != l.QRSignature {
			return apperr.ErrInvalidSignature
		}
		if _, err := checkSlot(ctx, r, l, in.GuarantorID); err != nil {
			return err
		}

		// lock order: loan, then member
		g, err := r.Members.GetByMemberIDForUpdate(ctx, in.GuarantorID)
		if err != nil {
			return notFoundAs(err, apperr.ErrKycRequired)
		}
		if !g.Verified() {
			return apperr.ErrKycRequired
		}
		ok, snap, err := u.exposure.CanGuarantee(ctx, r, g, l.Amount)
		if err != nil {
			return err
		}
		if !ok {
			return &apperr.Error{Kind: apperr.KindPrecondition, Code: apperr.ErrExposureLimitReached.Code,
				Message: "guaranteeing this loan would exceed your limit; available " + snap.Available.StringFixed(2)}
		}

		pos, err := r.Guarantors.MaxPosition(ctx, l.ID)
		if err != nil {
			return err
		}
		pos++
		now := u.now()
		c := &guarantor.Confirmation{
			LoanID:            l.ID,
			GuarantorID:       in.GuarantorID,
			Position:          pos,
			Status:            guarantor.StatusConfirmed,
			ConfirmedAt:       &now,
			BiometricVerified: in.BiometricVerified,
			Signature:         u.tokens.SignConfirmation(l.LoanID, in.GuarantorID, pos, now),
		}
		if err := r.Guarantors.Create(ctx, c); err != nil {
			return err
		}

		count, err := r.Guarantors.CountByStatus(ctx, l.ID, guarantor.StatusConfirmed)
		if err != nil {
			return err
		}
		l.GuarantorsConfirmed = count
		l.Details.Guarantors = loan.GuarantorProgress{Required: l.GuarantorsRequired, Confirmed: count, LastConfirmedAt: &now}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		res = ConfirmResult{
			LoanID:           l.LoanID,
			Position:         pos,
			Confirmed:        count,
			Required:         l.GuarantorsRequired,
			ReadyForApproval: l.ReadyForApproval(),
		}
		ev = event.Event{
			Name: event.GuarantorConfirmed, LoanID: l.LoanID, BorrowerID: l.BorrowerID, ActorID: in.GuarantorID,
			Amount: l.Amount, OccurredAt: now, GuarantorID: in.GuarantorID, GuarantorName: g.Name,
			Position: pos, Confirmed: count, Required: l.GuarantorsRequired,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Info("guarantor confirmed", zap.String("loan_id", res.LoanID), zap.String("guarantor_id", in.GuarantorID),
		zap.Int("position", res.Position), zap.Int("confirmed", res.Confirmed), zap.Int("required", res.Required))
	u.publish(ctx, ev)
	return &res, nil
}
