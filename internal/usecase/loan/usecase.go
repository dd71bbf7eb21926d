// Package loan runs the loan lifecycle: application, guarantor consensus,
// approval with disbursement, repayment, rollover and default.
package loan

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/event"
	"cooploan-backend/internal/domain/guarantor"
	"cooploan-backend/internal/domain/loan"
	"cooploan-backend/internal/domain/member"
	"cooploan-backend/internal/domain/uow"
	"cooploan-backend/internal/usecase/exposure"
	"cooploan-backend/internal/usecase/token"
)

const maxAttempts = 3

// Gate is the feature-flag check the engine consults.
type Gate interface {
	IsEnabled(ctx context.Context, name, userID, region string) bool
}

type Deps struct {
	UoW        uow.UnitOfWork
	Loans      loan.Repository
	Members    member.Repository
	Guarantors guarantor.Repository
	Tokens     *token.Service
	Exposure   *exposure.Tracker
	Gate       Gate
	Events     event.Dispatcher
	Policy     Policy
	Log        *zap.Logger
	Now        func() time.Time
}

type Usecase struct {
	uow        uow.UnitOfWork
	loans      loan.Repository
	members    member.Repository
	guarantors guarantor.Repository
	tokens     *token.Service
	exposure   *exposure.Tracker
	gate       Gate
	events     event.Dispatcher
	policy     Policy
	log        *zap.Logger
	now        func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Usecase{
		uow:        d.UoW,
		loans:      d.Loans,
		members:    d.Members,
		guarantors: d.Guarantors,
		tokens:     d.Tokens,
		exposure:   d.Exposure,
		gate:       d.Gate,
		events:     d.Events,
		policy:     d.Policy,
		log:        d.Log.Named("loan"),
		now:        d.Now,
	}
}

// inTx and inLoanTx retry the whole transaction on lock conflicts. Callbacks
// must assign (not append to) captured results since they may run again.
func (u *Usecase) inTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return apperr.Wrap(uow.Retry(ctx, maxAttempts, func() error {
		return u.uow.WithinTx(ctx, fn)
	}))
}

func (u *Usecase) inLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return apperr.Wrap(uow.Retry(ctx, maxAttempts, func() error {
		return u.uow.WithinLoanTx(ctx, loanID, fn)
	}))
}

// publish hands committed events to subscribers.
func (u *Usecase) publish(ctx context.Context, evs ...event.Event) {
	if u.events == nil || len(evs) == 0 {
		return
	}
	u.events.Dispatch(ctx, evs)
}

func (u *Usecase) enabled(ctx context.Context, flag, userID string) bool {
	if u.gate == nil {
		return false
	}
	region := ""
	if m, err := u.members.GetByMemberID(ctx, userID); err == nil {
		region = m.Region
	}
	return u.gate.IsEnabled(ctx, flag, userID, region)
}

func transitionErr(l *loan.Loan, action string) error {
	msg := "cannot " + action + " a loan that is " + string(l.State)
	if l.State.Terminal() {
		msg += "; the loan is closed"
	}
	return &apperr.Error{
		Kind:    apperr.KindPrecondition,
		Code:    apperr.ErrInvalidTransition.Code,
		Message: msg,
	}
}

// move applies a transition the state machine allows and returns the event
// skeleton describing it.
func (u *Usecase) move(l *loan.Loan, next loan.State, name event.Name, actor string, at time.Time) (event.Event, error) {
	if !l.State.CanMoveTo(next) {
		return event.Event{}, transitionErr(l, string(name))
	}
	old := l.State
	l.MoveTo(next, at)
	return event.Event{
		Name:       name,
		LoanID:     l.LoanID,
		BorrowerID: l.BorrowerID,
		ActorID:    actor,
		OldState:   string(old),
		NewState:   string(next),
		Amount:     l.Amount,
		OccurredAt: at,
	}, nil
}

func notFoundAs(err error, target *apperr.Error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return target
	}
	return err
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return toDTO(l), nil
}

func (u *Usecase) ListForBorrower(ctx context.Context, borrowerID string) ([]LoanDTO, error) {
	ls, err := u.loans.ListByBorrowerID(ctx, borrowerID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	out := make([]LoanDTO, 0, len(ls))
	for i := range ls {
		out = append(out, *toDTO(&ls[i]))
	}
	return out, nil
}

// CheckParty returns ErrForbidden unless memberID is the loan's borrower or
// holds a confirmation on it, whatever its status.
func (u *Usecase) CheckParty(ctx context.Context, loanID, memberID string) error {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return apperr.Wrap(err)
	}
	if l.BorrowerID == memberID {
		return nil
	}
	_, err = u.guarantors.GetByLoanAndGuarantor(ctx, l.ID, memberID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrNotFound):
		return apperr.ErrForbidden
	}
	return apperr.Wrap(err)
}

// Guarantors lists the loan's confirmations in slot order with their
// signatures checked.
func (u *Usecase) Guarantors(ctx context.Context, loanID string) ([]GuarantorDTO, error) {
	l, err := u.loans.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	cs, err := u.guarantors.ListByLoan(ctx, l.ID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	out := make([]GuarantorDTO, 0, len(cs))
	for _, c := range cs {
		valid := false
		if c.ConfirmedAt != nil {
			valid = u.tokens.CheckConfirmation(l.LoanID, c.GuarantorID, c.Position, *c.ConfirmedAt, c.Signature) == nil
		}
		out = append(out, GuarantorDTO{
			GuarantorID:       c.GuarantorID,
			Position:          c.Position,
			Status:            c.Status,
			ConfirmedAt:       c.ConfirmedAt,
			BiometricVerified: c.BiometricVerified,
			SignatureValid:    valid,
		})
	}
	return out, nil
}
