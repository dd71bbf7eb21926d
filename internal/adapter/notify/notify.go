// Package notify turns loan events into member notifications.
package notify

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"cooploan-backend/internal/domain/event"
)

// Notifier delivers member-facing messages. The push transport lives outside
// this service.
type Notifier interface {
	NotifyLoanStatus(ctx context.Context, userID, loanID, status string, data map[string]string) error
	NotifyGuarantorRequest(ctx context.Context, userID, loanID, borrowerName string, amount decimal.Decimal, position, totalRequired int) error
	NotifyGuarantorConfirmed(ctx context.Context, borrowerID, loanID, guarantorName string, confirmedCount, totalRequired int) error
}

// Subscriber maps loan events onto a Notifier.
type Subscriber struct{ n Notifier }

func NewSubscriber(n Notifier) *Subscriber { return &Subscriber{n: n} }

func (s *Subscriber) Name() string { return "notify" }

func (s *Subscriber) Handle(ctx context.Context, e event.Event) error {
	switch e.Name {
	case event.GuarantorRequested:
		return s.n.NotifyGuarantorRequest(ctx, e.GuarantorID, e.LoanID, e.BorrowerName, e.Amount, e.Position, e.Required)
	case event.GuarantorConfirmed:
		return s.n.NotifyGuarantorConfirmed(ctx, e.BorrowerID, e.LoanID, e.GuarantorName, e.Confirmed, e.Required)
	case event.LoanRepaymentReceived:
		return s.n.NotifyLoanStatus(ctx, e.BorrowerID, e.LoanID, "repayment_received", map[string]string{
			"amount": e.Amount.StringFixed(2),
		})
	}
	if !e.StateChange() {
		return nil
	}
	data := map[string]string{"event": string(e.Name), "amount": e.Amount.StringFixed(2)}
	if e.OldState != "" {
		data["previous_status"] = e.OldState
	}
	if e.Reason != "" {
		data["reason"] = e.Reason
	}
	return s.n.NotifyLoanStatus(ctx, e.BorrowerID, e.LoanID, e.NewState, data)
}

// Multi fans out to several notifiers and joins their errors.
type Multi []Notifier

func (m Multi) NotifyLoanStatus(ctx context.Context, userID, loanID, status string, data map[string]string) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.NotifyLoanStatus(ctx, userID, loanID, status, data))
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyGuarantorRequest(ctx context.Context, userID, loanID, borrowerName string, amount decimal.Decimal, position, totalRequired int) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.NotifyGuarantorRequest(ctx, userID, loanID, borrowerName, amount, position, totalRequired))
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyGuarantorConfirmed(ctx context.Context, borrowerID, loanID, guarantorName string, confirmedCount, totalRequired int) error {
	var errs []error
	for _, n := range m {
		errs = append(errs, n.NotifyGuarantorConfirmed(ctx, borrowerID, loanID, guarantorName, confirmedCount, totalRequired))
	}
	return errors.Join(errs...)
}
