package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Name string

const (
	LoanApplied           Name = "loan.applied"
	LoanTokenRefreshed    Name = "loan.token_refreshed"
	GuarantorRequested    Name = "loan.guarantor_requested"
	GuarantorConfirmed    Name = "loan.guarantor_confirmed"
	LoanReviewStarted     Name = "loan.review_started"
	LoanApproved          Name = "loan.approved"
	LoanRejected          Name = "loan.rejected"
	LoanRolloverRequested Name = "loan.rollover_requested"
	LoanRolloverResolved  Name = "loan.rollover_resolved"
	LoanRepaymentReceived Name = "loan.repayment_received"
	LoanCompleted         Name = "loan.completed"
	LoanDefaulted         Name = "loan.defaulted"
)

// Event is emitted by a lifecycle operation and delivered after commit.
type Event struct {
	Name       Name            `json:"name"`
	LoanID     string          `json:"loan_id"`
	BorrowerID string          `json:"borrower_id"`
	ActorID    string          `json:"actor_id"`
	OldState   string          `json:"old_state,omitempty"`
	NewState   string          `json:"new_state,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`

	BorrowerName  string `json:"borrower_name,omitempty"`
	GuarantorID   string `json:"guarantor_id,omitempty"`
	GuarantorName string `json:"guarantor_name,omitempty"`
	Position      int    `json:"position,omitempty"`
	Confirmed     int    `json:"confirmed,omitempty"`
	Required      int    `json:"required,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Reference     string `json:"reference,omitempty"`
}

// StateChange reports whether the event moved the loan between states.
func (e Event) StateChange() bool { return e.NewState != "" && e.OldState != e.NewState }

type Dispatcher interface {
	Dispatch(ctx context.Context, events []Event)
}

// Subscriber receives every dispatched event; errors are logged by the dispatcher.
type Subscriber interface {
	Name() string
	Handle(ctx context.Context, e Event) error
}
