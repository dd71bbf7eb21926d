package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type State string

const (
	StatePending         State = "pending"
	StateUnderReview     State = "under_review"
	StateApproved        State = "approved"
	StateRejected        State = "rejected"
	StateActive          State = "active"
	StateCompleted       State = "completed"
	StateDefaulted       State = "defaulted"
	StateRolledOver      State = "rolled_over"
	StatePendingRollover State = "pending_rollover"
)

// OpenStates are the states that block a new application and count towards
// guarantor exposure.
var OpenStates = []State{StateActive, StatePending, StateUnderReview}

var transitions = map[State][]State{
	StatePending:         {StateUnderReview, StateApproved, StateRejected},
	StateUnderReview:     {StateApproved, StateRejected},
	StateApproved:        {StateActive},
	StateActive:          {StateCompleted, StateDefaulted, StatePendingRollover},
	StatePendingRollover: {StateRolledOver, StateActive},
}

func (s State) CanMoveTo(next State) bool {
	for _, n := range transitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateRejected, StateDefaulted, StateRolledOver:
		return true
	}
	return false
}

// AwaitingGuarantors reports whether confirmations are still accepted.
func (s State) AwaitingGuarantors() bool {
	return s == StatePending || s == StateUnderReview
}

type Loan struct {
	ID                  uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID              string          `gorm:"column:loan_id;size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID          string          `gorm:"column:borrower_id;size:32;index:idx_loans_borrower_state" json:"borrower_id"`
	Amount              decimal.Decimal `gorm:"column:amount;type:decimal(18,2)" json:"amount"`
	TenorMonths         int             `gorm:"column:tenor_months" json:"tenor_months"`
	InterestRate        decimal.Decimal `gorm:"column:interest_rate;type:decimal(6,2)" json:"interest_rate"`
	ProcessingFee       decimal.Decimal `gorm:"column:processing_fee;type:decimal(18,2)" json:"processing_fee"`
	MonthlyRepayment    decimal.Decimal `gorm:"column:monthly_repayment;type:decimal(18,2)" json:"monthly_repayment"`
	TotalRepayment      decimal.Decimal `gorm:"column:total_repayment;type:decimal(18,2)" json:"total_repayment"`
	AmountRepaid        decimal.Decimal `gorm:"column:amount_repaid;type:decimal(18,2);default:0" json:"amount_repaid"`
	Purpose             string          `gorm:"column:purpose;type:text" json:"purpose"`
	State               State           `gorm:"column:state;size:24;index:idx_loans_borrower_state;default:'pending'" json:"state"`
	GuarantorsRequired  int             `gorm:"column:guarantors_required" json:"guarantors_required"`
	GuarantorsConfirmed int             `gorm:"column:guarantors_confirmed" json:"guarantors_confirmed"`
	QRToken             string          `gorm:"column:qr_token;type:text" json:"-"`
	QRSignature         string          `gorm:"column:qr_signature;size:64" json:"-"`
	QRExpiresAt         time.Time       `gorm:"column:qr_expires_at" json:"qr_expires_at"`
	DisbursedAt         *time.Time      `gorm:"column:disbursed_at" json:"disbursed_at,omitempty"`
	DueDate             *time.Time      `gorm:"column:due_date;index:idx_loans_due" json:"due_date,omitempty"`
	Details             Details         `gorm:"column:details;serializer:json;type:json" json:"details"`
	StateUpdatedAt      time.Time       `gorm:"column:state_updated_at" json:"state_updated_at"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Outstanding is what the borrower still owes.
func (l *Loan) Outstanding() decimal.Decimal {
	out := l.TotalRepayment.Sub(l.AmountRepaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

func (l *Loan) ReadyForApproval() bool {
	return l.GuarantorsConfirmed >= l.GuarantorsRequired
}

func (l *Loan) MoveTo(next State, at time.Time) {
	l.State = next
	l.StateUpdatedAt = at
}
