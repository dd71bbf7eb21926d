package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"cooploan-backend/internal/domain/guarantor"
	"cooploan-backend/internal/domain/loan"
	"cooploan-backend/internal/domain/wallet"
	"cooploan-backend/internal/usecase/token"
)

type ApplyInput struct {
	BorrowerID  string          `json:"-"`
	Amount      decimal.Decimal `json:"amount"`
	TenorMonths int             `json:"tenor_months"`
	Purpose     string          `json:"purpose"`
}

type ConfirmInput struct {
	LoanID            string `json:"-"`
	GuarantorID       string `json:"-"`
	BiometricVerified bool   `json:"biometric_verified"`
}

// RedeemInput carries either the scanned QR body or its payload/signature pair.
type RedeemInput struct {
	QR                string `json:"qr"`
	Payload           string `json:"payload"`
	Signature         string `json:"signature"`
	GuarantorID       string `json:"-"`
	BiometricVerified bool   `json:"biometric_verified"`
}

type RolloverInput struct {
	LoanID      string `json:"-"`
	RequesterID string `json:"-"`
	Reason      string `json:"reason"`
	NewTenor    int    `json:"new_tenor"`
}

type LoanDTO struct {
	LoanID              string          `json:"loan_id"`
	BorrowerID          string          `json:"borrower_id"`
	Amount              decimal.Decimal `json:"amount"`
	TenorMonths         int             `json:"tenor_months"`
	InterestRate        decimal.Decimal `json:"interest_rate"`
	ProcessingFee       decimal.Decimal `json:"processing_fee"`
	MonthlyRepayment    decimal.Decimal `json:"monthly_repayment"`
	TotalRepayment      decimal.Decimal `json:"total_repayment"`
	AmountRepaid        decimal.Decimal `json:"amount_repaid"`
	Outstanding         decimal.Decimal `json:"outstanding"`
	Purpose             string          `json:"purpose"`
	State               string          `json:"state"`
	GuarantorsRequired  int             `json:"guarantors_required"`
	GuarantorsConfirmed int             `json:"guarantors_confirmed"`
	QRExpiresAt         time.Time       `json:"qr_expires_at"`
	DisbursedAt         *time.Time      `json:"disbursed_at,omitempty"`
	DueDate             *time.Time      `json:"due_date,omitempty"`
	Details             loan.Details    `json:"details"`
	StateUpdatedAt      time.Time       `json:"state_updated_at"`
	CreatedAt           time.Time       `json:"created_at"`
}

func toDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:              l.LoanID,
		BorrowerID:          l.BorrowerID,
		Amount:              l.Amount,
		TenorMonths:         l.TenorMonths,
		InterestRate:        l.InterestRate,
		ProcessingFee:       l.ProcessingFee,
		MonthlyRepayment:    l.MonthlyRepayment,
		TotalRepayment:      l.TotalRepayment,
		AmountRepaid:        l.AmountRepaid,
		Outstanding:         l.Outstanding(),
		Purpose:             l.Purpose,
		State:               string(l.State),
		GuarantorsRequired:  l.GuarantorsRequired,
		GuarantorsConfirmed: l.GuarantorsConfirmed,
		QRExpiresAt:         l.QRExpiresAt,
		DisbursedAt:         l.DisbursedAt,
		DueDate:             l.DueDate,
		Details:             l.Details,
		StateUpdatedAt:      l.StateUpdatedAt,
		CreatedAt:           l.CreatedAt,
	}
}

type ApplyResult struct {
	Loan  *LoanDTO      `json:"loan"`
	Token *token.Issued `json:"token"`
}

type ConfirmResult struct {
	LoanID           string `json:"loan_id"`
	Position         int    `json:"position"`
	Confirmed        int    `json:"confirmed"`
	Required         int    `json:"required"`
	ReadyForApproval bool   `json:"ready_for_approval"`
}

type InviteResult struct {
	LoanID      string `json:"loan_id"`
	GuarantorID string `json:"guarantor_id"`
	Position    int    `json:"position"`
	Required    int    `json:"required"`
}

type GuarantorDTO struct {
	GuarantorID       string           `json:"guarantor_id"`
	Position          int              `json:"position"`
	Status            guarantor.Status `json:"status"`
	ConfirmedAt       *time.Time       `json:"confirmed_at,omitempty"`
	BiometricVerified bool             `json:"biometric_verified"`
	SignatureValid    bool             `json:"signature_valid"`
}

type RepayResult struct {
	Loan        *LoanDTO            `json:"loan"`
	Transaction *wallet.Transaction `json:"transaction"`
	Applied     decimal.Decimal     `json:"applied"`
}
