package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeSavings      Type = "savings"
	TypeContribution Type = "contribution"
	TypeInvestment   Type = "investment"
)

func ValidType(t Type) bool {
	switch t {
	case TypeSavings, TypeContribution, TypeInvestment:
		return true
	}
	return false
}

type Status string

const (
	StatusActive Status = "active"
	StatusFrozen Status = "frozen"
	StatusClosed Status = "closed"
)

type Wallet struct {
	ID        uint64          `gorm:"primaryKey;column:id" json:"-"`
	WalletID  string          `gorm:"column:wallet_id;size:32;uniqueIndex:ux_wallets_wallet_id" json:"wallet_id"`
	UserID    string          `gorm:"column:user_id;size:32;uniqueIndex:ux_wallets_user_type" json:"user_id"`
	Type      Type            `gorm:"column:type;size:16;uniqueIndex:ux_wallets_user_type" json:"type"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(18,2);not null;default:0" json:"balance"`
	Status    Status          `gorm:"column:status;size:16;default:'active'" json:"status"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

type TxType string

const (
	TxContribution     TxType = "contribution"
	TxWithdrawal       TxType = "withdrawal"
	TxLoanDisbursement TxType = "loan_disbursement"
	TxLoanRepayment    TxType = "loan_repayment"
	TxInterest         TxType = "interest"
	TxRefund           TxType = "refund"
	TxTransfer         TxType = "transfer"
)

type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

type TxStatus string

const (
	TxPending    TxStatus = "pending"
	TxProcessing TxStatus = "processing"
	TxCompleted  TxStatus = "completed"
	TxFailed     TxStatus = "failed"
	TxCancelled  TxStatus = "cancelled"
)

// CanMoveTo enforces forward-only status changes.
func (s TxStatus) CanMoveTo(next TxStatus) bool {
	switch s {
	case TxPending:
		return next == TxProcessing || next == TxCompleted || next == TxFailed || next == TxCancelled
	case TxProcessing:
		return next == TxCompleted || next == TxFailed
	}
	return false
}

// Transaction is an append-only ledger entry.
type Transaction struct {
	ID          uint64          `gorm:"primaryKey;column:id" json:"-"`
	TxID        string          `gorm:"column:tx_id;size:32;uniqueIndex:ux_wallet_tx_tx_id" json:"tx_id"`
	WalletID    uint64          `gorm:"column:wallet_id;index:idx_wallet_tx_wallet" json:"-"`
	UserID      string          `gorm:"column:user_id;size:32;index:idx_wallet_tx_user_type" json:"user_id"`
	WalletType  Type            `gorm:"column:wallet_type;size:16" json:"wallet_type"`
	Type        TxType          `gorm:"column:type;size:24;index:idx_wallet_tx_user_type" json:"type"`
	Direction   Direction       `gorm:"column:direction;size:8" json:"direction"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Status      TxStatus        `gorm:"column:status;size:16" json:"status"`
	Reference   string          `gorm:"column:reference;size:64;index:idx_wallet_tx_reference" json:"reference,omitempty"`
	Description string          `gorm:"column:description;size:255" json:"description,omitempty"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Transaction) TableName() string { return "wallet_transactions" }

// Delta is the signed effect of the entry on its wallet balance. Debits leave
// the wallet when posted; a failed withdrawal is reversed by a refund credit.
func (t *Transaction) Delta() decimal.Decimal {
	if t.Direction == Debit {
		return t.Amount.Neg()
	}
	if t.Status == TxCompleted {
		return t.Amount
	}
	return decimal.Zero
}
