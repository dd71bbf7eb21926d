package ledger

import (
	"github.com/shopspring/decimal"

	"cooploan-backend/internal/domain/wallet"
)

// Meta describes a ledger entry being posted.
type Meta struct {
	Type        wallet.TxType
	Reference   string
	Description string
}

type TransferResult struct {
	Debit  *wallet.Transaction `json:"debit"`
	Credit *wallet.Transaction `json:"credit"`
}

type Reconciliation struct {
	UserID     string          `json:"user_id"`
	WalletType wallet.Type     `json:"wallet_type"`
	Balance    decimal.Decimal `json:"balance"`
	Computed   decimal.Decimal `json:"computed"`
	Drift      decimal.Decimal `json:"drift"`
	Entries    int             `json:"entries"`
}

func (r Reconciliation) Consistent() bool { return r.Drift.IsZero() }
