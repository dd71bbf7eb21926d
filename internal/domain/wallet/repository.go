package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	GetByOwner(ctx context.Context, userID string, t Type) (*Wallet, error)
	// Creates the wallet if it does not exist yet, then row-locks it.
	GetOrCreateForUpdate(ctx context.Context, userID string, t Type) (*Wallet, error)
	// Row-locks an existing wallet; not found if absent.
	GetForUpdate(ctx context.Context, userID string, t Type) (*Wallet, error)
	Save(ctx context.Context, w *Wallet) error
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	Save(ctx context.Context, tx *Transaction) error
	GetByTxID(ctx context.Context, txID string) (*Transaction, error)
	GetByTxIDForUpdate(ctx context.Context, txID string) (*Transaction, error)
	ListByWallet(ctx context.Context, walletID uint64, limit int) ([]Transaction, error)
	ListByReference(ctx context.Context, reference string, t TxType) ([]Transaction, error)
	CountCompleted(ctx context.Context, userID string, t TxType) (int64, error)
	AverageCompleted(ctx context.Context, userID string, t TxType) (decimal.Decimal, error)
}
