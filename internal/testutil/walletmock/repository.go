package walletmock

import (
	"context"

	"github.com/shopspring/decimal"

	domain "cooploan-backend/internal/domain/wallet"
)

var (
	_ domain.Repository            = (*Repo)(nil)
	_ domain.TransactionRepository = (*TxRepo)(nil)
)

// Repo is a function-backed wallet.Repository.
type Repo struct {
	GetByOwnerFn           func(ctx context.Context, userID string, t domain.Type) (*domain.Wallet, error)
	GetOrCreateForUpdateFn func(ctx context.Context, userID string, t domain.Type) (*domain.Wallet, error)
	GetForUpdateFn         func(ctx context.Context, userID string, t domain.Type) (*domain.Wallet, error)
	SaveFn                 func(ctx context.Context, w *domain.Wallet) error
}

func (m *Repo) GetByOwner(ctx context.Context, userID string, t domain.Type) (*domain.Wallet, error) {
	if m.GetByOwnerFn != nil {
		return m.GetByOwnerFn(ctx, userID, t)
	}
	return nil, context.Canceled
}

func (m *Repo) GetOrCreateForUpdate(ctx context.Context, userID string, t domain.Type) (*domain.Wallet, error) {
	if m.GetOrCreateForUpdateFn != nil {
		return m.GetOrCreateForUpdateFn(ctx, userID, t)
	}
	return nil, context.Canceled
}

func (m *Repo) GetForUpdate(ctx context.Context, userID string, t domain.Type) (*domain.Wallet, error) {
	if m.GetForUpdateFn != nil {
		return m.GetForUpdateFn(ctx, userID, t)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, w *domain.Wallet) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, w)
	}
	return nil
}

// TxRepo is a function-backed wallet.TransactionRepository.
type TxRepo struct {
	CreateFn             func(ctx context.Context, tx *domain.Transaction) error
	SaveFn               func(ctx context.Context, tx *domain.Transaction) error
	GetByTxIDFn          func(ctx context.Context, txID string) (*domain.Transaction, error)
	GetByTxIDForUpdateFn func(ctx context.Context, txID string) (*domain.Transaction, error)
	ListByWalletFn       func(ctx context.Context, walletID uint64, limit int) ([]domain.Transaction, error)
	ListByReferenceFn    func(ctx context.Context, reference string, t domain.TxType) ([]domain.Transaction, error)
	CountCompletedFn     func(ctx context.Context, userID string, t domain.TxType) (int64, error)
	AverageCompletedFn   func(ctx context.Context, userID string, t domain.TxType) (decimal.Decimal, error)
}

func (m *TxRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, tx)
	}
	return nil
}

func (m *TxRepo) Save(ctx context.Context, tx *domain.Transaction) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, tx)
	}
	return nil
}

func (m *TxRepo) GetByTxID(ctx context.Context, txID string) (*domain.Transaction, error) {
	if m.GetByTxIDFn != nil {
		return m.GetByTxIDFn(ctx, txID)
	}
	return nil, context.Canceled
}

func (m *TxRepo) GetByTxIDForUpdate(ctx context.Context, txID string) (*domain.Transaction, error) {
	if m.GetByTxIDForUpdateFn != nil {
		return m.GetByTxIDForUpdateFn(ctx, txID)
	}
	return nil, context.Canceled
}

func (m *TxRepo) ListByWallet(ctx context.Context, walletID uint64, limit int) ([]domain.Transaction, error) {
	if m.ListByWalletFn != nil {
		return m.ListByWalletFn(ctx, walletID, limit)
	}
	return nil, context.Canceled
}

func (m *TxRepo) ListByReference(ctx context.Context, reference string, t domain.TxType) ([]domain.Transaction, error) {
	if m.ListByReferenceFn != nil {
		return m.ListByReferenceFn(ctx, reference, t)
	}
	return nil, context.Canceled
}

func (m *TxRepo) CountCompleted(ctx context.Context, userID string, t domain.TxType) (int64, error) {
	if m.CountCompletedFn != nil {
		return m.CountCompletedFn(ctx, userID, t)
	}
	return 0, context.Canceled
}

func (m *TxRepo) AverageCompleted(ctx context.Context, userID string, t domain.TxType) (decimal.Decimal, error) {
	if m.AverageCompletedFn != nil {
		return m.AverageCompletedFn(ctx, userID, t)
	}
	return decimal.Zero, context.Canceled
}
