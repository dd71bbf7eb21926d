package mysql

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	walletDomain "cooploan-backend/internal/domain/wallet"
	"cooploan-backend/pkg/id"
)

type WalletRepository struct{ db *gorm.DB }

func NewWalletRepository(db *gorm.DB) *WalletRepository { return &WalletRepository{db: db} }

func (r *WalletRepository) GetByOwner(ctx context.Context, userID string, t walletDomain.Type) (*walletDomain.Wallet, error) {
	var out walletDomain.Wallet
	res := r.db.WithContext(ctx).Where("user_id = ? AND type = ?", userID, t).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "wallet")
	}
	return &out, nil
}

func (r *WalletRepository) GetForUpdate(ctx context.Context, userID string, t walletDomain.Type) (*walletDomain.Wallet, error) {
	var out walletDomain.Wallet
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND type = ?", userID, t).
		First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "wallet")
	}
	return &out, nil
}

// GetOrCreateForUpdate inserts the wallet when missing (losing a race is fine)
// and then takes the row lock.
func (r *WalletRepository) GetOrCreateForUpdate(ctx context.Context, userID string, t walletDomain.Type) (*walletDomain.Wallet, error) {
	w := &walletDomain.Wallet{
		WalletID: id.NewID32(),
		UserID:   userID,
		Type:     t,
		Balance:  decimal.Zero,
		Status:   walletDomain.StatusActive,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(w).Error; err != nil {
		return nil, translate(err, "wallet")
	}
	return r.GetForUpdate(ctx, userID, t)
}

func (r *WalletRepository) Save(ctx context.Context, w *walletDomain.Wallet) error {
	return translate(r.db.WithContext(ctx).Save(w).Error, "wallet")
}

type TransactionRepository struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *walletDomain.Transaction) error {
	return translate(r.db.WithContext(ctx).Create(tx).Error, "transaction")
}

func (r *TransactionRepository) Save(ctx context.Context, tx *walletDomain.Transaction) error {
	return translate(r.db.WithContext(ctx).Save(tx).Error, "transaction")
}

func (r *TransactionRepository) GetByTxID(ctx context.Context, txID string) (*walletDomain.Transaction, error) {
	var out walletDomain.Transaction
	res := r.db.WithContext(ctx).Where("tx_id = ?", txID).First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "transaction")
	}
	return &out, nil
}

func (r *TransactionRepository) GetByTxIDForUpdate(ctx context.Context, txID string) (*walletDomain.Transaction, error) {
	var out walletDomain.Transaction
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tx_id = ?", txID).
		First(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "transaction")
	}
	return &out, nil
}

func (r *TransactionRepository) ListByWallet(ctx context.Context, walletID uint64, limit int) ([]walletDomain.Transaction, error) {
	var out []walletDomain.Transaction
	q := r.db.WithContext(ctx).Where("wallet_id = ?", walletID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err, "transaction")
	}
	return out, nil
}

func (r *TransactionRepository) ListByReference(ctx context.Context, reference string, t walletDomain.TxType) ([]walletDomain.Transaction, error) {
	var out []walletDomain.Transaction
	res := r.db.WithContext(ctx).
		Where("reference = ? AND type = ?", reference, t).
		Order("id ASC").
		Find(&out)
	if res.Error != nil {
		return nil, translate(res.Error, "transaction")
	}
	return out, nil
}

func (r *TransactionRepository) CountCompleted(ctx context.Context, userID string, t walletDomain.TxType) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&walletDomain.Transaction{}).
		Where("user_id = ? AND type = ? AND status = ?", userID, t, walletDomain.TxCompleted).
		Count(&n)
	return n, translate(res.Error, "transaction")
}

func (r *TransactionRepository) AverageCompleted(ctx context.Context, userID string, t walletDomain.TxType) (decimal.Decimal, error) {
	var avg decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&walletDomain.Transaction{}).
		Select("COALESCE(AVG(amount), 0)").
		Where("user_id = ? AND type = ? AND status = ?", userID, t, walletDomain.TxCompleted).
		Row().
		Scan(&avg)
	if err != nil {
		return decimal.Zero, translate(err, "transaction")
	}
	return avg, nil
}
