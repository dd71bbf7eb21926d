package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/uow"
	"cooploan-backend/internal/domain/wallet"
	"cooploan-backend/pkg/id"
)

func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return apperr.ErrInvalidAmount
	}
	return nil
}

func checkType(t wallet.Type) error {
	if !wallet.ValidType(t) {
		return apperr.Validation("unknown wallet type " + string(t))
	}
	return nil
}

// CreditTx posts a completed credit inside the caller's transaction, creating
// the wallet on first use.
func CreditTx(ctx context.Context, r uow.Repos, userID string, wt wallet.Type, amount decimal.Decimal, meta Meta) (*wallet.Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if err := checkType(wt); err != nil {
		return nil, err
	}
	// member row before wallet row, the order every other path takes
	if meta.Type == wallet.TxContribution {
		if err := r.Members.AddContribution(ctx, userID, amount); err != nil {
			return nil, err
		}
	}
	w, err := r.Wallets.GetOrCreateForUpdate(ctx, userID, wt)
	if err != nil {
		return nil, err
	}
	if w.Status != wallet.StatusActive {
		return nil, apperr.ErrWalletInactive
	}

	tx := &wallet.Transaction{
		TxID:        id.NewID32(),
		WalletID:    w.ID,
		UserID:      userID,
		WalletType:  wt,
		Type:        meta.Type,
		Direction:   wallet.Credit,
		Amount:      amount,
		Status:      wallet.TxCompleted,
		Reference:   meta.Reference,
		Description: meta.Description,
	}
	if err := r.Transactions.Create(ctx, tx); err != nil {
		return nil, err
	}
	w.Balance = w.Balance.Add(amount)
	if err := r.Wallets.Save(ctx, w); err != nil {
		return nil, err
	}
	return tx, nil
}

// DebitTx posts a debit inside the caller's transaction. Bank withdrawals stay
// pending until settled; everything else completes immediately.
func DebitTx(ctx context.Context, r uow.Repos, userID string, wt wallet.Type, amount decimal.Decimal, meta Meta) (*wallet.Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if err := checkType(wt); err != nil {
		return nil, err
	}
	w, err := r.Wallets.GetForUpdate(ctx, userID, wt)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}
	if w.Status != wallet.StatusActive {
		return nil, apperr.ErrWalletInactive
	}
	if w.Balance.LessThan(amount) {
		return nil, apperr.ErrInsufficientFunds
	}

	status := wallet.TxCompleted
	if meta.Type == wallet.TxWithdrawal {
		status = wallet.TxPending
	}
	tx := &wallet.Transaction{
		TxID:        id.NewID32(),
		WalletID:    w.ID,
		UserID:      userID,
		WalletType:  wt,
		Type:        meta.Type,
		Direction:   wallet.Debit,
		Amount:      amount,
		Status:      status,
		Reference:   meta.Reference,
		Description: meta.Description,
	}
	if err := r.Transactions.Create(ctx, tx); err != nil {
		return nil, err
	}
	w.Balance = w.Balance.Sub(amount)
	if err := r.Wallets.Save(ctx, w); err != nil {
		return nil, err
	}
	return tx, nil
}
