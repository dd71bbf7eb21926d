package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/uow"
	"cooploan-backend/internal/domain/wallet"
	"cooploan-backend/pkg/id"
)

const maxAttempts = 3

type Usecase struct {
	wallets wallet.Repository
	txs     wallet.TransactionRepository
	uow     uow.UnitOfWork
	log     *zap.Logger
}

func NewUsecase(wallets wallet.Repository, txs wallet.TransactionRepository, tx uow.UnitOfWork, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{wallets: wallets, txs: txs, uow: tx, log: log.Named("ledger")}
}

func (u *Usecase) run(ctx context.Context, fn func(r uow.Repos) error) error {
	return uow.Retry(ctx, maxAttempts, func() error {
		return u.uow.WithinTx(ctx, fn)
	})
}

// GetBalance is zero for a wallet that was never credited.
func (u *Usecase) GetBalance(ctx context.Context, userID string, wt wallet.Type) (decimal.Decimal, error) {
	if err := checkType(wt); err != nil {
		return decimal.Zero, err
	}
	w, err := u.wallets.GetByOwner(ctx, userID, wt)
	if errors.Is(err, apperr.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, apperr.Wrap(err)
	}
	return w.Balance, nil
}

func (u *Usecase) Credit(ctx context.Context, userID string, wt wallet.Type, amount decimal.Decimal, meta Meta) (*wallet.Transaction, error) {
	var out *wallet.Transaction
	err := u.run(ctx, func(r uow.Repos) error {
		tx, err := CreditTx(ctx, r, userID, wt, amount, meta)
		out = tx
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	u.log.Info("credit posted",
		zap.String("tx_id", out.TxID), zap.String("user_id", userID),
		zap.String("wallet", string(wt)), zap.String("type", string(meta.Type)),
		zap.String("amount", amount.StringFixed(2)))
	return out, nil
}

func (u *Usecase) Debit(ctx context.Context, userID string, wt wallet.Type, amount decimal.Decimal, meta Meta) (*wallet.Transaction, error) {
	var out *wallet.Transaction
	err := u.run(ctx, func(r uow.Repos) error {
		tx, err := DebitTx(ctx, r, userID, wt, amount, meta)
		out = tx
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	u.log.Info("debit posted",
		zap.String("tx_id", out.TxID), zap.String("user_id", userID),
		zap.String("wallet", string(wt)), zap.String("type", string(meta.Type)),
		zap.String("status", string(out.Status)), zap.String("amount", amount.StringFixed(2)))
	return out, nil
}

// Transfer moves funds between two wallets of the same member atomically.
// Both legs carry the same reference.
func (u *Usecase) Transfer(ctx context.Context, userID string, from, to wallet.Type, amount decimal.Decimal, description string) (*TransferResult, error) {
	if from == to {
		return nil, apperr.Validation("cannot transfer to the same wallet")
	}
	if err := checkType(from); err != nil {
		return nil, err
	}
	if err := checkType(to); err != nil {
		return nil, err
	}
	ref := uuid.NewString()
	var out TransferResult
	err := u.run(ctx, func(r uow.Repos) error {
		// lock both wallets in a stable order so opposite transfers cannot deadlock
		first, second := from, to
		if second < first {
			first, second = second, first
		}
		for _, wt := range []wallet.Type{first, second} {
			if _, err := r.Wallets.GetOrCreateForUpdate(ctx, userID, wt); err != nil {
				return err
			}
		}
		d, err := DebitTx(ctx, r, userID, from, amount, Meta{Type: wallet.TxTransfer, Reference: ref, Description: description})
		if err != nil {
			return err
		}
		c, err := CreditTx(ctx, r, userID, to, amount, Meta{Type: wallet.TxTransfer, Reference: ref, Description: description})
		if err != nil {
			return err
		}
		out = TransferResult{Debit: d, Credit: c}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	u.log.Info("transfer posted", zap.String("reference", ref), zap.String("user_id", userID),
		zap.String("from", string(from)), zap.String("to", string(to)), zap.String("amount", amount.StringFixed(2)))
	return &out, nil
}

// SettleWithdrawal completes a pending withdrawal, or fails it and refunds the
// held amount to the same wallet.
func (u *Usecase) SettleWithdrawal(ctx context.Context, txID string, succeeded bool) (*wallet.Transaction, error) {
	head, err := u.txs.GetByTxID(ctx, txID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	if head.Type != wallet.TxWithdrawal || head.Direction != wallet.Debit {
		return nil, apperr.Validation("only withdrawals can be settled")
	}

	var out *wallet.Transaction
	err = u.run(ctx, func(r uow.Repos) error {
		w, err := r.Wallets.GetForUpdate(ctx, head.UserID, head.WalletType)
		if err != nil {
			return err
		}
		tx, err := r.Transactions.GetByTxIDForUpdate(ctx, txID)
		if err != nil {
			return err
		}
		next := wallet.TxCompleted
		if !succeeded {
			next = wallet.TxFailed
		}
		if !tx.Status.CanMoveTo(next) {
			return &apperr.Error{Kind: apperr.KindPrecondition, Code: apperr.ErrInvalidTransition.Code,
				Message: "withdrawal is already " + string(tx.Status)}
		}
		tx.Status = next
		if err := r.Transactions.Save(ctx, tx); err != nil {
			return err
		}
		if !succeeded {
			refund := &wallet.Transaction{
				TxID:        id.NewID32(),
				WalletID:    w.ID,
				UserID:      tx.UserID,
				WalletType:  tx.WalletType,
				Type:        wallet.TxRefund,
				Direction:   wallet.Credit,
				Amount:      tx.Amount,
				Status:      wallet.TxCompleted,
				Reference:   tx.TxID,
				Description: "withdrawal reversal",
			}
			if err := r.Transactions.Create(ctx, refund); err != nil {
				return err
			}
			w.Balance = w.Balance.Add(tx.Amount)
			if err := r.Wallets.Save(ctx, w); err != nil {
				return err
			}
		}
		out = tx
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	u.log.Info("withdrawal settled", zap.String("tx_id", txID), zap.String("status", string(out.Status)))
	return out, nil
}

// History lists the newest entries first. An absent wallet has no history.
func (u *Usecase) History(ctx context.Context, userID string, wt wallet.Type, limit int) ([]wallet.Transaction, error) {
	if err := checkType(wt); err != nil {
		return nil, err
	}
	w, err := u.wallets.GetByOwner(ctx, userID, wt)
	if errors.Is(err, apperr.ErrNotFound) {
		return []wallet.Transaction{}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	out, err := u.txs.ListByWallet(ctx, w.ID, limit)
	return out, apperr.Wrap(err)
}

// Reconcile replays the wallet's log and compares it to the stored balance.
func (u *Usecase) Reconcile(ctx context.Context, userID string, wt wallet.Type) (*Reconciliation, error) {
	if err := checkType(wt); err != nil {
		return nil, err
	}
	rec := &Reconciliation{UserID: userID, WalletType: wt, Balance: decimal.Zero, Computed: decimal.Zero, Drift: decimal.Zero}
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		w, err := r.Wallets.GetForUpdate(ctx, userID, wt)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		entries, err := r.Transactions.ListByWallet(ctx, w.ID, 0)
		if err != nil {
			return err
		}
		for i := range entries {
			rec.Computed = rec.Computed.Add(entries[i].Delta())
		}
		rec.Entries = len(entries)
		rec.Balance = w.Balance
		rec.Drift = w.Balance.Sub(rec.Computed)
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	if !rec.Consistent() {
		u.log.Warn("ledger drift detected", zap.String("user_id", userID), zap.String("wallet", string(wt)),
			zap.String("balance", rec.Balance.String()), zap.String("computed", rec.Computed.String()))
	}
	return rec, nil
}
