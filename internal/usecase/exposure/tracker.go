// Package exposure derives how much a member may still guarantee.
package exposure

import (
	"context"

	"github.com/shopspring/decimal"

	"cooploan-backend/internal/domain/apperr"
	"cooploan-backend/internal/domain/loan"
	"cooploan-backend/internal/domain/member"
	"cooploan-backend/internal/domain/uow"
	"cooploan-backend/internal/domain/wallet"
)

// Policy holds the derived-limit parameters used when a member has no
// explicit guarantor limit.
type Policy struct {
	Floor      decimal.Decimal
	Multiplier decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{Floor: decimal.NewFromInt(500_000), Multiplier: decimal.NewFromInt(3)}
}

type Snapshot struct {
	MemberID  string          `json:"member_id"`
	Limit     decimal.Decimal `json:"limit"`
	Used      decimal.Decimal `json:"used"`
	Available decimal.Decimal `json:"available"`
}

type Tracker struct{ policy Policy }

func NewTracker(p Policy) *Tracker { return &Tracker{policy: p} }

// Limit is the member's stored limit, or max(floor, multiplier x average
// completed contribution) when none is set.
func (t *Tracker) Limit(ctx context.Context, r uow.Repos, m *member.Member) (decimal.Decimal, error) {
	if m.GuarantorLimit.IsPositive() {
		return m.GuarantorLimit, nil
	}
	avg, err := r.Transactions.AverageCompleted(ctx, m.MemberID, wallet.TxContribution)
	if err != nil {
		return decimal.Zero, err
	}
	derived := avg.Mul(t.policy.Multiplier).Round(2)
	return decimal.Max(t.policy.Floor, derived), nil
}

// Used sums loan amounts the member currently backs.
func (t *Tracker) Used(ctx context.Context, r uow.Repos, memberID string) (decimal.Decimal, error) {
	return r.Guarantors.SumExposure(ctx, memberID, loan.OpenStates)
}

func (t *Tracker) Snapshot(ctx context.Context, r uow.Repos, m *member.Member) (Snapshot, error) {
	limit, err := t.Limit(ctx, r, m)
	if err != nil {
		return Snapshot{}, err
	}
	used, err := t.Used(ctx, r, m.MemberID)
	if err != nil {
		return Snapshot{}, err
	}
	avail := limit.Sub(used)
	if avail.IsNegative() {
		avail = decimal.Zero
	}
	return Snapshot{MemberID: m.MemberID, Limit: limit, Used: used, Available: avail}, nil
}

// CanGuarantee reports whether used + amount stays within the limit. Callers
// hold the member row lock so the answer stays true until they commit.
func (t *Tracker) CanGuarantee(ctx context.Context, r uow.Repos, m *member.Member, amount decimal.Decimal) (bool, Snapshot, error) {
	s, err := t.Snapshot(ctx, r, m)
	if err != nil {
		return false, s, err
	}
	return s.Used.Add(amount).LessThanOrEqual(s.Limit), s, nil
}

// Usecase serves exposure reads outside a lifecycle transaction.
type Usecase struct {
	tracker *Tracker
	uow     uow.UnitOfWork
}

func NewUsecase(t *Tracker, tx uow.UnitOfWork) *Usecase { return &Usecase{tracker: t, uow: tx} }

func (u *Usecase) Snapshot(ctx context.Context, memberID string) (*Snapshot, error) {
	var out Snapshot
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		m, err := r.Members.GetByMemberID(ctx, memberID)
		if err != nil {
			return err
		}
		out, err = u.tracker.Snapshot(ctx, r, m)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	return &out, nil
}
