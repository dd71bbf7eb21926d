package mysql

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	mysqlerr "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"cooploan-backend/internal/domain/apperr"
	featureDomain "cooploan-backend/internal/domain/feature"
	guarantorDomain "cooploan-backend/internal/domain/guarantor"
	loanDomain "cooploan-backend/internal/domain/loan"
	memberDomain "cooploan-backend/internal/domain/member"
	walletDomain "cooploan-backend/internal/domain/wallet"
	"cooploan-backend/internal/testutil/sqlitedb"
	"cooploan-backend/pkg/id"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want *apperr.Error
	}{
		{"not found", gorm.ErrRecordNotFound, apperr.ErrNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, apperr.ErrConflict},
		{"deadlock", &mysqlerr.MySQLError{Number: 1213, Message: "Deadlock found"}, apperr.ErrConflict},
		{"lock wait", fmt.Errorf("exec: %w", &mysqlerr.MySQLError{Number: 1205}), apperr.ErrConflict},
		{"syntax", &mysqlerr.MySQLError{Number: 1064}, apperr.ErrStorage},
		{"other", errors.New("connection refused"), apperr.ErrStorage},
		{"already typed", apperr.ErrInsufficientFunds, apperr.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translate(tt.in, "thing"); !errors.Is(got, tt.want) {
				t.Fatalf("translate(%v) = %v, want %s", tt.in, got, tt.want.Code)
			}
		})
	}
	if translate(nil, "x") != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestMemberRepository(t *testing.T) {
	repo := NewMemberRepository(sqlitedb.Open(t))
	ctx := context.Background()

	m := &memberDomain.Member{MemberID: id.NewID32(), Name: "Ada", KYCStatus: memberDomain.KYCVerified}
	if err := repo.Create(ctx, m); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.AddContribution(ctx, m.MemberID, decimal.NewFromInt(20_000)); err != nil {
		t.Fatalf("AddContribution: %v", err)
	}
	if err := repo.AddContribution(ctx, m.MemberID, decimal.RequireFromString("5000.50")); err != nil {
		t.Fatalf("AddContribution: %v", err)
	}

	got, err := repo.GetByMemberIDForUpdate(ctx, m.MemberID)
	if err != nil {
		t.Fatalf("GetByMemberIDForUpdate: %v", err)
	}
	if !got.ContributionTotal.Equal(decimal.RequireFromString("25000.50")) {
		t.Fatalf("contribution_total = %s", got.ContributionTotal)
	}
	if !got.Verified() {
		t.Fatalf("kyc status lost")
	}

	if err := repo.AddContribution(ctx, "nobody", decimal.NewFromInt(1)); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("contribution for unknown member, got %v", err)
	}
}

func TestWalletRepository_GetOrCreateIsIdempotent(t *testing.T) {
	repo := NewWalletRepository(sqlitedb.Open(t))
	ctx := context.Background()

	first, err := repo.GetOrCreateForUpdate(ctx, "U1", walletDomain.TypeSavings)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	first.Balance = decimal.NewFromInt(700)
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second, err := repo.GetOrCreateForUpdate(ctx, "U1", walletDomain.TypeSavings)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.ID != first.ID || !second.Balance.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("second call must return the same wallet, got %+v", second)
	}

	other, err := repo.GetOrCreateForUpdate(ctx, "U1", walletDomain.TypeContribution)
	if err != nil || other.ID == first.ID {
		t.Fatalf("wallet types are distinct: %+v %v", other, err)
	}
}

func TestTransactionRepository_Aggregates(t *testing.T) {
	db := sqlitedb.Open(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	add := func(amount string, status walletDomain.TxStatus, ref string) {
		t.Helper()
		err := repo.Create(ctx, &walletDomain.Transaction{
			TxID: id.NewID32(), WalletID: 1, UserID: "U1", WalletType: walletDomain.TypeContribution,
			Type: walletDomain.TxContribution, Direction: walletDomain.Credit,
			Amount: decimal.RequireFromString(amount), Status: status, Reference: ref,
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	add("10000", walletDomain.TxCompleted, "r1")
	add("20000", walletDomain.TxCompleted, "r1")
	add("30000", walletDomain.TxCompleted, "r2")
	add("90000", walletDomain.TxFailed, "r2")

	n, err := repo.CountCompleted(ctx, "U1", walletDomain.TxContribution)
	if err != nil || n != 3 {
		t.Fatalf("CountCompleted = %d, %v", n, err)
	}
	avg, err := repo.AverageCompleted(ctx, "U1", walletDomain.TxContribution)
	if err != nil || !avg.Equal(decimal.NewFromInt(20000)) {
		t.Fatalf("AverageCompleted = %s, %v", avg, err)
	}
	none, err := repo.AverageCompleted(ctx, "nobody", walletDomain.TxContribution)
	if err != nil || !none.IsZero() {
		t.Fatalf("empty average = %s, %v", none, err)
	}

	byRef, err := repo.ListByReference(ctx, "r1", walletDomain.TxContribution)
	if err != nil || len(byRef) != 2 {
		t.Fatalf("ListByReference = %d, %v", len(byRef), err)
	}
	hist, err := repo.ListByWallet(ctx, 1, 2)
	if err != nil || len(hist) != 2 || hist[0].Status != walletDomain.TxFailed {
		t.Fatalf("ListByWallet should be newest first and limited: %+v %v", hist, err)
	}
}

func TestGuarantorRepository(t *testing.T) {
	db := sqlitedb.Open(t)
	ctx := context.Background()
	loans := NewLoanRepository(db)
	repo := NewGuarantorRepository(db)

	open := makeLoan(id.NewID32(), "B1", loanDomain.StatePending)
	closed := makeLoan(id.NewID32(), "B2", loanDomain.StateCompleted)
	closed.Amount = decimal.NewFromInt(900_000)
	for _, l := range []*loanDomain.Loan{open, closed} {
		if err := loans.Create(ctx, l); err != nil {
			t.Fatal(err)
		}
	}

	now := time.Now().UTC()
	confirm := func(loanPK uint64, g string, pos int) error {
		return repo.Create(ctx, &guarantorDomain.Confirmation{
			LoanID: loanPK, GuarantorID: g, Position: pos,
			Status: guarantorDomain.StatusConfirmed, ConfirmedAt: &now,
		})
	}
	if err := confirm(open.ID, "G1", 1); err != nil {
		t.Fatal(err)
	}
	if err := confirm(open.ID, "G2", 2); err != nil {
		t.Fatal(err)
	}
	if err := confirm(closed.ID, "G1", 1); err != nil {
		t.Fatal(err)
	}

	if err := confirm(open.ID, "G1", 3); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate guarantor must be rejected by the unique index, got %v", err)
	}
	if err := confirm(open.ID, "G3", 2); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate position must be rejected by the unique index, got %v", err)
	}

	maxPos, err := repo.MaxPosition(ctx, open.ID)
	if err != nil || maxPos != 2 {
		t.Fatalf("MaxPosition = %d, %v", maxPos, err)
	}
	if empty, _ := repo.MaxPosition(ctx, 999); empty != 0 {
		t.Fatalf("MaxPosition on empty loan = %d", empty)
	}

	used, err := repo.SumExposure(ctx, "G1", loanDomain.OpenStates)
	if err != nil || !used.Equal(decimal.NewFromInt(500_000)) {
		t.Fatalf("SumExposure = %s, %v (completed loans must not count)", used, err)
	}

	n, err := repo.UpdateStatusByLoan(ctx, open.ID, guarantorDomain.StatusConfirmed, guarantorDomain.StatusReleased)
	if err != nil || n != 2 {
		t.Fatalf("UpdateStatusByLoan = %d, %v", n, err)
	}
	if c, _ := repo.CountByStatus(ctx, open.ID, guarantorDomain.StatusConfirmed); c != 0 {
		t.Fatalf("confirmed after release = %d", c)
	}
	if used, _ := repo.SumExposure(ctx, "G1", loanDomain.OpenStates); !used.IsZero() {
		t.Fatalf("released confirmations must not count, got %s", used)
	}

	list, err := repo.ListByLoan(ctx, open.ID)
	if err != nil || len(list) != 2 || list[0].Position != 1 {
		t.Fatalf("ListByLoan = %+v, %v", list, err)
	}
}

func TestFeatureRepository_Upsert(t *testing.T) {
	repo := NewFeatureRepository(sqlitedb.Open(t))
	ctx := context.Background()

	f := &featureDomain.Flag{
		Name: "rollover_requests", Enabled: true, RolloutPercentage: 50,
		Status: featureDomain.StatusActive, TargetRegions: []string{"lagos"},
	}
	if err := repo.Upsert(ctx, f); err != nil {
		t.Fatalf("Upsert insert: %v", err)
	}

	update := &featureDomain.Flag{
		Name: "rollover_requests", Enabled: false, RolloutPercentage: 100,
		Status: featureDomain.StatusDeprecated, Config: map[string]string{"max_days": "30"},
	}
	if err := repo.Upsert(ctx, update); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}

	got, err := repo.GetByName(ctx, "rollover_requests")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if got.Enabled || got.RolloutPercentage != 100 || got.Status != featureDomain.StatusDeprecated {
		t.Fatalf("flag not overwritten: %+v", got)
	}
	if got.Config["max_days"] != "30" || len(got.TargetRegions) != 0 {
		t.Fatalf("json columns not overwritten: %+v", got)
	}

	all, err := repo.List(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("List = %d, %v", len(all), err)
	}
	if _, err := repo.GetByName(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
