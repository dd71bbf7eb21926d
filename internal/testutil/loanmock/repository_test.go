package loanmock

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "cooploan-backend/internal/domain/loan"
)

func TestRepo_WritesDefaultToNoop(t *testing.T) {
	ctx := context.Background()
	l := &domain.Loan{LoanID: "LN-1"}

	m := &Repo{}
	if err := m.Create(ctx, l); err != nil {
		t.Fatalf("Create default: want nil, got %v", err)
	}
	if err := m.Save(ctx, l); err != nil {
		t.Fatalf("Save default: want nil, got %v", err)
	}

	wantErr := errors.New("boom")
	called := false
	m = &Repo{
		SaveFn: func(gotCtx context.Context, got *domain.Loan) error {
			called = true
			if gotCtx != ctx || got != l {
				t.Fatalf("Save args not forwarded")
			}
			return wantErr
		},
	}
	if err := m.Save(ctx, l); !errors.Is(err, wantErr) {
		t.Fatalf("Save: want %v, got %v", wantErr, err)
	}
	if !called {
		t.Fatalf("SaveFn not called")
	}
}

func TestRepo_ReadsDefaultToCanceled(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}

	reads := map[string]func() error{
		"GetByLoanID": func() error { _, err := m.GetByLoanID(ctx, "x"); return err },
		"GetByLoanIDForUpdate": func() error {
			_, err := m.GetByLoanIDForUpdate(ctx, "x")
			return err
		},
		"GetOpenLoanByBorrowerID": func() error {
			_, err := m.GetOpenLoanByBorrowerID(ctx, "x")
			return err
		},
		"ListByBorrowerID": func() error { _, err := m.ListByBorrowerID(ctx, "x"); return err },
		"ListOverdue": func() error {
			_, err := m.ListOverdue(ctx, time.Now(), domain.OpenStates)
			return err
		},
	}
	for name, read := range reads {
		if err := read(); err != context.Canceled {
			t.Fatalf("%s default: want context.Canceled, got %v", name, err)
		}
	}
}

func TestRepo_GetByLoanIDForUpdate(t *testing.T) {
	ctx := context.Background()
	want := &domain.Loan{LoanID: "LN-5"}

	m := &Repo{
		GetByLoanIDForUpdateFn: func(_ context.Context, loanID string) (*domain.Loan, error) {
			if loanID != "LN-5" {
				t.Fatalf("loanID mismatch: got %s", loanID)
			}
			return want, nil
		},
	}
	got, err := m.GetByLoanIDForUpdate(ctx, "LN-5")
	if err != nil || got != want {
		t.Fatalf("GetByLoanIDForUpdate: got %+v, %v", got, err)
	}
}
