package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIs_MatchesByCode(t *testing.T) {
	detailed := &Error{Kind: KindPrecondition, Code: ErrExistingLoan.Code, Message: "loan abc is still pending"}
	if !errors.Is(detailed, ErrExistingLoan) {
		t.Fatalf("detailed error should match sentinel")
	}
	if errors.Is(detailed, ErrKycRequired) {
		t.Fatalf("different code must not match")
	}

	wrapped := fmt.Errorf("apply: %w", ErrInsufficientFunds)
	if !errors.Is(wrapped, ErrInsufficientFunds) {
		t.Fatalf("wrapped sentinel should match")
	}
}

func TestStorage_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Storage(cause)
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("want storage code")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost")
	}
	if KindOf(err) != KindStorage {
		t.Fatalf("kind=%s", KindOf(err))
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	if got := Wrap(ErrNotFound); got != ErrNotFound {
		t.Fatalf("typed errors pass through untouched")
	}
	if KindOf(Wrap(errors.New("boom"))) != KindStorage {
		t.Fatalf("foreign errors become storage errors")
	}
	if KindOf(Validation("bad tenor")) != KindValidation {
		t.Fatalf("validation kind")
	}
}
