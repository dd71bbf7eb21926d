package id

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewID32_Shape(t *testing.T) {
	got := NewID32()
	if !Valid(got) {
		t.Fatalf("not 32-char lowercase hex: %q", got)
	}
	b, err := hex.DecodeString(got)
	if err != nil {
		t.Fatalf("hex.DecodeString error: %v", err)
	}
	u, err := uuid.FromBytes(b)
	if err != nil || u.Version() != 4 {
		t.Fatalf("want a v4 uuid, got %v (err=%v)", u, err)
	}
}

func TestNewID32_Uniqueness(t *testing.T) {
	const n = 500
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := NewID32()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id after %d iterations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestValid(t *testing.T) {
	cases := map[string]bool{
		strings.Repeat("a", 32):                true,
		"0123456789abcdef0123456789abcdef":     true,
		"0123456789ABCDEF0123456789ABCDEF":     false,
		"0123456789abcdef0123456789abcde":      false,
		"0123456789abcdef0123456789abcdef0":    false,
		"0123456789abcdeg0123456789abcdef":     false,
		"01234567-89ab-cdef-0123-456789abcdef": false,
		"":                                     false,
	}
	for s, want := range cases {
		if got := Valid(s); got != want {
			t.Fatalf("Valid(%q) = %v, want %v", s, got, want)
		}
	}
}
