package loan

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmortize(t *testing.T) {
	tests := []struct {
		principal string
		rate      string
		months    int
		monthly   string
		total     string
	}{
		{"600000", "10", 6, "102936.84", "617621.04"},
		{"500000", "10", 6, "85780.70", "514684.20"},
		{"100000", "8", 3, "33778.76", "101336.28"},
		{"1200000", "15", 12, "108309.97", "1299719.64"},
		{"90000", "0", 3, "30000", "90000"},
	}
	for _, tt := range tests {
		monthly, total := Amortize(decimal.RequireFromString(tt.principal), decimal.RequireFromString(tt.rate), tt.months)
		if !monthly.Equal(decimal.RequireFromString(tt.monthly)) {
			t.Errorf("%s@%s%%/%d: monthly = %s, want %s", tt.principal, tt.rate, tt.months, monthly, tt.monthly)
		}
		if !total.Equal(decimal.RequireFromString(tt.total)) {
			t.Errorf("%s@%s%%/%d: total = %s, want %s", tt.principal, tt.rate, tt.months, total, tt.total)
		}
	}
}

func TestAmortize_WithinThreeNaira(t *testing.T) {
	monthly, _ := Amortize(decimal.NewFromInt(600_000), decimal.NewFromInt(10), 6)
	if monthly.Sub(decimal.RequireFromString("102936.84")).Abs().GreaterThan(decimal.NewFromInt(3)) {
		t.Fatalf("monthly = %s", monthly)
	}
}

func TestPolicy_Quote(t *testing.T) {
	p := DefaultPolicy()

	q, ok := p.Quote(decimal.NewFromInt(500_000), 6)
	if !ok {
		t.Fatalf("6 months is an offered tenor")
	}
	if !q.InterestRate.Equal(decimal.NewFromInt(10)) || !q.ProcessingFee.Equal(decimal.NewFromInt(10_000)) {
		t.Fatalf("quote = %+v", q)
	}
	if _, ok := p.Quote(decimal.NewFromInt(500_000), 5); ok {
		t.Fatalf("5 months is not offered")
	}
	if got := p.Tenors(); len(got) != 4 || got[0] != 3 || got[3] != 12 {
		t.Fatalf("tenors = %v", got)
	}
}
