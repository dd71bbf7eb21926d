package loan

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Policy is the lending configuration the engine enforces.
type Policy struct {
	MinAmount          decimal.Decimal
	Rates              map[int]decimal.Decimal // tenor in months -> annual rate, percent
	ProcessingFeeRate  decimal.Decimal
	GuarantorsRequired int
	MinContributions   int64
	// ApplicationsFlag gates Apply when set; RolloverFlag always gates RequestRollover.
	ApplicationsFlag string
	RolloverFlag     string
	DefaultGrace     time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MinAmount: decimal.NewFromInt(50_000),
		Rates: map[int]decimal.Decimal{
			3:  decimal.NewFromInt(8),
			6:  decimal.NewFromInt(10),
			9:  decimal.NewFromInt(12),
			12: decimal.NewFromInt(15),
		},
		ProcessingFeeRate:  decimal.RequireFromString("0.02"),
		GuarantorsRequired: 3,
		MinContributions:   3,
		RolloverFlag:       "rollover_requests",
		DefaultGrace:       30 * 24 * time.Hour,
	}
}

func (p Policy) Tenors() []int {
	out := make([]int, 0, len(p.Rates))
	for t := range p.Rates {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// Quote is the priced offer for an amount and tenor.
type Quote struct {
	InterestRate     decimal.Decimal `json:"interest_rate"`
	ProcessingFee    decimal.Decimal `json:"processing_fee"`
	MonthlyRepayment decimal.Decimal `json:"monthly_repayment"`
	TotalRepayment   decimal.Decimal `json:"total_repayment"`
}

func (p Policy) Quote(amount decimal.Decimal, tenor int) (Quote, bool) {
	rate, ok := p.Rates[tenor]
	if !ok {
		return Quote{}, false
	}
	monthly, total := Amortize(amount, rate, tenor)
	return Quote{
		InterestRate:     rate,
		ProcessingFee:    amount.Mul(p.ProcessingFeeRate).Round(2),
		MonthlyRepayment: monthly,
		TotalRepayment:   total,
	}, true
}

// Amortize returns the fixed monthly instalment P*r(1+r)^n/((1+r)^n-1) for an
// annual percentage rate, rounded to kobo, and the instalment times n.
// A zero rate splits the principal evenly.
func Amortize(principal, annualRate decimal.Decimal, months int) (monthly, total decimal.Decimal) {
	n := decimal.NewFromInt(int64(months))
	if months <= 0 {
		return decimal.Zero, decimal.Zero
	}
	if !annualRate.IsPositive() {
		monthly = principal.DivRound(n, 2)
		return monthly, monthly.Mul(n)
	}
	one := decimal.NewFromInt(1)
	r := annualRate.DivRound(decimal.NewFromInt(1200), 20)
	growth := one
	for i := 0; i < months; i++ {
		growth = growth.Mul(one.Add(r))
	}
	monthly = principal.Mul(r).Mul(growth).DivRound(growth.Sub(one), 2)
	return monthly, monthly.Mul(n)
}
