package microloan

import (
	"math/big"
	"testing"

	"microlend/native/credit"
)

func TestInterestRateBpsBoundaries(t *testing.T) {
	cases := []struct {
		score uint64
		want  uint64
	}{
		{score: credit.MinScore, want: 750},
		{score: 70, want: 650},
		{score: 80, want: 600},
		{score: credit.MaxScore, want: 500},
	}
	for _, tc := range cases {
		if got := InterestRateBps(tc.score); got != tc.want {
			t.Fatalf("rate at score %d: got %d bps, want %d", tc.score, got, tc.want)
		}
	}
}

func TestInterestRateBpsClampsOutOfRange(t *testing.T) {
	if got := InterestRateBps(0); got != InterestRateBps(credit.MinScore) {
		t.Fatalf("score below floor not clamped: got %d", got)
	}
	if got := InterestRateBps(200); got != InterestRateBps(credit.MaxScore) {
		t.Fatalf("score above cap not clamped: got %d", got)
	}
}

func TestRateDecreasesWithScore(t *testing.T) {
	prev := InterestRateBps(credit.MinScore)
	for score := credit.MinScore + 1; score <= credit.MaxScore; score++ {
		got := InterestRateBps(score)
		if got >= prev {
			t.Fatalf("rate did not decrease from score %d to %d: %d -> %d", score-1, score, prev, got)
		}
		prev = got
	}
}

func TestCollateralRatioBpsBoundaries(t *testing.T) {
	cases := []struct {
		score uint64
		want  uint64
	}{
		{score: credit.MinScore, want: 7_500},
		{score: 70, want: 6_500},
		{score: 80, want: 6_000},
		{score: credit.MaxScore, want: 5_000},
	}
	for _, tc := range cases {
		if got := CollateralRatioBps(tc.score); got != tc.want {
			t.Fatalf("ratio at score %d: got %d bps, want %d", tc.score, got, tc.want)
		}
	}
}

func TestCollateralDecreasesWithScore(t *testing.T) {
	prev := CollateralRatioBps(credit.MinScore)
	for score := credit.MinScore + 1; score <= credit.MaxScore; score++ {
		got := CollateralRatioBps(score)
		if got >= prev {
			t.Fatalf("ratio did not decrease from score %d to %d: %d -> %d", score-1, score, prev, got)
		}
		prev = got
	}
}

func TestRequiredCollateral(t *testing.T) {
	amount := big.NewInt(1_000_000)
	if got := RequiredCollateral(amount, 80); got.Cmp(big.NewInt(600_000)) != 0 {
		t.Fatalf("collateral at score 80: got %s, want 600000", got)
	}
	if got := RequiredCollateral(amount, credit.MaxScore); got.Cmp(big.NewInt(500_000)) != 0 {
		t.Fatalf("collateral at max score: got %s, want 500000", got)
	}
	// Truncation toward zero: 999 * 6500 / 10000 = 649.35.
	if got := RequiredCollateral(big.NewInt(999), 70); got.Cmp(big.NewInt(649)) != 0 {
		t.Fatalf("truncated collateral: got %s, want 649", got)
	}
	if got := RequiredCollateral(nil, 80); got.Sign() != 0 {
		t.Fatalf("nil amount: got %s, want 0", got)
	}
	if got := RequiredCollateral(big.NewInt(-5), 80); got.Sign() != 0 {
		t.Fatalf("negative amount: got %s, want 0", got)
	}
}

func TestRequiredRepayment(t *testing.T) {
	amount := big.NewInt(1_000_000)
	if got := RequiredRepayment(amount, 600); got.Cmp(big.NewInt(1_060_000)) != 0 {
		t.Fatalf("repayment at 600 bps: got %s, want 1060000", got)
	}
	if got := RequiredRepayment(amount, 500); got.Cmp(big.NewInt(1_050_000)) != 0 {
		t.Fatalf("repayment at 500 bps: got %s, want 1050000", got)
	}
	// Interest truncates: 999 * 650 / 10000 = 64.935 -> 64.
	if got := RequiredRepayment(big.NewInt(999), 650); got.Cmp(big.NewInt(1_063)) != 0 {
		t.Fatalf("truncated repayment: got %s, want 1063", got)
	}
	if got := RequiredRepayment(nil, 600); got.Sign() != 0 {
		t.Fatalf("nil amount: got %s, want 0", got)
	}
}

func TestFlatInterestNeverCompounds(t *testing.T) {
	amount := big.NewInt(2_000_000)
	once := FlatInterest(amount, 600)
	if once.Cmp(big.NewInt(120_000)) != 0 {
		t.Fatalf("flat interest: got %s, want 120000", once)
	}
	// The repayment for the same terms is exactly principal plus the one-time
	// charge, independent of how long the loan runs.
	total := RequiredRepayment(amount, 600)
	want := new(big.Int).Add(amount, once)
	if total.Cmp(want) != 0 {
		t.Fatalf("repayment compounds: got %s, want %s", total, want)
	}
}
