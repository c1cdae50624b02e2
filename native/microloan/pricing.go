package microloan

import (
	"math/big"

	"microlend/native/credit"
)

var basisPoints = big.NewInt(10_000)

const (
	// baseRateBps is the borrow rate charged at a (hypothetical) zero score.
	baseRateBps uint64 = 1_000
	// ratePerScoreBps is the rate reduction earned per credit score point.
	ratePerScoreBps uint64 = 5
	// collateralPerScoreBps is the collateral ratio reduction earned per
	// credit score point.
	collateralPerScoreBps uint64 = 50
)

// InterestRateBps maps a credit score to the flat borrow rate in basis
// points. The rate decreases linearly with the score: 7.5% at the score
// floor, 5% at the cap. Scores outside the valid range are clamped so the
// function stays total.
func InterestRateBps(score uint64) uint64 {
	score = clampScore(score)
	return baseRateBps - score*ratePerScoreBps
}

// CollateralRatioBps maps a credit score to the required collateral ratio in
// basis points of the principal: 75% at the score floor, 50% at the cap.
func CollateralRatioBps(score uint64) uint64 {
	score = clampScore(score)
	return 10_000 - score*collateralPerScoreBps
}

// RequiredCollateral computes the minimum collateral for a loan of the given
// principal at the given score. The result truncates toward zero.
func RequiredCollateral(amount *big.Int, score uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	ratio := new(big.Int).SetUint64(CollateralRatioBps(score))
	required := new(big.Int).Mul(amount, ratio)
	return required.Quo(required, basisPoints)
}

// FlatInterest computes the one-time interest charge over the principal at
// the given rate. Interest is flat, never compounded.
func FlatInterest(amount *big.Int, rateBps uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	interest := new(big.Int).Mul(amount, new(big.Int).SetUint64(rateBps))
	return interest.Quo(interest, basisPoints)
}

// RequiredRepayment computes the settlement amount for a loan: principal plus
// flat interest at the rate fixed at origination.
func RequiredRepayment(amount *big.Int, rateBps uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Add(amount, FlatInterest(amount, rateBps))
}

func clampScore(score uint64) uint64 {
	if score < credit.MinScore {
		return credit.MinScore
	}
	if score > credit.MaxScore {
		return credit.MaxScore
	}
	return score
}
