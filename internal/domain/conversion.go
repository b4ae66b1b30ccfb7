package domain

import (
	"github.com/davidbz/creditmeter/internal/money"
)

// CreditsPerUSD is the fixed currency-to-credit ratio: one credit is one cent.
// The rounding increment only changes the step between credit values.
const CreditsPerUSD = 100

// microsPerCenti is how many Micros one hundredth of a credit is worth.
const microsPerCenti = money.MicrosPerUSD / (CreditsPerUSD * 100)

// Convert quantizes a currency amount into credits under policy.
//
// The result is round-half-up at the increment boundary: a remainder of
// exactly half an increment rounds away from zero, for every increment.
// Negative amounts (refunds) round symmetrically. Only integer arithmetic is used.
func Convert(amount money.Micros, policy RoundingPolicy) (money.Centi, error) {
	if err := policy.Increment.Validate(); err != nil {
		return 0, err
	}

	step := int64(policy.Increment) * microsPerCenti
	steps := money.DivRound(int64(amount), step)
	return money.Centi(steps * int64(policy.Increment)), nil
}
