package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/money"
)

func policyWith(inc domain.Increment) domain.RoundingPolicy {
	return domain.RoundingPolicy{Increment: inc}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		amount   money.Micros
		inc      domain.Increment
		expected money.Centi
	}{
		{"should convert $0.007 to 0.7 credits at 0.1", money.MustMicros("0.007"), domain.IncrementTenth, 70},
		{"should convert $0.056 to 5.6 credits at 0.1", money.MustMicros("0.056"), domain.IncrementTenth, 560},
		{"should convert $0.056 to 6 credits at 1.0", money.MustMicros("0.056"), domain.IncrementWhole, 600},
		{"should convert $0.056 to 5.6 credits at 0.01", money.MustMicros("0.056"), domain.IncrementHundredth, 560},
		{"should convert zero to zero", 0, domain.IncrementWhole, 0},
		{"should round small cost down to zero", money.MustMicros("0.000049"), domain.IncrementHundredth, 0},
		{"should convert negative amounts symmetrically", money.MustMicros("-66.67"), domain.IncrementWhole, -666700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credits, err := domain.Convert(tt.amount, policyWith(tt.inc))
			require.NoError(t, err)
			require.Equal(t, tt.expected, credits)
		})
	}
}

func TestConvert_TieRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name     string
		amount   money.Micros
		inc      domain.Increment
		expected money.Centi
	}{
		{"should round half a hundredth up", money.MustMicros("0.00005"), domain.IncrementHundredth, 1},
		{"should round just below half a hundredth down", money.MustMicros("0.000049"), domain.IncrementHundredth, 0},
		{"should round half a tenth up", money.MustMicros("0.0005"), domain.IncrementTenth, 10},
		{"should round just below half a tenth down", money.MustMicros("0.000499"), domain.IncrementTenth, 0},
		{"should round half a credit up", money.MustMicros("0.005"), domain.IncrementWhole, 100},
		{"should round just below half a credit down", money.MustMicros("0.004999"), domain.IncrementWhole, 0},
		{"should round 2.5 credits to 3", money.MustMicros("0.025"), domain.IncrementWhole, 300},
		{"should round negative half away from zero", money.MustMicros("-0.005"), domain.IncrementWhole, -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			credits, err := domain.Convert(tt.amount, policyWith(tt.inc))
			require.NoError(t, err)
			require.Equal(t, tt.expected, credits)
		})
	}
}

func TestConvert_ResultIsMultipleOfIncrement(t *testing.T) {
	for _, inc := range []domain.Increment{domain.IncrementHundredth, domain.IncrementTenth, domain.IncrementWhole} {
		for amount := money.Micros(0); amount < 30_000; amount += 137 {
			credits, err := domain.Convert(amount, policyWith(inc))
			require.NoError(t, err)
			require.GreaterOrEqual(t, int64(credits), int64(0))
			require.Zero(t, int64(credits)%int64(inc), "amount %s at increment %s", amount, inc)
		}
	}
}

func TestConvert_InvalidIncrement(t *testing.T) {
	_, err := domain.Convert(money.MustMicros("1"), policyWith(domain.Increment(5)))
	require.ErrorIs(t, err, domain.ErrInvalidIncrement)
}
