package money_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/money"
)

func TestParseMicros(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected money.Micros
		wantErr  error
	}{
		{name: "whole dollars", input: "50", expected: 50_000_000},
		{name: "fractional price", input: "3.5", expected: 3_500_000},
		{name: "six decimals", input: "0.000125", expected: 125},
		{name: "negative amount", input: "-66.67", expected: -66_670_000},
		{name: "surrounding whitespace", input: " 10 ", expected: 10_000_000},
		{name: "too many decimals", input: "0.0000001", wantErr: money.ErrPrecision},
		{name: "empty string", input: "", wantErr: money.ErrPrecision},
		{name: "out of range", input: "99999999999999999999", wantErr: money.ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.ParseMicros(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}

	t.Run("should reject malformed input", func(t *testing.T) {
		_, err := money.ParseMicros("ten dollars")
		require.Error(t, err)
	})
}

func TestMicros_RoundToCents(t *testing.T) {
	require.Equal(t, money.Micros(66_670_000), money.Micros(66_666_667).RoundToCents())
	require.Equal(t, money.Micros(-66_670_000), money.Micros(-66_666_667).RoundToCents())
	require.Equal(t, money.Micros(10_000), money.Micros(5_000).RoundToCents())
	require.Equal(t, money.Micros(-10_000), money.Micros(-5_000).RoundToCents())
	require.Equal(t, money.Micros(0), money.Micros(4_999).RoundToCents())
}

func TestDivRound(t *testing.T) {
	require.Equal(t, int64(4), money.DivRound(7, 2))
	require.Equal(t, int64(-4), money.DivRound(-7, 2))
	require.Equal(t, int64(2), money.DivRound(7, 3))
	require.Equal(t, int64(-2), money.DivRound(-7, 3))
	require.Equal(t, int64(0), money.DivRound(0, 5))
}

func TestMulDivRound(t *testing.T) {
	t.Run("should round exact halves away from zero", func(t *testing.T) {
		got, err := money.MulDivRound(5, 1, 10)
		require.NoError(t, err)
		require.Equal(t, int64(1), got)

		got, err = money.MulDivRound(-5, 1, 10)
		require.NoError(t, err)
		require.Equal(t, int64(-1), got)
	})

	t.Run("should not overflow in the intermediate product", func(t *testing.T) {
		got, err := money.MulDivRound(9_000_000_000_000_000, 1_200_000, 1_000_000_000)
		require.NoError(t, err)
		require.Equal(t, int64(10_800_000_000_000), got)
	})

	t.Run("should report results out of range", func(t *testing.T) {
		_, err := money.MulDivRound(9_000_000_000_000_000_000, 10, 1)
		require.ErrorIs(t, err, money.ErrOverflow)
	})
}

func TestAddMul_Overflow(t *testing.T) {
	_, err := money.Add(9_223_372_036_854_775_000, 1_000)
	require.ErrorIs(t, err, money.ErrOverflow)

	_, err = money.Mul(4_000_000_000, 4_000_000_000)
	require.ErrorIs(t, err, money.ErrOverflow)

	v, err := money.Mul(250, 10_000_000)
	require.NoError(t, err)
	require.Equal(t, int64(2_500_000_000), v)
}

func TestJSON(t *testing.T) {
	t.Run("should accept numbers and strings", func(t *testing.T) {
		var payload struct {
			Price  money.Micros  `json:"price"`
			Rate   money.RatePPM `json:"rate"`
			Credit money.Centi   `json:"credit"`
		}
		err := json.Unmarshal([]byte(`{"price": 150, "rate": "0.2", "credit": 0.7}`), &payload)
		require.NoError(t, err)
		require.Equal(t, money.Micros(150_000_000), payload.Price)
		require.Equal(t, money.RatePPM(200_000), payload.Rate)
		require.Equal(t, money.Centi(70), payload.Credit)
	})

	t.Run("should render fixed decimals", func(t *testing.T) {
		data, err := json.Marshal(map[string]any{
			"cost":    money.Micros(7_000),
			"credits": money.Centi(-6_667),
		})
		require.NoError(t, err)
		require.JSONEq(t, `{"cost": 0.007000, "credits": -66.67}`, string(data))
	})
}

func TestPicos_Micros(t *testing.T) {
	require.Equal(t, money.Micros(7_000), money.Picos(7_000_000_000).Micros())
	require.Equal(t, money.Micros(1), money.Picos(500_000).Micros())
	require.Equal(t, money.Micros(0), money.Picos(499_999).Micros())
}
