// Package money holds the fixed-point amounts used on the billing path.
//
// Currency is carried as Micros (1e-6 USD), credits as Centi (0.01 credit) and
// margin rates as RatePPM (parts per million). Values are parsed from decimal
// text and never pass through binary floating point.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MicrosPerUSD is the number of Micros in one US dollar.
	MicrosPerUSD = 1_000_000

	// MicrosPerCent is the number of Micros in one US cent.
	MicrosPerCent = 10_000

	// PicosPerMicro is the number of Picos in one Micro.
	PicosPerMicro = 1_000_000

	// PPM is the denominator of RatePPM.
	PPM = 1_000_000

	microsScale = 6
	centiScale  = 2
	rateScale   = 6
)

var (
	// ErrOverflow indicates an amount that does not fit the fixed-point range.
	ErrOverflow = errors.New("amount out of range")

	// ErrPrecision indicates more fractional digits than the type can carry.
	ErrPrecision = errors.New("amount exceeds supported precision")
)

// Micros is a currency amount in millionths of a US dollar.
type Micros int64

// Picos is an intermediate currency amount in 1e-12 USD. Token costs are exact
// at this scale because prices are quoted in Micros per million tokens.
type Picos int64

// Centi is a credit amount in hundredths of a credit.
type Centi int64

// RatePPM is a ratio expressed in parts per million (250000 == 25%).
type RatePPM int64

// ParseMicros parses a decimal dollar string such as "3.5" or "0.000125".
func ParseMicros(s string) (Micros, error) {
	v, err := parseScaled(s, microsScale)
	if err != nil {
		return 0, err
	}
	return Micros(v), nil
}

// MustMicros is ParseMicros for constants; it panics on malformed input.
func MustMicros(s string) Micros {
	m, err := ParseMicros(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal returns the amount in dollars.
func (m Micros) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -microsScale)
}

func (m Micros) String() string {
	return m.Decimal().StringFixed(microsScale)
}

// RoundToCents rounds the amount to whole cents, half away from zero.
func (m Micros) RoundToCents() Micros {
	return Micros(DivRound(int64(m), MicrosPerCent) * MicrosPerCent)
}

// MarshalJSON renders the amount as a JSON number with six decimals.
func (m Micros) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Micros) UnmarshalJSON(data []byte) error {
	v, err := ParseMicros(unquote(data))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Micros rounds the amount to Micros, half away from zero.
func (p Picos) Micros() Micros {
	return Micros(DivRound(int64(p), PicosPerMicro))
}

// ParseCenti parses a decimal credit string such as "0.7" or "12".
func ParseCenti(s string) (Centi, error) {
	v, err := parseScaled(s, centiScale)
	if err != nil {
		return 0, err
	}
	return Centi(v), nil
}

// MustCenti is ParseCenti for constants; it panics on malformed input.
func MustCenti(s string) Centi {
	c, err := ParseCenti(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Decimal returns the amount in credits.
func (c Centi) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -centiScale)
}

func (c Centi) String() string {
	return c.Decimal().StringFixed(centiScale)
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (c Centi) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (c *Centi) UnmarshalJSON(data []byte) error {
	v, err := ParseCenti(unquote(data))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseRate parses a fractional rate such as "0.25" (25%).
func ParseRate(s string) (RatePPM, error) {
	v, err := parseScaled(s, rateScale)
	if err != nil {
		return 0, err
	}
	return RatePPM(v), nil
}

// MustRate is ParseRate for constants; it panics on malformed input.
func MustRate(s string) RatePPM {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Decimal returns the rate as a fraction.
func (r RatePPM) Decimal() decimal.Decimal {
	return decimal.New(int64(r), -rateScale)
}

func (r RatePPM) String() string {
	return r.Decimal().String()
}

// MarshalJSON renders the rate as a JSON number.
func (r RatePPM) MarshalJSON() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (r *RatePPM) UnmarshalJSON(data []byte) error {
	v, err := ParseRate(unquote(data))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Add returns a+b or ErrOverflow.
func Add(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Mul returns a*b or ErrOverflow.
func Mul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a == math.MinInt64 || b == math.MinInt64 {
		return 0, ErrOverflow
	}
	if abs(a) > math.MaxInt64/abs(b) {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// DivRound divides num by a positive den, rounding half away from zero.
func DivRound(num, den int64) int64 {
	q := num / den
	r := abs(num % den)
	if r >= den-r {
		if num < 0 {
			q--
		} else {
			q++
		}
	}
	return q
}

// MulDivRound computes a*b/c rounded half away from zero without intermediate
// overflow. c must be positive.
func MulDivRound(a, b, c int64) (int64, error) {
	num := decimal.NewFromInt(a).Mul(decimal.NewFromInt(b))
	den := decimal.NewFromInt(c)

	q, r := num.QuoRem(den, 0)
	if r.Abs().Mul(decimal.NewFromInt(2)).GreaterThanOrEqual(den) {
		if num.IsNegative() {
			q = q.Sub(decimal.NewFromInt(1))
		} else {
			q = q.Add(decimal.NewFromInt(1))
		}
	}

	if !q.BigInt().IsInt64() {
		return 0, ErrOverflow
	}
	return q.IntPart(), nil
}

func parseScaled(s string, scale int32) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty amount: %w", ErrPrecision)
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	shifted := d.Shift(scale)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q: %w", s, ErrPrecision)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q: %w", s, ErrOverflow)
	}
	return shifted.IntPart(), nil
}

func unquote(data []byte) string {
	return strings.Trim(string(data), `"`)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
