package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================
// Money
// ============================================================

// Money is an arbitrary-precision decimal currency amount.
//
// All arithmetic happens on the decimal representation; binary floats never
// enter the picture, so sums of many small fractional amounts do not drift.
// The zero value is a usable zero amount.
type Money struct {
	dec decimal.Decimal
}

// ZeroMoney returns a zero amount.
func ZeroMoney() Money {
	return Money{}
}

// ParseMoney parses a decimal string into a Money value.
// Empty strings and non-finite literals (NaN, Infinity, exponent garbage)
// fail with ErrInvalidAmount.
func ParseMoney(text string) (Money, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Money{}, &ErrInvalidAmount{Input: text, Reason: "empty amount"}
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Money{}, &ErrInvalidAmount{Input: text, Reason: "not a finite decimal number"}
	}
	return Money{dec: d}, nil
}

// MustMoney parses a decimal string and panics on failure.
// For constants and tests only.
func MustMoney(text string) Money {
	m, err := ParseMoney(text)
	if err != nil {
		panic(err)
	}
	return m
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{dec: m.dec.Add(o.dec)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{dec: m.dec.Sub(o.dec)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{dec: m.dec.Neg()}
}

// Abs returns the absolute value of m.
func (m Money) Abs() Money {
	return Money{dec: m.dec.Abs()}
}

// Compare returns -1 if m < o, 0 if m == o, 1 if m > o.
// Consistent with arithmetic sign: m.Sub(o).IsPositive() ⇔ Compare(o) == 1.
func (m Money) Compare(o Money) int {
	return m.dec.Cmp(o.dec)
}

// Equal reports whether m and o are numerically equal.
func (m Money) Equal(o Money) bool {
	return m.dec.Equal(o.dec)
}

// IsZero reports whether m is exactly zero.
func (m Money) IsZero() bool {
	return m.dec.IsZero()
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m.dec.IsPositive()
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.dec.IsNegative()
}

// WireString returns the canonical full-precision decimal string used on the
// wire and for exact comparisons.
func (m Money) WireString() string {
	return m.dec.String()
}

// DisplayString formats m for presentation: the currency symbol followed by
// the amount rounded to places fractional digits (half-up) with thousands
// separators. Rounding here is display-only; the result must never be parsed
// back into a Money.
func (m Money) DisplayString(symbol string, places int32) string {
	fixed := m.dec.StringFixed(places)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart := fixed
	fracPart := ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i:]
	}

	grouped := groupThousands(intPart)

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%s%s%s", sign, symbol, grouped, fracPart)
}

// groupThousands inserts comma separators into a bare digit string.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// PercentChange returns (latest - base) / base * 100 at decimal precision.
// Defined as zero when base is zero, matching the neutral rendering of an
// asset with no prior value.
func PercentChange(latest, base Money) decimal.Decimal {
	if base.dec.IsZero() {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	return latest.dec.Sub(base.dec).Div(base.dec).Mul(hundred)
}

// MarshalJSON encodes the amount as a decimal string, never a float.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.dec.String() + `"`), nil
}

// UnmarshalJSON accepts a decimal string. Bare JSON numbers are also accepted
// for compatibility with older backend iterations, but are parsed from their
// literal text so no float conversion happens.
func (m *Money) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	parsed, err := ParseMoney(text)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// String implements fmt.Stringer with the canonical wire form.
func (m Money) String() string {
	return m.dec.String()
}
