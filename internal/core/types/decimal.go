// Package types provides the numeric value types shared by the billing domain.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// MoneyPlaces is the number of fractional digits reported for monetary results.
const MoneyPlaces = 2

// NewMoney creates a Money value from a float.
// Use ParseMoney for values arriving as text.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// RoundMoney rounds a monetary result to MoneyPlaces.
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}

// ParseMoney parses an untyped request value into Money.
// Empty input, non-numeric text and negative values are rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	m, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount: %w", err)
	}
	if m.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount must not be negative")
	}
	return m, nil
}

// Quantity is a fixed-point quantity with 4 decimal places (scale = 1e4).
// Stored as BIGINT; 4 places keep gram/ml fractions of kg/liter exact.
type Quantity int64

const QuantityScale int64 = 10_000

var quantityScaleDecimal = decimal.NewFromInt(QuantityScale)

var (
	minScaled = decimal.NewFromInt(math.MinInt64)
	maxScaled = decimal.NewFromInt(math.MaxInt64)
)

// ErrQuantityOutOfRange is returned when a value does not fit a Quantity.
var ErrQuantityOutOfRange = errors.New("quantity out of range")

func NewQuantityFromInt(v int64) Quantity { return Quantity(v * QuantityScale) }

// NewQuantityFromDecimal converts d to a Quantity, rounding to 4 places.
func NewQuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity(d.Mul(quantityScaleDecimal).Round(0).IntPart())
}

// quantityFromDecimal is NewQuantityFromDecimal with a range check.
func quantityFromDecimal(d decimal.Decimal) (Quantity, error) {
	scaled := d.Mul(quantityScaleDecimal).Round(0)
	if scaled.LessThan(minScaled) || scaled.GreaterThan(maxScaled) {
		return 0, ErrQuantityOutOfRange
	}
	return Quantity(scaled.IntPart()), nil
}

// MustQuantity parses s as a Quantity, panics on error.
// Use only for constants and tests.
func MustQuantity(s string) Quantity {
	q, err := parseQuantityString(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) Int64Scaled() int64 { return int64(q) }

func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), -4)
}

func (q Quantity) Float64() float64 { return float64(q) / float64(QuantityScale) }

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }

// Mul multiplies the quantity by a decimal factor.
func (q Quantity) Mul(factor decimal.Decimal) Quantity {
	return NewQuantityFromDecimal(q.Decimal().Mul(factor))
}

// MulChecked is Mul that fails with ErrQuantityOutOfRange instead of wrapping.
func (q Quantity) MulChecked(factor decimal.Decimal) (Quantity, error) {
	return quantityFromDecimal(q.Decimal().Mul(factor))
}

// AddChecked returns q+o, failing with ErrQuantityOutOfRange on overflow.
func (q Quantity) AddChecked(o Quantity) (Quantity, error) {
	sum := q + o
	if (o > 0 && sum < q) || (o < 0 && sum > q) {
		return 0, ErrQuantityOutOfRange
	}
	return sum, nil
}

// Div divides the quantity by a decimal divisor. Divisor must be non-zero.
func (q Quantity) Div(divisor decimal.Decimal) Quantity {
	return NewQuantityFromDecimal(q.Decimal().Div(divisor))
}

// String returns a decimal string with 4 fractional digits.
func (q Quantity) String() string {
	neg := q < 0
	v := q
	if neg {
		v = -v
	}
	intPart := int64(v) / QuantityScale
	frac := int64(v) % QuantityScale
	if neg {
		return fmt.Sprintf("-%d.%04d", intPart, frac)
	}
	return fmt.Sprintf("%d.%04d", intPart, frac)
}

// MarshalJSON encodes Quantity as JSON number (not string), preserving 4 digits.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a numeric string.
// null decodes to zero; anything non-numeric is an error.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := parseQuantityString(s)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	}

	parsed, err := parseQuantityString(string(data))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// ParseQuantity parses an untyped request value (query string, form field).
func ParseQuantity(s string) (Quantity, error) {
	return parseQuantityString(s)
}

func parseQuantityString(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}

	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse quantity: %w", err)
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, fmt.Errorf("parse quantity %q: %w", s, ErrQuantityOutOfRange)
		}
		return checkedQuantity(s, decimal.NewFromFloat(f))
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse quantity: %w", err)
	}
	return checkedQuantity(s, d)
}

func checkedQuantity(raw string, d decimal.Decimal) (Quantity, error) {
	q, err := quantityFromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("parse quantity %q: %w", raw, err)
	}
	return q, nil
}
