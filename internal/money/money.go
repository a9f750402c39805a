// Package money holds monetary amounts as integer minor units so totals, tips and
// change never drift through float rounding.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Cents is an amount in minor units (1/100 of the currency unit).
type Cents int64

const Zero Cents = 0

// MaxAmount is the largest value a NUMERIC(10,2) column holds, 99,999,999.99.
const MaxAmount Cents = 9_999_999_999

// Parse reads a decimal string such as "8.99" or "30". More than two fractional
// digits is rejected rather than rounded.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// MustParse is Parse for literals in tests and seeds.
func MustParse(s string) Cents {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func FromDecimal(d decimal.Decimal) (Cents, error) {
	scaled := d.Shift(2)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidAmount, d.String())
	}
	if !scaled.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, d.String())
	}
	return Cents(scaled.IntPart()), nil
}

func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Add fails instead of wrapping past the int64 range.
func (c Cents) Add(o Cents) (Cents, error) {
	sum := c + o
	if (o > 0 && sum < c) || (o < 0 && sum > c) {
		return 0, fmt.Errorf("%w: %s + %s overflows", ErrInvalidAmount, c, o)
	}
	return sum, nil
}

func (c Cents) Sub(o Cents) Cents { return c - o }

// Mul multiplies by a line quantity, failing instead of wrapping.
func (c Cents) Mul(qty int) (Cents, error) {
	if qty == 0 || c == 0 {
		return 0, nil
	}
	product := c * Cents(qty)
	if product/Cents(qty) != c || (qty == -1 && c == math.MinInt64) {
		return 0, fmt.Errorf("%w: %s x %d overflows", ErrInvalidAmount, c, qty)
	}
	return product, nil
}

// Storable reports whether c fits a NUMERIC(10,2) column.
func (c Cents) Storable() bool {
	return c >= -MaxAmount && c <= MaxAmount
}

// CheckStorable is Storable as an error naming the amount.
func (c Cents) CheckStorable() error {
	if !c.Storable() {
		return fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, c, MaxAmount)
	}
	return nil
}

func (c Cents) IsNegative() bool { return c < 0 }

func (c Cents) IsZero() bool { return c == 0 }

func Max(a, b Cents) Cents {
	if a > b {
		return a
	}
	return b
}

// MarshalJSON renders the amount as a fixed two-digit string, e.g. "17.98".
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON accepts both "8.99" and 8.99. The raw token is parsed as a
// decimal so no float is ever involved.
func (c *Cents) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	v, err := Parse(raw)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Value stores the amount in a NUMERIC(10,2) column.
func (c Cents) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c *Cents) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return fmt.Errorf("%w: NULL", ErrInvalidAmount)
	case []byte:
		return c.scanString(string(v))
	case string:
		return c.scanString(v)
	case int64:
		*c = Cents(v * 100)
		return nil
	case float64:
		parsed, err := FromDecimal(decimal.NewFromFloat(v).Round(2))
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, src)
	}
}

func (c *Cents) scanString(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	parsed, err := FromDecimal(d.Round(2))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
