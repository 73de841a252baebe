// Package promo implements promotional discount codes: a static table of
// code to discount fraction, applied as a percentage of the cart subtotal.
package promo

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidCode is returned when a promo code is unknown.
var ErrInvalidCode = errors.New("invalid promo code")

var one = decimal.NewFromInt(1)

// Table maps normalized promo codes to discount fractions in (0.0, 1.0].
// A Table is immutable after construction and safe for concurrent readers.
type Table struct {
	fractions map[string]decimal.Decimal
}

// NewTable builds a Table from a code to fraction mapping. Codes are
// normalized (trimmed, upper-cased); entries with fractions outside
// (0.0, 1.0] are dropped rather than applied incorrectly.
func NewTable(codes map[string]float64) *Table {
	fractions := make(map[string]decimal.Decimal, len(codes))
	for code, f := range codes {
		frac := decimal.NewFromFloat(f)
		if !frac.IsPositive() || frac.GreaterThan(one) {
			continue
		}
		fractions[Normalize(code)] = frac
	}
	return &Table{fractions: fractions}
}

// Normalize trims surrounding whitespace and upper-cases a code so that
// lookup is case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Lookup returns the discount fraction for code, or ErrInvalidCode.
func (t *Table) Lookup(code string) (decimal.Decimal, error) {
	frac, ok := t.fractions[Normalize(code)]
	if !ok {
		return decimal.Zero, ErrInvalidCode
	}
	return frac, nil
}

// DiscountFor computes the discount amount for code against the given
// subtotal: subtotal times the code's fraction, rounded to 2 places.
func (t *Table) DiscountFor(code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	frac, err := t.Lookup(code)
	if err != nil {
		return decimal.Zero, err
	}
	return subtotal.Mul(frac).Round(2), nil
}
