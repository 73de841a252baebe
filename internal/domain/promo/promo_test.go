package promo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable() *Table {
	return NewTable(map[string]float64{
		"MAKEUP10": 0.10,
		"MAKEUP20": 0.20,
	})
}

func TestLookup(t *testing.T) {
	table := newTable()

	frac, err := table.Lookup("MAKEUP10")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.1").Equal(frac))

	_, err = table.Lookup("BOGUS")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestLookup_CaseAndWhitespaceInsensitive(t *testing.T) {
	table := newTable()

	for _, code := range []string{"makeup10", "Makeup10", "  MAKEUP10  ", "\tmakeup10\n"} {
		_, err := table.Lookup(code)
		assert.NoError(t, err, "code %q", code)
	}
}

func TestNewTable_DropsInvalidFractions(t *testing.T) {
	table := NewTable(map[string]float64{
		"ZERO":     0,
		"NEGATIVE": -0.5,
		"TOO_BIG":  1.5,
		"FULL":     1.0,
		"OK":       0.25,
	})

	_, err := table.Lookup("ZERO")
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = table.Lookup("NEGATIVE")
	assert.ErrorIs(t, err, ErrInvalidCode)
	_, err = table.Lookup("TOO_BIG")
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = table.Lookup("FULL")
	assert.NoError(t, err)
	_, err = table.Lookup("OK")
	assert.NoError(t, err)
}

func TestDiscountFor(t *testing.T) {
	table := newTable()

	tests := []struct {
		name     string
		code     string
		subtotal string
		want     string
	}{
		{"ten percent", "MAKEUP10", "100.00", "10.00"},
		{"twenty percent", "MAKEUP20", "54.99", "11.00"},
		{"zero subtotal", "MAKEUP10", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.DiscountFor(tt.code, decimal.RequireFromString(tt.subtotal))
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestDiscountFor_InvalidCode(t *testing.T) {
	table := newTable()

	_, err := table.DiscountFor("BOGUS", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrInvalidCode)
}
