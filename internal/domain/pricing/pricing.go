// Package pricing holds the pure monetary calculations shared by the cart
// engine and the checkout service: subtotal, shipping fee, and final total.
// All results are decimals rounded to 2 places; totals never go negative.
package pricing

import "github.com/shopspring/decimal"

var zero = decimal.Zero

// Config carries the shipping policy knobs.
type Config struct {
	// FreeShippingThreshold is the subtotal at or above which shipping is free.
	FreeShippingThreshold decimal.Decimal
	// FlatShippingFee is charged on every order below the threshold.
	FlatShippingFee decimal.Decimal
}

// DefaultConfig returns the stock shipping policy: free at 50.00, else 4.99.
func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: decimal.NewFromInt(50),
		FlatShippingFee:       decimal.RequireFromString("4.99"),
	}
}

// Item is one priced cart position for total calculation purposes.
type Item struct {
	ProductID string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns the sum of unit price times quantity across all items.
func Subtotal(items []Item) decimal.Decimal {
	sum := zero
	for _, item := range items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		sum = sum.Add(line)
	}
	return sum.Round(2)
}

// ItemCount returns the sum of quantities across all items.
func ItemCount(items []Item) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// ShippingFee returns the shipping charge for the given subtotal. An empty
// cart ships for free: there is nothing to deliver.
func (c Config) ShippingFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsZero() || subtotal.GreaterThanOrEqual(c.FreeShippingThreshold) {
		return zero
	}
	return c.FlatShippingFee
}

// Total computes subtotal + shipping - discount, floored at zero and rounded
// to 2 decimal places.
func Total(subtotal, shipping, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = zero
	}
	return total.Round(2)
}
