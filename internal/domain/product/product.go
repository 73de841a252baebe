package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. The cart engine
// treats a Product as an immutable snapshot taken at lookup time; the catalog
// is the only writer.
type Product struct {
	ID       string
	Name     string
	Brand    string
	Category string
	Price    decimal.Decimal
	Stock    int
	Images   []string
	Featured bool
}

// InStock reports whether at least qty units are available.
func (p Product) InStock(qty int) bool {
	return qty <= p.Stock
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
