// Package cart implements the shopping cart engine: an ordered list of line
// items with derived totals, promo code handling, and best-effort persistence
// through an injected key-value store.
package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors.
var (
	// ErrBlobNotFound is returned by Store.Read when no blob exists under
	// the requested key.
	ErrBlobNotFound = errors.New("cart blob not found")
	// ErrPersistenceWrite marks a failed cart persistence write. The
	// in-memory mutation that triggered the write is kept; persistence is
	// best-effort and never rolls back state.
	ErrPersistenceWrite = errors.New("cart persistence write failed")
)

// ProductNotFoundError indicates an operation referenced an unknown product.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a requested quantity that is non-positive or
// exceeds the product's available stock. Stock is -1 when not applicable.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
	Stock     int
}

func (e *InvalidQuantityError) Error() string {
	if e.Stock >= 0 {
		return fmt.Sprintf("quantity %d for product %s exceeds stock %d", e.Quantity, e.ProductID, e.Stock)
	}
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// Line is one product-quantity pairing within a cart. At most one Line exists
// per product ID; lines keep their first-added position until removed.
type Line struct {
	ProductID string
	Quantity  int
	AddedAt   time.Time
}

// Store is the durable key-value store the engine persists its state to.
// Implementations own durability only; the blob format belongs to the engine.
type Store interface {
	// Read returns the blob stored under key, or ErrBlobNotFound.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write stores blob under key, replacing any previous value.
	Write(ctx context.Context, key string, blob []byte) error
}
