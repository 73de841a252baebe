package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

var (
	// ErrEmptyCart is returned when checkout is attempted with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidStatus is returned for unknown status values.
	ErrInvalidStatus = errors.New("invalid order status")
)

// Item is one line of a placed order. Name and unit price are snapshots
// taken at checkout time; later catalog changes do not rewrite history.
type Item struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Address is the delivery address captured from the checkout form.
type Address struct {
	FullName   string
	Street     string
	City       string
	PostalCode string
	Phone      string
}

// Order is a completed checkout with its full pricing breakdown.
type Order struct {
	ID            string
	UserID        string
	Email         string
	UserName      string
	Items         []Item
	Subtotal      decimal.Decimal
	Shipping      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	PromoCode     string
	ShippingAddr  Address
	PaymentMethod string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}
