package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/makeup-store/internal/domain/cart"
	"github.com/xenking/makeup-store/internal/domain/pricing"
	"github.com/xenking/makeup-store/internal/domain/product"
	"github.com/xenking/makeup-store/internal/domain/promo"
)

// CheckoutRequest holds the input for placing an order: the cart lines as
// held by the session's cart engine plus the checkout form fields.
type CheckoutRequest struct {
	Lines         []cart.Line
	PromoCode     string
	UserID        string
	Email         string
	UserName      string
	ShippingAddr  Address
	PaymentMethod string
}

// Service encapsulates checkout business logic. Unlike the add-to-cart path,
// checkout enforces stock on every line: an order may never be placed for
// more units than the catalog currently has.
type Service struct {
	products product.Repository
	promos   *promo.Table
	pricing  pricing.Config
	orders   Repository
	now      func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	promos *promo.Table,
	pricingCfg pricing.Config,
	orders Repository,
) *Service {
	return &Service{
		products: products,
		promos:   promos,
		pricing:  pricingCfg,
		orders:   orders,
		now:      time.Now,
	}
}

// Checkout validates the cart lines, re-fetches products in a single batch,
// recomputes subtotal, shipping, and promo discount with current prices,
// persists the order, and returns it.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, len(req.Lines))
	for i, line := range req.Lines {
		if line.Quantity < 1 {
			return nil, &cart.InvalidQuantityError{ProductID: line.ProductID, Quantity: line.Quantity, Stock: -1}
		}
		ids[i] = line.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]Item, len(req.Lines))
	priced := make([]pricing.Item, len(req.Lines))
	for i, line := range req.Lines {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, &cart.ProductNotFoundError{ProductID: line.ProductID}
		}
		if !p.InStock(line.Quantity) {
			return nil, &cart.InvalidQuantityError{ProductID: line.ProductID, Quantity: line.Quantity, Stock: p.Stock}
		}
		items[i] = Item{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  line.Quantity,
		}
		priced[i] = pricing.Item{
			ProductID: p.ID,
			UnitPrice: p.Price,
			Quantity:  line.Quantity,
		}
	}

	subtotal := pricing.Subtotal(priced)
	shipping := s.pricing.ShippingFee(subtotal)

	discount := decimal.Zero
	code := ""
	if req.PromoCode != "" {
		code = promo.Normalize(req.PromoCode)
		discount, err = s.promos.DiscountFor(code, subtotal)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	o := &Order{
		ID:            uuid.New().String(),
		UserID:        req.UserID,
		Email:         req.Email,
		UserName:      req.UserName,
		Items:         items,
		Subtotal:      subtotal,
		Shipping:      shipping,
		Discount:      discount,
		Total:         pricing.Total(subtotal, shipping, discount),
		PromoCode:     code,
		ShippingAddr:  req.ShippingAddr,
		PaymentMethod: req.PaymentMethod,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// UpdateStatus validates and applies a new fulfilment status to an order.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return errors.Wrapf(err, "update order %s", id)
	}
	return nil
}
