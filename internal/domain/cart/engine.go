package cart

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/makeup-store/internal/domain/pricing"
	"github.com/xenking/makeup-store/internal/domain/product"
	"github.com/xenking/makeup-store/internal/domain/promo"
)

// Totals is the full derived monetary view of a cart. It is recomputed from
// the current lines and catalog prices on every call and is never persisted.
type Totals struct {
	ItemCount int
	Subtotal  decimal.Decimal
	Shipping  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
}

// Engine owns the line items of a single cart and derives all monetary
// totals from them. It is constructed with its collaborators injected:
// the product catalog for current prices and stock, a key-value store for
// persistence, and the promo table for discount codes.
//
// Every mutation is atomic with respect to the engine's own state: a
// rejected call leaves the lines untouched. After each applied mutation the
// lines are written to the store; a failed write is logged and reported as
// ErrPersistenceWrite but the in-memory change stands.
//
// The engine serializes its own operations with a mutex so a single instance
// can be shared by concurrent handlers of one session. It does not coordinate
// across instances reading the same storage key (for example two browser
// tabs): there, last writer wins.
type Engine struct {
	products product.Repository
	store    Store
	promos   *promo.Table
	pricing  pricing.Config
	key      string
	lg       *zap.Logger
	now      func() time.Time

	mu        sync.Mutex
	lines     []Line
	promoCode string
}

// NewEngine creates a cart engine bound to the given storage key and restores
// any previously persisted lines. A missing or undecodable blob starts the
// cart empty; restore problems are logged, never returned.
func NewEngine(
	ctx context.Context,
	key string,
	products product.Repository,
	store Store,
	promos *promo.Table,
	pricingCfg pricing.Config,
	lg *zap.Logger,
) *Engine {
	e := &Engine{
		products: products,
		store:    store,
		promos:   promos,
		pricing:  pricingCfg,
		key:      key,
		lg:       lg,
		now:      time.Now,
	}
	e.restore(ctx)
	return e
}

func (e *Engine) restore(ctx context.Context) {
	blob, err := e.store.Read(ctx, e.key)
	if err != nil {
		if !errors.Is(err, ErrBlobNotFound) {
			e.lg.Warn("Cart restore failed, starting empty",
				zap.String("key", e.key), zap.Error(err))
		}
		return
	}

	lines, err := decodeLines(blob)
	if err != nil {
		e.lg.Warn("Cart blob corrupt, starting empty",
			zap.String("key", e.key), zap.Error(err))
		return
	}
	e.lines = lines
}

// AddItem adds qty units of the given product, merging into the existing line
// when one is present. A merge does not clamp against stock: the add path is
// intentionally permissive, stock is enforced on IncreaseQuantity and
// SetQuantity. Returns ProductNotFoundError for unknown products and
// InvalidQuantityError for qty < 1.
func (e *Engine) AddItem(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return &InvalidQuantityError{ProductID: productID, Quantity: qty, Stock: -1}
	}

	p, err := e.lookup(ctx, productID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if line := e.find(p.ID); line != nil {
		line.Quantity += qty
	} else {
		e.lines = append(e.lines, Line{
			ProductID: p.ID,
			Quantity:  qty,
			AddedAt:   e.now().Truncate(time.Second),
		})
	}
	return e.persist(ctx)
}

// IncreaseQuantity bumps an existing line by one. It is a no-op when the line
// is absent or when one more unit would exceed the product's current stock.
func (e *Engine) IncreaseQuantity(ctx context.Context, productID string) error {
	p, err := e.lookup(ctx, productID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	line := e.find(productID)
	if line == nil || !p.InStock(line.Quantity+1) {
		return nil
	}
	line.Quantity++
	return e.persist(ctx)
}

// DecreaseQuantity lowers an existing line by one. It is a no-op when the
// line is absent or already at quantity 1; use RemoveItem to drop a line.
func (e *Engine) DecreaseQuantity(ctx context.Context, productID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	line := e.find(productID)
	if line == nil || line.Quantity <= 1 {
		return nil
	}
	line.Quantity--
	return e.persist(ctx)
}

// SetQuantity sets an existing line's quantity exactly. A qty below 1 removes
// the line. A qty above the product's current stock is rejected with
// InvalidQuantityError and the cart is left unchanged. Setting the quantity
// of an absent line is a no-op.
func (e *Engine) SetQuantity(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return e.RemoveItem(ctx, productID)
	}

	p, err := e.lookup(ctx, productID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	line := e.find(productID)
	if line == nil {
		return nil
	}
	if !p.InStock(qty) {
		return &InvalidQuantityError{ProductID: productID, Quantity: qty, Stock: p.Stock}
	}
	line.Quantity = qty
	return e.persist(ctx)
}

// RemoveItem drops the line for productID. Removing an absent line is an
// idempotent no-op and does not touch the store.
func (e *Engine) RemoveItem(ctx context.Context, productID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, line := range e.lines {
		if line.ProductID == productID {
			e.lines = append(e.lines[:i], e.lines[i+1:]...)
			return e.persist(ctx)
		}
	}
	return nil
}

// Clear empties the cart and drops any applied promo code. An empty list is
// written to the store, not a key deletion, so a later restore sees an
// explicitly empty cart.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lines = nil
	e.promoCode = ""
	return e.persist(ctx)
}

// ApplyPromoCode validates code against the promo table and remembers it.
// The discount itself is re-derived from the current subtotal on every total
// computation, so it tracks later cart changes. An unknown code returns
// promo.ErrInvalidCode and leaves any previously applied code in place.
func (e *Engine) ApplyPromoCode(code string) error {
	if _, err := e.promos.Lookup(code); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.promoCode = promo.Normalize(code)
	return nil
}

// ClearPromoCode removes any applied promo code.
func (e *Engine) ClearPromoCode() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.promoCode = ""
}

// PromoCode returns the currently applied promo code, or "".
func (e *Engine) PromoCode() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.promoCode
}

// Lines returns a copy of the current line items in insertion order.
func (e *Engine) Lines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

// ItemCount returns the sum of quantities across all lines.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	count := 0
	for _, line := range e.lines {
		count += line.Quantity
	}
	return count
}

// Subtotal computes the cart subtotal with current catalog prices. Prices
// are always re-fetched at read time; a price cached at add time is never
// trusted.
func (e *Engine) Subtotal(ctx context.Context) (decimal.Decimal, error) {
	items, err := e.pricedItems(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.Subtotal(items), nil
}

// Totals computes the full derived view: item count, subtotal, shipping fee,
// promo discount, and final total.
func (e *Engine) Totals(ctx context.Context) (Totals, error) {
	items, err := e.pricedItems(ctx)
	if err != nil {
		return Totals{}, err
	}

	subtotal := pricing.Subtotal(items)
	shipping := e.pricing.ShippingFee(subtotal)

	discount := decimal.Zero
	if code := e.PromoCode(); code != "" {
		d, err := e.promos.DiscountFor(code, subtotal)
		if err != nil {
			// The table is static, so an applied code cannot disappear;
			// treat a miss as no discount rather than failing the read.
			e.lg.Warn("Applied promo code no longer valid", zap.String("code", code))
		} else {
			discount = d
		}
	}

	return Totals{
		ItemCount: pricing.ItemCount(items),
		Subtotal:  subtotal,
		Shipping:  shipping,
		Discount:  discount,
		Total:     pricing.Total(subtotal, shipping, discount),
	}, nil
}

// pricedItems snapshots the lines and joins them with current catalog prices.
func (e *Engine) pricedItems(ctx context.Context) ([]pricing.Item, error) {
	lines := e.Lines()
	if len(lines) == 0 {
		return nil, nil
	}

	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}

	fetched, err := e.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	items := make([]pricing.Item, len(lines))
	for i, line := range lines {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: line.ProductID}
		}
		items[i] = pricing.Item{
			ProductID: line.ProductID,
			UnitPrice: p.Price,
			Quantity:  line.Quantity,
		}
	}
	return items, nil
}

// find returns a pointer to the line for productID, or nil. Callers must
// hold e.mu.
func (e *Engine) find(productID string) *Line {
	for i := range e.lines {
		if e.lines[i].ProductID == productID {
			return &e.lines[i]
		}
	}
	return nil
}

func (e *Engine) lookup(ctx context.Context, productID string) (*product.Product, error) {
	p, err := e.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, &ProductNotFoundError{ProductID: productID}
		}
		return nil, errors.Wrapf(err, "get product %s", productID)
	}
	return p, nil
}

// persist writes the current lines to the store. Callers must hold e.mu.
func (e *Engine) persist(ctx context.Context) error {
	blob := encodeLines(e.lines)
	if err := e.store.Write(ctx, e.key, blob); err != nil {
		e.lg.Warn("Cart persist failed",
			zap.String("key", e.key), zap.Error(err))
		return errors.Wrap(ErrPersistenceWrite, err.Error())
	}
	return nil
}
