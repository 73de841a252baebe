package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/makeup-store/internal/domain/cart"
)

// engineFor resolves the session's cart engine.
func (h *Handler) engineFor(w http.ResponseWriter, r *http.Request) *cart.Engine {
	return h.sessions.Cart(r.Context(), h.sessionID(w, r))
}

// GetCart returns the session's cart lines and derived totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, r, h.engineFor(w, r))
}

// AddCartItem adds a product to the cart, merging quantities for a product
// already present. Quantity defaults to 1 when omitted.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	productID := ""
	qty := 1
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "product_id":
			v, err := d.Str()
			productID = v
			return err
		case "quantity":
			v, err := d.Int()
			qty = v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if productID == "" {
		writeError(w, http.StatusBadRequest, "product_id required")
		return
	}

	engine := h.engineFor(w, r)
	if err := engine.AddItem(r.Context(), productID, qty); failed(err) {
		writeDomainError(w, r, err)
		return
	}
	h.respondCart(w, r, engine)
}

// SetCartItemQuantity sets a line's quantity exactly. A quantity below 1
// removes the line; a quantity above stock is rejected and the cart is
// left unchanged.
func (h *Handler) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	qty := 0
	qtySet := false
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		v, err := d.Int()
		qty = v
		qtySet = true
		return err
	}); err != nil || !qtySet {
		writeError(w, http.StatusBadRequest, "quantity required")
		return
	}

	engine := h.engineFor(w, r)
	if err := engine.SetQuantity(r.Context(), r.PathValue("id"), qty); failed(err) {
		writeDomainError(w, r, err)
		return
	}
	h.respondCart(w, r, engine)
}

// IncreaseCartItem bumps a line's quantity by one, capped at current stock.
func (h *Handler) IncreaseCartItem(w http.ResponseWriter, r *http.Request) {
	engine := h.engineFor(w, r)
	if err := engine.IncreaseQuantity(r.Context(), r.PathValue("id")); failed(err) {
		writeDomainError(w, r, err)
		return
	}
	h.respondCart(w, r, engine)
}

// DecreaseCartItem lowers a line's quantity by one, floored at 1.
func (h *Handler) DecreaseCartItem(w http.ResponseWriter, r *http.Request) {
	engine := h.engineFor(w, r)
	if err := engine.DecreaseQuantity(r.Context(), r.PathValue("id")); failed(err) {
		writeDomainError(w, r, err)
		return
	}
	h.respondCart(w, r, engine)
}

// RemoveCartItem drops a line from the cart; removing an absent line is a
// no-op.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	engine := h.engineFor(w, r)
	if err := engine.RemoveItem(r.Context(), r.PathValue("id")); failed(err) {
		writeDomainError(w, r, err)
		return
	}
	h.respondCart(w, r, engine)
}

// ClearCart empties the session's cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	engine := h.engineFor(w, r)
	if err := engine.Clear(r.Context()); failed(err) {
		writeDomainError(w, r, err)
		return
	}
	h.respondCart(w, r, engine)
}

// ApplyPromo validates and applies a promo code to the session's cart.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	code := ""
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "code" {
			return d.Skip()
		}
		v, err := d.Str()
		code = v
		return err
	}); err != nil || code == "" {
		writeError(w, http.StatusBadRequest, "code required")
		return
	}

	engine := h.engineFor(w, r)
	if err := engine.ApplyPromoCode(code); err != nil {
		writeDomainError(w, r, err)
		return
	}
	h.respondCart(w, r, engine)
}

// failed reports whether a cart mutation should abort the response. A failed
// persistence write is not fatal: the in-memory mutation stands and the
// engine has already logged the store error.
func failed(err error) bool {
	return err != nil && !errors.Is(err, cart.ErrPersistenceWrite)
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, engine *cart.Engine) {
	totals, err := engine.Totals(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	lines := engine.Lines()

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("lines")
		e.ArrStart()
		for _, line := range lines {
			e.ObjStart()
			e.FieldStart("product_id")
			e.Str(line.ProductID)
			e.FieldStart("quantity")
			e.Int(line.Quantity)
			e.FieldStart("added_at")
			e.Str(line.AddedAt.UTC().Format(time.RFC3339))
			e.ObjEnd()
		}
		e.ArrEnd()
		if code := engine.PromoCode(); code != "" {
			e.FieldStart("promo_code")
			e.Str(code)
		}
		e.FieldStart("item_count")
		e.Int(totals.ItemCount)
		e.FieldStart("subtotal")
		e.Float64(totals.Subtotal.InexactFloat64())
		e.FieldStart("shipping")
		e.Float64(totals.Shipping.InexactFloat64())
		e.FieldStart("discount")
		e.Float64(totals.Discount.InexactFloat64())
		e.FieldStart("total")
		e.Float64(totals.Total.InexactFloat64())
		e.ObjEnd()
	})
}
