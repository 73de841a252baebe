package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/makeup-store/internal/domain/order"
)

// Checkout places an order from the session's cart and the submitted form
// fields, then empties the cart. The promo code applied to the cart carries
// over to the order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	req := order.CheckoutRequest{}
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "user_id":
			v, err := d.Str()
			req.UserID = v
			return err
		case "email":
			v, err := d.Str()
			req.Email = v
			return err
		case "name":
			v, err := d.Str()
			req.UserName = v
			return err
		case "payment_method":
			v, err := d.Str()
			req.PaymentMethod = v
			return err
		case "shipping_address":
			return d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "full_name":
					v, err := d.Str()
					req.ShippingAddr.FullName = v
					return err
				case "street":
					v, err := d.Str()
					req.ShippingAddr.Street = v
					return err
				case "city":
					v, err := d.Str()
					req.ShippingAddr.City = v
					return err
				case "postal_code":
					v, err := d.Str()
					req.ShippingAddr.PostalCode = v
					return err
				case "phone":
					v, err := d.Str()
					req.ShippingAddr.Phone = v
					return err
				default:
					return d.Skip()
				}
			})
		default:
			return d.Skip()
		}
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	engine := h.engineFor(w, r)
	req.Lines = engine.Lines()
	req.PromoCode = engine.PromoCode()

	o, err := h.checkout.Checkout(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	// Best effort: the order is already placed, a stale cart only costs the
	// customer one clear click.
	if err := engine.Clear(r.Context()); failed(err) {
		zctx.From(r.Context()).Warn("Cart clear after checkout failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// ListOrders returns order history, filtered to one user via ?user_id=.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []order.Order
		err    error
	)
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		orders, err = h.orders.ListByUser(r.Context(), userID)
	} else {
		orders, err = h.orders.List(r.Context())
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
}

// GetOrder returns a single order by ID.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

// UpdateOrderStatus moves an order to a new fulfilment status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	status := ""
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		v, err := d.Str()
		status = v
		return err
	}); err != nil || status == "" {
		writeError(w, http.StatusBadRequest, "status required")
		return
	}

	id := r.PathValue("id")
	if err := h.checkout.UpdateStatus(r.Context(), id, order.Status(status)); err != nil {
		writeDomainError(w, r, err)
		return
	}

	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, o)
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("user_id")
	e.Str(o.UserID)
	e.FieldStart("email")
	e.Str(o.Email)
	e.FieldStart("name")
	e.Str(o.UserName)
	e.FieldStart("items")
	e.ArrStart()
	for _, item := range o.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Str(item.ProductID)
		e.FieldStart("name")
		e.Str(item.Name)
		e.FieldStart("unit_price")
		e.Float64(item.UnitPrice.InexactFloat64())
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("subtotal")
	e.Float64(o.Subtotal.InexactFloat64())
	e.FieldStart("shipping")
	e.Float64(o.Shipping.InexactFloat64())
	e.FieldStart("discount")
	e.Float64(o.Discount.InexactFloat64())
	e.FieldStart("total")
	e.Float64(o.Total.InexactFloat64())
	if o.PromoCode != "" {
		e.FieldStart("promo_code")
		e.Str(o.PromoCode)
	}
	e.FieldStart("shipping_address")
	e.ObjStart()
	e.FieldStart("full_name")
	e.Str(o.ShippingAddr.FullName)
	e.FieldStart("street")
	e.Str(o.ShippingAddr.Street)
	e.FieldStart("city")
	e.Str(o.ShippingAddr.City)
	e.FieldStart("postal_code")
	e.Str(o.ShippingAddr.PostalCode)
	e.FieldStart("phone")
	e.Str(o.ShippingAddr.Phone)
	e.ObjEnd()
	e.FieldStart("payment_method")
	e.Str(o.PaymentMethod)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.FieldStart("updated_at")
	e.Str(o.UpdatedAt.UTC().Format(time.RFC3339))
	e.ObjEnd()
}
