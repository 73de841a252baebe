// Package handler exposes the storefront over HTTP. Handlers are thin: they
// decode requests, resolve the session's cart engine, delegate to the domain,
// and map domain errors to status codes. Bodies are encoded with jx.
package handler

import (
	"net/http"

	"github.com/xenking/makeup-store/internal/domain/order"
	"github.com/xenking/makeup-store/internal/domain/product"
	"github.com/xenking/makeup-store/internal/session"
)

// SessionHeader carries the storefront session identifier. The server mints
// one when the client does not send it and always echoes it back.
const SessionHeader = "X-Session-ID"

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Handler wires the storefront endpoints to the domain layer.
type Handler struct {
	products     product.Repository
	sessions     *session.Manager
	checkout     *order.Service
	orders       order.Repository
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products product.Repository,
	sessions *session.Manager,
	checkout *order.Service,
	orders order.Repository,
) *Handler {
	return &Handler{
		products:     products,
		sessions:     sessions,
		checkout:     checkout,
		orders:       orders,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes registers all storefront endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.SetCartItemQuantity)
	mux.HandleFunc("POST /api/cart/items/{id}/increase", h.IncreaseCartItem)
	mux.HandleFunc("POST /api/cart/items/{id}/decrease", h.DecreaseCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.RemoveCartItem)
	mux.HandleFunc("DELETE /api/cart", h.ClearCart)
	mux.HandleFunc("POST /api/cart/promo", h.ApplyPromo)

	mux.HandleFunc("POST /api/checkout", h.Checkout)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("PATCH /api/orders/{id}/status", h.UpdateOrderStatus)
}

// sessionID resolves the request's session id, minting one when absent, and
// echoes it on the response.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		id = session.NewSessionID()
	}
	w.Header().Set(SessionHeader, id)
	return id
}
