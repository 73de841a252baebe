package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/makeup-store/internal/domain/cart"
	"github.com/xenking/makeup-store/internal/domain/order"
	"github.com/xenking/makeup-store/internal/domain/product"
	"github.com/xenking/makeup-store/internal/domain/promo"
)

// maxBodyBytes caps request bodies; storefront payloads are tiny.
const maxBodyBytes = 1 << 20

// writeJSON encodes a response body built by fn with status code.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError emits the error body {"code": N, "message": "..."}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(msg)
		e.ObjEnd()
	})
}

// writeDomainError maps domain errors to HTTP status codes. Unknown errors
// are logged and become opaque 500s.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var pnfErr *cart.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		writeError(w, http.StatusUnprocessableEntity, pnfErr.Error())
		return
	}

	var iqErr *cart.InvalidQuantityError
	if errors.As(err, &iqErr) {
		writeError(w, http.StatusUnprocessableEntity, iqErr.Error())
		return
	}

	switch {
	case errors.Is(err, promo.ErrInvalidCode):
		writeError(w, http.StatusUnprocessableEntity, "invalid promo code")
	case errors.Is(err, product.ErrNotFound):
		writeError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, order.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid order status")
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// readBody reads a capped request body for jx decoding.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return nil, false
	}
	return body, true
}
