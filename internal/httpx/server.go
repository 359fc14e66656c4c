package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-shop-backoffice.git/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps business failures onto status codes; anything unexpected
// stays a generic 500 so persistence details never leak to callers.
func writeError(w http.ResponseWriter, err error) {
	var (
		pnf *shop.ProductNotFoundError
		onf *shop.OrderNotFoundError
		unf *shop.UserNotFoundError
		cnf *shop.CustomerNotFoundError
		puf *shop.PurchaseNotFoundError
		ins *shop.InsufficientStockError
		ref *shop.ProductReferencedError
		inv *shop.InvalidLineError
	)
	switch {
	case errors.As(err, &pnf), errors.As(err, &onf), errors.As(err, &unf),
		errors.As(err, &cnf), errors.As(err, &puf):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &ins), errors.As(err, &ref):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &inv), errors.Is(err, shop.ErrEmptyOrder), errors.Is(err, shop.ErrEmptyPurchase):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
