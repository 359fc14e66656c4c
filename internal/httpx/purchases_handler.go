package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-shop-backoffice.git/internal/shop"
	"github.com/go-chi/chi/v5"
)

type PurchasesHandler struct {
	Purchases *shop.PurchaseRepo
}

func (h *PurchasesHandler) Register(r *chi.Mux) {
	r.Get("/purchases", h.listPurchases)
	r.Post("/purchases", h.createPurchase)
	r.Get("/purchases/{id}", h.getPurchase)
	r.Get("/merchants", h.listMerchants)
	r.Post("/merchants", h.createMerchant)
}

type createMerchantReq struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *PurchasesHandler) createMerchant(w http.ResponseWriter, r *http.Request) {
	var req createMerchantReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing name"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	m, err := h.Purchases.CreateMerchant(ctx, req.Name, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *PurchasesHandler) listMerchants(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ms, err := h.Purchases.ListMerchants(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (h *PurchasesHandler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var in shop.PurchaseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if in.MerchantID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing merchant_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Purchases.CreatePurchaseTx(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PurchasesHandler) getPurchase(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Purchases.GetPurchase(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PurchasesHandler) listPurchases(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	page := shop.Pagination{
		PageNumber: queryInt(r, "page", 1),
		PageSize:   queryInt(r, "page_size", 20),
	}
	out, err := h.Purchases.ListPurchases(ctx, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
