package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/go-shop-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-shop-backoffice.git/internal/redisx"
	"github.com/ariefcatur/go-shop-backoffice.git/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type OrdersHandler struct {
	Repo            *shop.OrderRepo
	Redis           *redis.Client
	ProducerCreated *kafkax.Producer
	ProducerUpdated *kafkax.Producer
	ProducerDeleted *kafkax.Producer
	Service         string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.createOrder)
	r.Put("/orders/{id}", h.updateOrder)
	r.Delete("/orders", h.deleteOrders)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/total", h.sumAllOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/total", h.orderTotal)
	r.Get("/customers/{id}/orders", h.customerOrders)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var in shop.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if in.CustomerID == "" || in.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Repo.CreateOrderTx(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publishMutation(h.ProducerCreated, shop.EventOrderCreated, order, r.Header.Get("X-Request-Id"))
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrdersHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var in shop.OrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if in.CustomerID == "" || in.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, err := h.Repo.UpdateOrderTx(ctx, orderID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	redisx.Invalidate(ctx, h.Redis, fmt.Sprintf(redisx.KeyOrderDetail, orderID))
	h.publishMutation(h.ProducerUpdated, shop.EventOrderUpdated, order, r.Header.Get("X-Request-Id"))
	writeJSON(w, http.StatusOK, order)
}

type deleteOrdersReq struct {
	OrderIDs []string `json:"order_ids"`
}

func (h *OrdersHandler) deleteOrders(w http.ResponseWriter, r *http.Request) {
	var req deleteOrdersReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.OrderIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing order_ids"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := h.Repo.DeleteOrdersTx(ctx, req.OrderIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	keys := make([]string, 0, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		keys = append(keys, fmt.Sprintf(redisx.KeyOrderDetail, id))
	}
	redisx.Invalidate(ctx, h.Redis, keys...)

	ev := shop.Envelope{
		EventID:      uuid.NewString(),
		EventType:    shop.EventOrdersDeleted,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     h.Service,
		TraceID:      r.Header.Get("X-Request-Id"),
		Payload:      kafkax.MustMarshal(shop.OrdersDeletedPayload{OrderIDs: req.OrderIDs}),
	}
	h.ProducerDeleted.Publish(shop.PartitionKey(req.OrderIDs[0]), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventOrdersDeleted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)

	writeJSON(w, http.StatusOK, map[string]int{"deleted": count})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// serve from cache when we can
	key := fmt.Sprintf(redisx.KeyOrderDetail, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(s))
		return
	}

	detail, err := h.Repo.GetOrderDetail(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	b, _ := json.Marshal(detail)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLDetailCache).Err()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page := shop.Pagination{
		PageNumber: queryInt(r, "page", 1),
		PageSize:   queryInt(r, "page_size", 20),
	}
	q := shop.OrderQuery{
		Search:    r.URL.Query().Get("search"),
		SortField: r.URL.Query().Get("sort"),
		SortDesc:  r.URL.Query().Get("order") == "desc",
	}
	if v := r.URL.Query().Get("min_amount"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			q.MinAmount = &d
		}
	}
	if v := r.URL.Query().Get("max_amount"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			q.MaxAmount = &d
		}
	}
	if v := r.URL.Query().Get("start_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.StartDate = &t
		}
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.EndDate = &t
		}
	}

	out, err := h.Repo.ListOrders(ctx, page, q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) customerOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page := shop.Pagination{
		PageNumber: queryInt(r, "page", 1),
		PageSize:   queryInt(r, "page_size", 20),
	}
	out, err := h.Repo.CustomerOrders(ctx, chi.URLParam(r, "id"), page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) orderTotal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	total, err := h.Repo.OrderTotal(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"total": total})
}

func (h *OrdersHandler) sumAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	sum, err := h.Repo.SumAllOrders(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"total": sum})
}

func (h *OrdersHandler) publishMutation(p *kafkax.Producer, eventType string, order *shop.Order, trace string) {
	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.Service,
		TraceID:       trace,
		CorrelationID: order.ID,
		Payload: kafkax.MustMarshal(shop.OrderMutatedPayload{
			OrderID:       order.ID,
			CustomerID:    order.CustomerID,
			UserID:        order.UserID,
			Lines:         shop.OrderLinesQty(order.Lines),
			TotalAmount:   order.TotalAmount,
			TotalDiscount: order.TotalDiscount,
		}),
	}
	p.Publish(shop.PartitionKey(order.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
