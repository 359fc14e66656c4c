package shop

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated  = "OrderCreated"
	EventOrderUpdated  = "OrderUpdated"
	EventOrdersDeleted = "OrdersDeleted"
	EventInvoiceReady  = "InvoiceReady"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payloads ----

type LineQty struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type OrderMutatedPayload struct {
	OrderID       string          `json:"order_id"`
	CustomerID    string          `json:"customer_id"`
	UserID        string          `json:"user_id"`
	Lines         []LineQty       `json:"lines"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
}

type OrdersDeletedPayload struct {
	OrderIDs []string `json:"order_ids"`
}

type InvoiceReadyPayload struct {
	OrderID string `json:"order_id"`
}

func OrderLinesQty(lines []OrderLine) []LineQty {
	out := make([]LineQty, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineQty{ProductID: l.ProductID, Qty: l.Quantity})
	}
	return out
}
