package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkax "github.com/ariefcatur/go-shop-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-shop-backoffice.git/internal/redisx"
	"github.com/ariefcatur/go-shop-backoffice.git/internal/shop"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Document is everything a renderer needs to produce an invoice: header,
// parties, line items with unit price/discount/subtotal, and totals.
// Rendering (PDF, printing) is a downstream concern.
type Document struct {
	OrderID       string          `json:"order_id"`
	OrderDate     time.Time       `json:"order_date"`
	CustomerName  string          `json:"customer_name"`
	UserName      string          `json:"user_name"`
	Items         []Item          `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
}

type Item struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Service listens to order events and keeps the invoice cache current.
type Service struct {
	Orders      *shop.OrderRepo
	Redis       *redis.Client
	Producer    *kafkax.Producer // publishes invoice.ready
	Log         *zap.Logger
	ServiceName string
}

// HandleOrderEvent is wired as the consumer handler for the order topics.
func (s *Service) HandleOrderEvent(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}

	// dedup by event id
	dkey := fmt.Sprintf(redisx.KeyDedup, "invoicer", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case shop.EventOrderCreated, shop.EventOrderUpdated:
		p, err := kafkax.UnwrapPayload[shop.OrderMutatedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.project(ctx, p.OrderID, env.TraceID)
	case shop.EventOrdersDeleted:
		p, err := kafkax.UnwrapPayload[shop.OrdersDeletedPayload](env.Payload)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(p.OrderIDs))
		for _, id := range p.OrderIDs {
			keys = append(keys, fmt.Sprintf(redisx.KeyInvoice, id))
		}
		redisx.Invalidate(ctx, s.Redis, keys...)
		return nil
	default:
		return nil // ignore
	}
}

func (s *Service) project(ctx context.Context, orderID, trace string) error {
	detail, err := s.Orders.GetOrderDetail(ctx, orderID)
	if err != nil {
		if shop.IsBusinessError(err) {
			// order vanished between event and projection; nothing to invoice
			s.Log.Warn("invoice projection skipped", zap.String("order_id", orderID), zap.Error(err))
			return nil
		}
		return err
	}

	doc := FromDetail(detail)
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyInvoice, orderID)
	if err := s.Redis.Set(ctx, key, b, redisx.TTLInvoice).Err(); err != nil {
		return err
	}

	ev := shop.Envelope{
		EventID:       uuid.NewString(),
		EventType:     shop.EventInvoiceReady,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(shop.InvoiceReadyPayload{OrderID: orderID}),
	}
	s.Producer.Publish(shop.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventInvoiceReady)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}

// FromDetail maps the order detail projection onto the invoice document.
func FromDetail(d *shop.OrderDetail) Document {
	doc := Document{
		OrderID:       d.ID,
		OrderDate:     d.OrderDate,
		CustomerName:  d.Customer.Name,
		UserName:      "Unknown User",
		TotalAmount:   d.TotalAmount,
		TotalDiscount: d.TotalDiscount,
		FinalAmount:   d.TotalAmount,
	}
	if d.User != nil {
		doc.UserName = d.User.FirstName + " " + d.User.LastName
	}
	for _, l := range d.Lines {
		doc.Items = append(doc.Items, Item{
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.SellingPrice,
			Discount:    l.Discount,
			Subtotal:    l.Subtotal,
		})
	}
	return doc
}
