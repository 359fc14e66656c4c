package redisx

import "time"

const (
	// Cached order detail projection: order_detail:{order_id} -> JSON.
	// Invalidated on order update/delete only; line subtotals reflect the
	// selling price at projection time, so a catalog price change can be
	// served up to TTLDetailCache stale.
	KeyOrderDetail = "order_detail:%s"

	// Cached invoice document: invoice:{order_id} -> JSON
	KeyInvoice = "invoice:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDetailCache = 5 * time.Minute
	TTLInvoice     = 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
