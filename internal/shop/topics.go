package shop

const (
	TopicOrderCreated  = "shop.order.created"
	TopicOrderUpdated  = "shop.order.updated"
	TopicOrdersDeleted = "shop.order.deleted"
	TopicInvoiceReady  = "shop.invoice.ready"
)

// Partition key = order_id, so all events for one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
