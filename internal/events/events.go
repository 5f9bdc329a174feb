package events

import "context"

const (
	// OrderExchange is the topic exchange all order events are published to.
	OrderExchange = "kasama.orders"

	// Routing keys
	OrderPlacedRoutingKey = "order.placed"
	OrderStatusRoutingKey = "order.status"
)

// OrderPlacedEvent is emitted once when a customer's order is created.
// Vendor dashboards subscribe to it to surface incoming orders.
type OrderPlacedEvent struct {
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	CustomerID  string      `json:"customer_id"`
	VendorID    string      `json:"vendor_id"`
	Fulfilment  string      `json:"fulfilment"`
	Items       []EventItem `json:"items"`
	Total       float64     `json:"total"`
	Currency    string      `json:"currency"`
	CreatedAt   string      `json:"created_at"`
}

// EventItem is a single order line inside an event payload.
type EventItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// OrderStatusEvent is emitted every time an order changes status.
type OrderStatusEvent struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	CustomerID  string `json:"customer_id"`
	VendorID    string `json:"vendor_id"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	ChangedAt   string `json:"changed_at"`
}

// Publisher fans order events out to interested consumers.
type Publisher interface {
	OrderPlaced(ctx context.Context, ev OrderPlacedEvent) error
	OrderStatusChanged(ctx context.Context, ev OrderStatusEvent) error
}

// nopPublisher drops every event. Used in tests and when no broker is configured.
type nopPublisher struct{}

// NewNopPublisher returns a Publisher that discards all events.
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) OrderPlaced(context.Context, OrderPlacedEvent) error { return nil }
func (nopPublisher) OrderStatusChanged(context.Context, OrderStatusEvent) error { return nil }
