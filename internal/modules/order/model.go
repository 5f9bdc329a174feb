package order

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPlaced         Status = "PLACED"
	StatusAccepted       Status = "ACCEPTED"
	StatusPreparing      Status = "PREPARING"
	StatusReady          Status = "READY"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCollected      Status = "COLLECTED"
	StatusCancelled      Status = "CANCELLED"
)

// Fulfilment indicates how the customer receives the order.
type Fulfilment string

const (
	FulfilmentDelivery Fulfilment = "DELIVERY"
	FulfilmentPickup   Fulfilment = "PICKUP"
)

// validTransitions defines the allowed status state machine.
var validTransitions = map[Status][]Status{
	StatusPlaced:         {StatusAccepted, StatusCancelled},
	StatusAccepted:       {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusReady},
	StatusReady:          {StatusOutForDelivery, StatusCollected},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {},
	StatusCollected:      {},
	StatusCancelled:      {},
}

// CanTransition returns true if the move from current to next is allowed for
// the given fulfilment mode. Pickup orders are collected at the counter and
// never go out for delivery; delivery orders are never collected.
func CanTransition(fulfilment Fulfilment, current, next Status) bool {
	if fulfilment == FulfilmentPickup && (next == StatusOutForDelivery || next == StatusDelivered) {
		return false
	}
	if fulfilment == FulfilmentDelivery && next == StatusCollected {
		return false
	}
	for _, s := range validTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// Order represents a customer's food order with a single vendor.
type Order struct {
	ID                 uuid.UUID       `json:"id"`
	OrderNumber        string          `json:"order_number"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	VendorID           uuid.UUID       `json:"vendor_id"`
	Status             Status          `json:"status"`
	Fulfilment         Fulfilment      `json:"fulfilment"`
	Subtotal           float64         `json:"subtotal"`
	DeliveryFee        float64         `json:"delivery_fee"`
	ServiceCharge      float64         `json:"service_charge"`
	Tip                float64         `json:"tip"`
	Total              float64         `json:"total"`
	Currency           string          `json:"currency"`
	DeliveryAddress    json.RawMessage `json:"delivery_address,omitempty"`
	PickupInstructions string          `json:"pickup_instructions,omitempty"`
	ScheduledFor       *time.Time      `json:"scheduled_for,omitempty"`
	IdempotencyKey     string          `json:"idempotency_key,omitempty"`
	Items              []*OrderItem    `json:"items,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// OrderItem is a single line item within an order. Prepared tracks the
// vendor's processing checklist.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	LineTotal float64   `json:"line_total"`
	Prepared  bool      `json:"prepared"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateStatusRequest is the payload for advancing an order's status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ProcessOrderRequest is the vendor checklist submission: the order items
// staff have physically prepared.
type ProcessOrderRequest struct {
	PreparedItemIDs []string `json:"prepared_item_ids"`
}

// ProcessResult is returned after a checklist submission.
type ProcessResult struct {
	Order         *Order `json:"order"`
	PreparedCount int    `json:"prepared_count"`
	TotalCount    int    `json:"total_count"`
	IsComplete    bool   `json:"is_complete"`
}
