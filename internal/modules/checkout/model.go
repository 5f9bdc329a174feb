package checkout

import (
	"time"

	"github.com/google/uuid"

	"github.com/kasamaeats/kasama-backend/internal/modules/address"
)

// Pricing constants for the Zambian market, in ZMW.
const (
	deliveryBaseFee   = 15.0 // flat fee for any delivery
	deliveryPerKmFee  = 6.0  // added per kilometre of straight-line distance
	serviceChargeRate = 0.10 // fraction of the subtotal
	serviceChargeCap  = 25.0
)

// quoteTTL bounds how long a quoted price stays honoured.
const quoteTTL = 15 * time.Minute

// PriceQuote is a priced snapshot of a cart. Placing an order requires a live
// quote whose fingerprint still matches the cart contents.
type PriceQuote struct {
	ID              uuid.UUID `json:"id"`
	CustomerID      string    `json:"customer_id"`
	VendorID        string    `json:"vendor_id"`
	CartFingerprint string    `json:"cart_fingerprint"`
	Fulfilment      string    `json:"fulfilment"` // DELIVERY | PICKUP
	AddressID       string    `json:"address_id,omitempty"`
	Subtotal        float64   `json:"subtotal"`
	DeliveryFee     float64   `json:"delivery_fee"`
	ServiceCharge   float64   `json:"service_charge"`
	Total           float64   `json:"total"`
	Currency        string    `json:"currency"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// QuoteRequest asks for a priced snapshot of the current cart. For delivery,
// the address resolves in order of preference: a freshly supplied NewAddress,
// an explicit AddressID, then the customer's default.
type QuoteRequest struct {
	Fulfilment string                        `json:"fulfilment"` // DELIVERY | PICKUP
	AddressID  string                        `json:"address_id,omitempty"`
	NewAddress *address.CreateAddressRequest `json:"new_address,omitempty"`
}

// Schedule is when the customer wants the order fulfilled.
type Schedule struct {
	ASAP bool   `json:"asap"`
	Date string `json:"date,omitempty"` // YYYY-MM-DD, required when not ASAP
	Slot string `json:"slot,omitempty"` // HH:MM 24h start of slot, required when not ASAP
}

// PaymentSelection names how the customer pays for the order.
type PaymentSelection struct {
	Provider    string `json:"provider"` // MTN_MOMO | AIRTEL_MONEY | CASH_ON_DELIVERY | CARD
	PhoneNumber string `json:"phone_number,omitempty"`
}

// PlaceOrderRequest converts a quoted cart into an order.
type PlaceOrderRequest struct {
	QuoteID            string           `json:"quote_id"`
	Schedule           Schedule         `json:"schedule"`
	PickupInstructions string           `json:"pickup_instructions,omitempty"`
	TipAmount          float64          `json:"tip_amount,omitempty"`
	Payment            PaymentSelection `json:"payment"`
	IdempotencyKey     string           `json:"idempotency_key"`
}
