package payment

import (
	"time"

	"github.com/google/uuid"
)

// Provider represents a supported payment method.
type Provider string

const (
	ProviderMTNMomo        Provider = "MTN_MOMO"
	ProviderAirtel         Provider = "AIRTEL_MONEY"
	ProviderCashOnDelivery Provider = "CASH_ON_DELIVERY"
	ProviderCard           Provider = "CARD"
)

// TxStatus represents the internal lifecycle of a payment transaction.
type TxStatus string

const (
	TxPending    TxStatus = "PENDING"
	TxProcessing TxStatus = "PROCESSING"
	TxCompleted  TxStatus = "COMPLETED"
	TxFailed     TxStatus = "FAILED"
	TxCancelled  TxStatus = "CANCELLED"
	TxRefunded   TxStatus = "REFUNDED"
)

// Terminal reports whether no further status change is expected.
func (s TxStatus) Terminal() bool {
	return s == TxCompleted || s == TxFailed || s == TxCancelled || s == TxRefunded
}

// PaymentTransaction is the provider-agnostic record of a payment attempt
// for an order.
type PaymentTransaction struct {
	ID                uuid.UUID   `json:"id"`
	OrderID           uuid.UUID   `json:"order_id"`
	CustomerID        uuid.UUID   `json:"customer_id"`
	Provider          Provider    `json:"provider"`
	ProviderRef       string      `json:"provider_ref,omitempty"`
	ProviderStatus    string      `json:"provider_status,omitempty"`
	Status            TxStatus    `json:"status"`
	Amount            float64     `json:"amount"`
	Currency          string      `json:"currency"`
	PhoneNumber       string      `json:"phone_number,omitempty"`
	Description       string      `json:"description,omitempty"`
	WebhookReceivedAt *time.Time  `json:"webhook_received_at,omitempty"`
	WebhookPayload    interface{} `json:"webhook_payload,omitempty"`
	IdempotencyKey    string      `json:"idempotency_key,omitempty"`
	RetryCount        int         `json:"retry_count"`
	LastError         string      `json:"last_error,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// ── Request/Response DTOs ─────────────────────────────────────────────────────

// InitiatePaymentRequest is the payload to start a new payment.
type InitiatePaymentRequest struct {
	Provider       string  `json:"provider"` // MTN_MOMO | AIRTEL_MONEY | CASH_ON_DELIVERY | CARD
	OrderID        string  `json:"order_id"`
	CustomerID     string  `json:"customer_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency,omitempty"` // defaults to ZMW
	PhoneNumber    string  `json:"phone_number,omitempty"`
	Description    string  `json:"description,omitempty"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
}

// WebhookPayload is the generic inbound webhook from a payment provider.
type WebhookPayload struct {
	Provider    string                 `json:"provider"`
	ExternalRef string                 `json:"external_ref"` // provider's transaction ID
	Status      string                 `json:"status"`       // provider-specific status string
	Amount      float64                `json:"amount"`
	Currency    string                 `json:"currency"`
	PhoneNumber string                 `json:"phone_number,omitempty"`
	RawPayload  map[string]interface{} `json:"raw_payload"`
}

// ProviderInitResponse is what a gateway adapter returns after initiating a payment.
type ProviderInitResponse struct {
	ProviderRef    string `json:"provider_ref"`    // external transaction ID
	ProviderStatus string `json:"provider_status"` // initial status from provider
	Message        string `json:"message,omitempty"`
}
