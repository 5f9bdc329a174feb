package address

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryAddress is a customer's resolved delivery location.
type DeliveryAddress struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Address    string    `json:"address"`
	PostCode   string    `json:"post_code,omitempty"`
	City       string    `json:"city"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateAddressRequest is the payload for saving a new delivery address.
type CreateAddressRequest struct {
	Address   string  `json:"address"`
	PostCode  string  `json:"post_code,omitempty"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsDefault bool    `json:"is_default,omitempty"`
}
