package cart

import "context"

// Repository defines storage for active carts.
type Repository interface {
	// Get returns the customer's cart, or an empty cart if none is stored.
	Get(ctx context.Context, customerID string) (*Cart, error)

	// Save persists the cart, refreshing its session TTL.
	Save(ctx context.Context, c *Cart) error

	// Delete removes the customer's cart entirely.
	Delete(ctx context.Context, customerID string) error
}
