package address

import "context"

// Repository defines data access for delivery addresses.
type Repository interface {
	Create(ctx context.Context, a *DeliveryAddress) error
	GetByID(ctx context.Context, id string) (*DeliveryAddress, error)
	GetDefault(ctx context.Context, customerID string) (*DeliveryAddress, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*DeliveryAddress, error)
	Delete(ctx context.Context, id string) error

	// SetDefault atomically clears the customer's previous default and marks
	// the given address as default, in one transaction.
	SetDefault(ctx context.Context, customerID, id string) error
}
