package order

import "context"

// Repository defines data access for orders.
type Repository interface {
	// CreateOrder persists a new order and its items atomically in a transaction.
	CreateOrder(ctx context.Context, o *Order) error

	// GetOrderByID retrieves an order with its items by UUID.
	GetOrderByID(ctx context.Context, id string) (*Order, error)

	// GetOrderByNumber retrieves an order by its human-readable order number.
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// GetByIdempotencyKey retrieves the order created for a given client
	// request id, or sql.ErrNoRows if none exists.
	GetByIdempotencyKey(ctx context.Context, key string) (*Order, error)

	// ListByCustomer returns all orders placed by a customer, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*Order, error)

	// ListByVendor returns all orders for a vendor, optionally filtered by status.
	ListByVendor(ctx context.Context, vendorID string, status string) ([]*Order, error)

	// UpdateStatus advances an order to a new status.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// MarkPrepared sets the prepared flag on the given item ids of an order.
	MarkPrepared(ctx context.Context, orderID string, itemIDs []string) error
}
