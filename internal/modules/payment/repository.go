package payment

import "context"

// Repository defines data access for payment transactions.
type Repository interface {
	Create(ctx context.Context, tx *PaymentTransaction) error
	GetByID(ctx context.Context, id string) (*PaymentTransaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*PaymentTransaction, error)
	GetByProviderRef(ctx context.Context, provider Provider, ref string) (*PaymentTransaction, error)
	ListByOrder(ctx context.Context, orderID string) ([]*PaymentTransaction, error)
	UpdateStatus(ctx context.Context, id string, status TxStatus, providerStatus string, lastError string) error
	UpdateProviderRef(ctx context.Context, id string, ref string, status string) error
	RecordWebhook(ctx context.Context, id string, payload interface{}) error
	IncrementRetry(ctx context.Context, id string, lastError string) error
}
