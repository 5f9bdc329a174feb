package payment

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	txs map[string]*PaymentTransaction
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{txs: make(map[string]*PaymentTransaction)}
}

func (r *memoryRepo) Create(_ context.Context, tx *PaymentTransaction) error {
	for _, existing := range r.txs {
		if tx.IdempotencyKey != "" && existing.IdempotencyKey == tx.IdempotencyKey {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	cp := *tx
	r.txs[tx.ID.String()] = &cp
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*PaymentTransaction, error) {
	tx, ok := r.txs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return tx, nil
}

func (r *memoryRepo) GetByIdempotencyKey(_ context.Context, key string) (*PaymentTransaction, error) {
	for _, tx := range r.txs {
		if tx.IdempotencyKey == key {
			return tx, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryRepo) GetByProviderRef(_ context.Context, provider Provider, ref string) (*PaymentTransaction, error) {
	for _, tx := range r.txs {
		if tx.Provider == provider && tx.ProviderRef == ref {
			return tx, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryRepo) ListByOrder(_ context.Context, orderID string) ([]*PaymentTransaction, error) {
	var out []*PaymentTransaction
	for _, tx := range r.txs {
		if tx.OrderID.String() == orderID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id string, status TxStatus, providerStatus string, lastError string) error {
	tx, ok := r.txs[id]
	if !ok {
		return sql.ErrNoRows
	}
	tx.Status = status
	if providerStatus != "" {
		tx.ProviderStatus = providerStatus
	}
	if lastError != "" {
		tx.LastError = lastError
	}
	return nil
}

func (r *memoryRepo) UpdateProviderRef(_ context.Context, id string, ref string, status string) error {
	tx, ok := r.txs[id]
	if !ok {
		return sql.ErrNoRows
	}
	tx.ProviderRef = ref
	tx.ProviderStatus = status
	return nil
}

func (r *memoryRepo) RecordWebhook(_ context.Context, id string, payload interface{}) error {
	tx, ok := r.txs[id]
	if !ok {
		return sql.ErrNoRows
	}
	tx.WebhookPayload = payload
	return nil
}

func (r *memoryRepo) IncrementRetry(_ context.Context, id string, lastError string) error {
	tx, ok := r.txs[id]
	if !ok {
		return sql.ErrNoRows
	}
	tx.RetryCount++
	tx.LastError = lastError
	return nil
}

// scriptedGateway plays back canned gateway responses.
type scriptedGateway struct {
	initStatus   string
	verifyStatus string
	initErr      error
}

func (g *scriptedGateway) Initiate(_ context.Context, _ *InitiatePaymentRequest) (*ProviderInitResponse, error) {
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &ProviderInitResponse{ProviderRef: "ext-123", ProviderStatus: g.initStatus}, nil
}

func (g *scriptedGateway) Verify(_ context.Context, _ string) (*ProviderInitResponse, error) {
	return &ProviderInitResponse{ProviderRef: "ext-123", ProviderStatus: g.verifyStatus}, nil
}

func (g *scriptedGateway) Refund(_ context.Context, _ string, _ float64) (*ProviderInitResponse, error) {
	return &ProviderInitResponse{ProviderRef: "ext-123", ProviderStatus: "REFUNDED"}, nil
}

func momoRequest() InitiatePaymentRequest {
	return InitiatePaymentRequest{
		Provider:       "MTN_MOMO",
		OrderID:        uuid.NewString(),
		CustomerID:     uuid.NewString(),
		Amount:         125.00,
		PhoneNumber:    "0966000000",
		IdempotencyKey: uuid.NewString(),
	}
}

func TestInitiate_MobileMoney(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, GatewayRegistry{
		ProviderMTNMomo: &scriptedGateway{initStatus: "PENDING"},
	})

	tx, err := svc.Initiate(context.Background(), momoRequest())
	require.NoError(t, err)

	assert.Equal(t, TxPending, tx.Status)
	assert.Equal(t, "ext-123", tx.ProviderRef)
	assert.Equal(t, "ZMW", tx.Currency)
}

func TestInitiate_CashOnDeliveryCompletesImmediately(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, GatewayRegistry{})

	req := momoRequest()
	req.Provider = "CASH_ON_DELIVERY"

	tx, err := svc.Initiate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, TxCompleted, tx.Status)
}

func TestInitiate_IdempotentReplay(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, GatewayRegistry{
		ProviderMTNMomo: &scriptedGateway{initStatus: "PENDING"},
	})
	ctx := context.Background()

	req := momoRequest()
	first, err := svc.Initiate(ctx, req)
	require.NoError(t, err)

	second, err := svc.Initiate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.txs, 1)
}

func TestInitiate_GatewayFailureRecorded(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, GatewayRegistry{
		ProviderMTNMomo: &scriptedGateway{initErr: errors.New("provider unreachable")},
	})

	req := momoRequest()
	_, err := svc.Initiate(context.Background(), req)
	require.Error(t, err)

	// The transaction was persisted before the gateway call and marked failed.
	stored, err := repo.GetByIdempotencyKey(context.Background(), req.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, TxFailed, stored.Status)
	assert.Contains(t, stored.LastError, "provider unreachable")
}

func TestInitiate_Validation(t *testing.T) {
	svc := NewService(newMemoryRepo(), GatewayRegistry{})
	ctx := context.Background()

	req := momoRequest()
	req.Amount = 0
	_, err := svc.Initiate(ctx, req)
	assert.Error(t, err)

	req = momoRequest()
	req.OrderID = ""
	_, err = svc.Initiate(ctx, req)
	assert.Error(t, err)
}

func TestVerify_UpdatesFromProvider(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, GatewayRegistry{
		ProviderMTNMomo: &scriptedGateway{initStatus: "PENDING", verifyStatus: "SUCCESSFUL"},
	})
	ctx := context.Background()

	tx, err := svc.Initiate(ctx, momoRequest())
	require.NoError(t, err)
	require.Equal(t, TxPending, tx.Status)

	verified, err := svc.Verify(ctx, tx.ID.String())
	require.NoError(t, err)
	assert.Equal(t, TxCompleted, verified.Status)
}

func TestVerify_TerminalStateShortCircuits(t *testing.T) {
	repo := newMemoryRepo()
	// verifyStatus would flip the status if the gateway were consulted
	svc := NewService(repo, GatewayRegistry{
		ProviderMTNMomo: &scriptedGateway{initStatus: "SUCCESSFUL", verifyStatus: "FAILED"},
	})
	ctx := context.Background()

	tx, err := svc.Initiate(ctx, momoRequest())
	require.NoError(t, err)
	require.Equal(t, TxCompleted, tx.Status)

	verified, err := svc.Verify(ctx, tx.ID.String())
	require.NoError(t, err)
	assert.Equal(t, TxCompleted, verified.Status)
}

func TestHandleWebhook_UpdatesTransaction(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, GatewayRegistry{
		ProviderMTNMomo: &scriptedGateway{initStatus: "PENDING"},
	})
	ctx := context.Background()

	tx, err := svc.Initiate(ctx, momoRequest())
	require.NoError(t, err)

	updated, err := svc.HandleWebhook(ctx, WebhookPayload{
		Provider:    "MTN_MOMO",
		ExternalRef: "ext-123",
		Status:      "SUCCESSFUL",
		RawPayload:  map[string]interface{}{"financialTransactionId": "9876"},
	})
	require.NoError(t, err)
	assert.Equal(t, tx.ID, updated.ID)
	assert.Equal(t, TxCompleted, updated.Status)
	assert.NotNil(t, updated.WebhookPayload)
}

func TestHandleWebhook_UnknownRef(t *testing.T) {
	svc := NewService(newMemoryRepo(), GatewayRegistry{})

	_, err := svc.HandleWebhook(context.Background(), WebhookPayload{
		Provider:    "MTN_MOMO",
		ExternalRef: "ghost",
		Status:      "SUCCESSFUL",
	})
	assert.Error(t, err)
}

func TestRefund_OnlyCompleted(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, GatewayRegistry{
		ProviderMTNMomo: &scriptedGateway{initStatus: "PENDING"},
	})
	ctx := context.Background()

	tx, err := svc.Initiate(ctx, momoRequest())
	require.NoError(t, err)

	_, err = svc.Refund(ctx, tx.ID.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COMPLETED")
}

func TestRefund_Completed(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, GatewayRegistry{
		ProviderMTNMomo: &scriptedGateway{initStatus: "SUCCESSFUL"},
	})
	ctx := context.Background()

	tx, err := svc.Initiate(ctx, momoRequest())
	require.NoError(t, err)
	require.Equal(t, TxCompleted, tx.Status)

	refunded, err := svc.Refund(ctx, tx.ID.String())
	require.NoError(t, err)
	assert.Equal(t, TxRefunded, refunded.Status)
}

func TestNormaliseStatus(t *testing.T) {
	cases := []struct {
		provider Provider
		raw      string
		want     TxStatus
	}{
		{ProviderMTNMomo, "SUCCESSFUL", TxCompleted},
		{ProviderMTNMomo, "successful", TxCompleted},
		{ProviderMTNMomo, "FAILED", TxFailed},
		{ProviderMTNMomo, "REJECTED", TxCancelled},
		{ProviderMTNMomo, "TIMEOUT", TxCancelled},
		{ProviderMTNMomo, "PENDING", TxPending},
		{ProviderMTNMomo, "SOMETHING_NEW", TxProcessing},
		{ProviderAirtel, "TS", TxCompleted},
		{ProviderAirtel, "TF", TxFailed},
		{ProviderAirtel, "TC", TxCancelled},
		{ProviderAirtel, "DP", TxProcessing},
		{Provider("UNKNOWN"), "ANYTHING", TxProcessing},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormaliseStatus(tc.provider, tc.raw), "%s/%s", tc.provider, tc.raw)
	}
}
