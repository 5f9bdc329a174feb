package payment

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL payment repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, tx *PaymentTransaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_transactions
		  (id, order_id, customer_id, provider, provider_ref, provider_status,
		   status, amount, currency, phone_number, description, idempotency_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		tx.ID, tx.OrderID, tx.CustomerID, tx.Provider,
		nilIfEmpty(tx.ProviderRef), nilIfEmpty(tx.ProviderStatus),
		tx.Status, tx.Amount, tx.Currency,
		nilIfEmpty(tx.PhoneNumber), nilIfEmpty(tx.Description),
		nilIfEmpty(tx.IdempotencyKey))
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*PaymentTransaction, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectSQL+" WHERE id=$1", id))
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, key string) (*PaymentTransaction, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectSQL+" WHERE idempotency_key=$1", key))
}

func (r *postgresRepo) GetByProviderRef(ctx context.Context, provider Provider, ref string) (*PaymentTransaction, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectSQL+" WHERE provider=$1 AND provider_ref=$2", provider, ref))
}

func (r *postgresRepo) ListByOrder(ctx context.Context, orderID string) ([]*PaymentTransaction, error) {
	rows, err := r.db.QueryContext(ctx, selectSQL+" WHERE order_id=$1 ORDER BY created_at DESC", orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanRows(rows)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status TxStatus, providerStatus string, lastError string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_transactions
		SET status=$1, provider_status=COALESCE(NULLIF($2,''), provider_status),
		    last_error=COALESCE(NULLIF($3,''), last_error), updated_at=$4
		WHERE id=$5`,
		status, providerStatus, lastError, time.Now(), id)
	return err
}

func (r *postgresRepo) UpdateProviderRef(ctx context.Context, id string, ref string, status string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_transactions SET provider_ref=$1, provider_status=$2, updated_at=$3 WHERE id=$4`,
		ref, status, time.Now(), id)
	return err
}

func (r *postgresRepo) RecordWebhook(ctx context.Context, id string, payload interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = r.db.ExecContext(ctx, `
		UPDATE payment_transactions SET webhook_received_at=$1, webhook_payload=$2, updated_at=$3 WHERE id=$4`,
		now, b, now, id)
	return err
}

func (r *postgresRepo) IncrementRetry(ctx context.Context, id string, lastError string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE payment_transactions SET retry_count=retry_count+1, last_error=$1, updated_at=$2 WHERE id=$3`,
		lastError, time.Now(), id)
	return err
}

// ── Scanner ───────────────────────────────────────────────────────────────────

const selectSQL = `
	SELECT id, order_id, customer_id, provider, provider_ref, provider_status,
	       status, amount, currency, phone_number, description,
	       webhook_received_at, webhook_payload, idempotency_key, retry_count,
	       last_error, created_at, updated_at
	FROM payment_transactions`

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*PaymentTransaction, error) {
	tx := &PaymentTransaction{}
	var providerRef, providerStatus, phone, desc, iKey, lastErr sql.NullString
	var webhookAt sql.NullTime
	var webhookPayload []byte

	err := row.Scan(
		&tx.ID, &tx.OrderID, &tx.CustomerID,
		&tx.Provider, &providerRef, &providerStatus,
		&tx.Status, &tx.Amount, &tx.Currency,
		&phone, &desc, &webhookAt, &webhookPayload,
		&iKey, &tx.RetryCount, &lastErr,
		&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return nil, err
	}
	tx.ProviderRef = providerRef.String
	tx.ProviderStatus = providerStatus.String
	tx.PhoneNumber = phone.String
	tx.Description = desc.String
	tx.IdempotencyKey = iKey.String
	tx.LastError = lastErr.String
	if webhookAt.Valid {
		t := webhookAt.Time
		tx.WebhookReceivedAt = &t
	}
	if len(webhookPayload) > 0 {
		var p map[string]interface{}
		if err := json.Unmarshal(webhookPayload, &p); err == nil {
			tx.WebhookPayload = p
		}
	}
	return tx, nil
}

func (r *postgresRepo) scanRows(rows *sql.Rows) ([]*PaymentTransaction, error) {
	var txs []*PaymentTransaction
	for rows.Next() {
		tx, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
