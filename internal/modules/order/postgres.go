package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL order repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const orderColumns = `id, order_number, customer_id, vendor_id, status, fulfilment,
	subtotal, delivery_fee, service_charge, tip, total, currency,
	delivery_address, pickup_instructions, scheduled_for, idempotency_key,
	created_at, updated_at`

// CreateOrder inserts the order and all its items inside a single transaction.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, order_number, customer_id, vendor_id, status, fulfilment,
		   subtotal, delivery_fee, service_charge, tip, total, currency,
		   delivery_address, pickup_instructions, scheduled_for, idempotency_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.ID, o.OrderNumber, o.CustomerID, o.VendorID, o.Status, o.Fulfilment,
		o.Subtotal, o.DeliveryFee, o.ServiceCharge, o.Tip, o.Total, o.Currency,
		nullableJSON(o.DeliveryAddress), o.PickupInstructions, o.ScheduledFor, o.IdempotencyKey)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items
			  (id, order_id, product_id, title, quantity, unit_price, line_total, prepared)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			item.ID, o.ID, item.ProductID, item.Title,
			item.Quantity, item.UnitPrice, item.LineTotal, item.Prepared)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID.String())
	return o, err
}

func (r *postgresRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number=$1`, orderNumber))
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID.String())
	return o, err
}

func (r *postgresRepo) GetByIdempotencyKey(ctx context.Context, key string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE idempotency_key=$1`, key))
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, o.ID.String())
	return o, err
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]*Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
}

func (r *postgresRepo) ListByVendor(ctx context.Context, vendorID string, status string) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE vendor_id=$1`
	args := []interface{}{vendorID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	return r.queryOrders(ctx, query, args...)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status=$1, updated_at=$2 WHERE id=$3`,
		status, time.Now(), id)
	return err
}

func (r *postgresRepo) MarkPrepared(ctx context.Context, orderID string, itemIDs []string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE order_items SET prepared=true, updated_at=$1
		WHERE order_id=$2 AND id = ANY($3)`,
		time.Now(), orderID, pq.Array(itemIDs))
	return err
}

// ── helpers ──────────────────────────────────────────────────────────────────

func scanOrder(row *sql.Row) (*Order, error) {
	o := &Order{}
	var deliveryAddr []byte
	var pickupInstructions, idempotencyKey sql.NullString
	var scheduledFor sql.NullTime
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.VendorID, &o.Status, &o.Fulfilment,
		&o.Subtotal, &o.DeliveryFee, &o.ServiceCharge, &o.Tip, &o.Total, &o.Currency,
		&deliveryAddr, &pickupInstructions, &scheduledFor, &idempotencyKey,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.DeliveryAddress = deliveryAddr
	o.PickupInstructions = pickupInstructions.String
	o.IdempotencyKey = idempotencyKey.String
	if scheduledFor.Valid {
		t := scheduledFor.Time
		o.ScheduledFor = &t
	}
	return o, nil
}

func (r *postgresRepo) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o := &Order{}
		var deliveryAddr []byte
		var pickupInstructions, idempotencyKey sql.NullString
		var scheduledFor sql.NullTime
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.CustomerID, &o.VendorID, &o.Status, &o.Fulfilment,
			&o.Subtotal, &o.DeliveryFee, &o.ServiceCharge, &o.Tip, &o.Total, &o.Currency,
			&deliveryAddr, &pickupInstructions, &scheduledFor, &idempotencyKey,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.DeliveryAddress = deliveryAddr
		o.PickupInstructions = pickupInstructions.String
		o.IdempotencyKey = idempotencyKey.String
		if scheduledFor.Valid {
			t := scheduledFor.Time
			o.ScheduledFor = &t
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) listItems(ctx context.Context, orderID string) ([]*OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, title, quantity, unit_price, line_total, prepared, created_at, updated_at
		FROM order_items WHERE order_id=$1 ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*OrderItem
	for rows.Next() {
		item := &OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Title,
			&item.Quantity, &item.UnitPrice, &item.LineTotal, &item.Prepared,
			&item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
