package address

import (
	"context"
	"database/sql"
	"fmt"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL address repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const addressColumns = `id, customer_id, address, post_code, city, latitude, longitude, is_default, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, a *DeliveryAddress) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO delivery_addresses
		  (id, customer_id, address, post_code, city, latitude, longitude, is_default)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.CustomerID, a.Address, a.PostCode, a.City, a.Latitude, a.Longitude, a.IsDefault)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*DeliveryAddress, error) {
	return scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM delivery_addresses WHERE id=$1`, id))
}

func (r *postgresRepo) GetDefault(ctx context.Context, customerID string) (*DeliveryAddress, error) {
	return scanAddress(r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM delivery_addresses WHERE customer_id=$1 AND is_default=true`, customerID))
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]*DeliveryAddress, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM delivery_addresses WHERE customer_id=$1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []*DeliveryAddress
	for rows.Next() {
		a := &DeliveryAddress{}
		var postCode sql.NullString
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Address, &postCode, &a.City,
			&a.Latitude, &a.Longitude, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.PostCode = postCode.String
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM delivery_addresses WHERE id=$1`, id)
	return err
}

// SetDefault flips the default flag inside a single transaction so the
// customer never observes zero or two defaults.
func (r *postgresRepo) SetDefault(ctx context.Context, customerID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE delivery_addresses SET is_default=false WHERE customer_id=$1 AND is_default=true`,
		customerID); err != nil {
		return fmt.Errorf("clear default: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE delivery_addresses SET is_default=true WHERE id=$1 AND customer_id=$2`,
		id, customerID); err != nil {
		return fmt.Errorf("set default: %w", err)
	}

	return tx.Commit()
}

func scanAddress(row *sql.Row) (*DeliveryAddress, error) {
	a := &DeliveryAddress{}
	var postCode sql.NullString
	err := row.Scan(&a.ID, &a.CustomerID, &a.Address, &postCode, &a.City,
		&a.Latitude, &a.Longitude, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.PostCode = postCode.String
	return a, nil
}
