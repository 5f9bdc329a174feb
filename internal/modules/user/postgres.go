package user

import (
	"context"
	"database/sql"
	"time"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone)
	return err
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, phone, created_at, updated_at
		FROM users WHERE email = $1`, email))
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, first_name, last_name, phone, created_at, updated_at
		FROM users WHERE id = $1`, id))
}

func (r *postgresRepository) UpdateUser(ctx context.Context, u *User) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET first_name=$1, last_name=$2, phone=$3, updated_at=$4
		WHERE id=$5`,
		u.FirstName, u.LastName, u.Phone, time.Now(), u.ID)
	return err
}

func (r *postgresRepository) AddFavourite(ctx context.Context, userID, vendorID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_favourites (user_id, vendor_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, vendor_id) DO NOTHING`, userID, vendorID)
	return err
}

func (r *postgresRepository) RemoveFavourite(ctx context.Context, userID, vendorID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM user_favourites WHERE user_id=$1 AND vendor_id=$2`, userID, vendorID)
	return err
}

func (r *postgresRepository) ListFavourites(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT vendor_id FROM user_favourites WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendorIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		vendorIDs = append(vendorIDs, id)
	}
	return vendorIDs, rows.Err()
}

func (r *postgresRepository) scan(row *sql.Row) (*User, error) {
	u := &User{}
	var firstName, lastName, phone sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &firstName, &lastName, &phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.Phone = phone.String
	return u, nil
}
