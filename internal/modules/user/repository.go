package user

import "context"

// Repository defines data access for users and their favourite vendors.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error

	AddFavourite(ctx context.Context, userID, vendorID string) error
	RemoveFavourite(ctx context.Context, userID, vendorID string) error
	ListFavourites(ctx context.Context, userID string) ([]string, error)
}
