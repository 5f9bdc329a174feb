package user

import "context"

// Service defines the interface for user-related business logic.
type Service interface {
	RegisterUser(ctx context.Context, email, password, firstName, lastName string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error)

	AddFavourite(ctx context.Context, userID, vendorID string) error
	RemoveFavourite(ctx context.Context, userID, vendorID string) error
	ListFavourites(ctx context.Context, userID string) ([]string, error)
}
