package user

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepo struct {
	users      map[string]*User
	favourites map[string]map[string]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:      make(map[string]*User),
		favourites: make(map[string]map[string]bool),
	}
}

func (r *memoryRepo) CreateUser(_ context.Context, u *User) error {
	r.users[u.ID.String()] = u
	return nil
}

func (r *memoryRepo) GetUserByID(_ context.Context, id string) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

func (r *memoryRepo) GetUserByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memoryRepo) UpdateUser(_ context.Context, u *User) error {
	r.users[u.ID.String()] = u
	return nil
}

func (r *memoryRepo) AddFavourite(_ context.Context, userID, vendorID string) error {
	if r.favourites[userID] == nil {
		r.favourites[userID] = make(map[string]bool)
	}
	r.favourites[userID][vendorID] = true
	return nil
}

func (r *memoryRepo) RemoveFavourite(_ context.Context, userID, vendorID string) error {
	delete(r.favourites[userID], vendorID)
	return nil
}

func (r *memoryRepo) ListFavourites(_ context.Context, userID string) ([]string, error) {
	var out []string
	for id := range r.favourites[userID] {
		out = append(out, id)
	}
	return out, nil
}

func TestRegisterUser(t *testing.T) {
	svc := NewService(newMemoryRepo())

	u, err := svc.RegisterUser(context.Background(), "banda@example.com", "s3cretpass", "Chanda", "Banda")
	require.NoError(t, err)

	assert.Equal(t, "banda@example.com", u.Email)
	assert.NotEqual(t, "s3cretpass", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cretpass")))
}

func TestRegisterUser_Validation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.RegisterUser(ctx, "", "s3cretpass", "", "")
	assert.Error(t, err)

	_, err = svc.RegisterUser(ctx, "banda@example.com", "short", "", "")
	assert.Error(t, err)
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	u, err := svc.RegisterUser(ctx, "banda@example.com", "s3cretpass", "Chanda", "Banda")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, u.ID.String(), UpdateProfileRequest{Phone: "0966000000"})
	require.NoError(t, err)

	assert.Equal(t, "Chanda", updated.FirstName)
	assert.Equal(t, "0966000000", updated.Phone)
}

func TestFavourites(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	u, err := svc.RegisterUser(ctx, "banda@example.com", "s3cretpass", "", "")
	require.NoError(t, err)

	vendorID := uuid.NewString()
	require.NoError(t, svc.AddFavourite(ctx, u.ID.String(), vendorID))

	favs, err := svc.ListFavourites(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []string{vendorID}, favs)

	require.NoError(t, svc.RemoveFavourite(ctx, u.ID.String(), vendorID))
	favs, err = svc.ListFavourites(ctx, u.ID.String())
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestAddFavourite_InvalidVendorID(t *testing.T) {
	svc := NewService(newMemoryRepo())

	err := svc.AddFavourite(context.Background(), uuid.NewString(), "not-a-uuid")
	assert.Error(t, err)
}
