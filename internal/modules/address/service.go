package address

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// ErrNotOwned is returned when an address exists but belongs to another customer.
var ErrNotOwned = errors.New("address does not belong to this customer")

// postCodeRe accepts 4-8 alphanumerics with one optional internal space.
var postCodeRe = regexp.MustCompile(`^[A-Za-z0-9]{2,4} ?[A-Za-z0-9]{2,4}$`)

// Service defines delivery-address business logic.
type Service interface {
	CreateAddress(ctx context.Context, customerID string, req CreateAddressRequest) (*DeliveryAddress, error)
	GetAddress(ctx context.Context, customerID, id string) (*DeliveryAddress, error)
	GetDefault(ctx context.Context, customerID string) (*DeliveryAddress, error)
	ListAddresses(ctx context.Context, customerID string) ([]*DeliveryAddress, error)
	SetDefault(ctx context.Context, customerID, id string) error
	DeleteAddress(ctx context.Context, customerID, id string) error
}

type service struct {
	repo Repository
}

// NewService creates a new address service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateAddress(ctx context.Context, customerID string, req CreateAddressRequest) (*DeliveryAddress, error) {
	if req.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if req.City == "" {
		return nil, fmt.Errorf("city is required")
	}
	if req.PostCode != "" && !postCodeRe.MatchString(req.PostCode) {
		return nil, fmt.Errorf("invalid postcode: %s", req.PostCode)
	}

	cid, err := uuid.Parse(customerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id: %w", err)
	}

	a := &DeliveryAddress{
		ID:         uuid.New(),
		CustomerID: cid,
		Address:    req.Address,
		PostCode:   req.PostCode,
		City:       req.City,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	// First address, or an explicit request, becomes the default.
	existing, err := s.repo.ListByCustomer(ctx, customerID)
	if err == nil && (req.IsDefault || len(existing) == 1) {
		if err := s.repo.SetDefault(ctx, customerID, a.ID.String()); err != nil {
			return nil, err
		}
		a.IsDefault = true
	}

	return a, nil
}

func (s *service) GetAddress(ctx context.Context, customerID, id string) (*DeliveryAddress, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("address not found: %w", err)
	}
	if a.CustomerID.String() != customerID {
		return nil, ErrNotOwned
	}
	return a, nil
}

func (s *service) GetDefault(ctx context.Context, customerID string) (*DeliveryAddress, error) {
	return s.repo.GetDefault(ctx, customerID)
}

func (s *service) ListAddresses(ctx context.Context, customerID string) ([]*DeliveryAddress, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *service) SetDefault(ctx context.Context, customerID, id string) error {
	if _, err := s.GetAddress(ctx, customerID, id); err != nil {
		return err
	}
	return s.repo.SetDefault(ctx, customerID, id)
}

func (s *service) DeleteAddress(ctx context.Context, customerID, id string) error {
	if _, err := s.GetAddress(ctx, customerID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
