package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Structural invariant violations surfaced to callers.
var (
	// ErrVendorMismatch is returned when an item belongs to a different vendor
	// than the cart's current one. The customer must start a new cart.
	ErrVendorMismatch = errors.New("cart already holds items from another vendor")

	// ErrItemNotFound is returned when a product id has no line in the cart.
	ErrItemNotFound = errors.New("item not found in cart")
)

// ProductChecker validates cart lines against a vendor's live menu.
// Implemented by the vendor module.
type ProductChecker interface {
	CheckProduct(ctx context.Context, vendorID, productID string) (price float64, available bool, err error)
}

// Service defines the cart business logic.
type Service interface {
	// Get returns the customer's active cart (empty if none exists).
	Get(ctx context.Context, customerID string) (*Cart, error)

	// AddItem adds a product line. Adding an existing product id increments
	// its quantity instead of duplicating the line. The first item pins the
	// cart's vendor; a differing vendor yields ErrVendorMismatch.
	AddItem(ctx context.Context, customerID string, req AddItemRequest) (*Cart, error)

	// SetQuantity changes a line's quantity. Zero or below removes the line.
	SetQuantity(ctx context.Context, customerID, productID string, quantity int) (*Cart, error)

	// RemoveItem deletes a line outright.
	RemoveItem(ctx context.Context, customerID, productID string) (*Cart, error)

	// Clear empties the cart's items and vendor context.
	Clear(ctx context.Context, customerID string) error

	// Sync merges a batch of locally-held items into the server cart,
	// sequentially, validating each against the vendor's live menu. The run
	// halts at the first failure; prior items stay merged.
	Sync(ctx context.Context, customerID string, req SyncRequest) (*SyncResult, error)
}

type service struct {
	repo     Repository
	products ProductChecker
}

// NewService creates a new cart service.
func NewService(repo Repository, products ProductChecker) Service {
	return &service{repo: repo, products: products}
}

func (s *service) Get(ctx context.Context, customerID string) (*Cart, error) {
	return s.repo.Get(ctx, customerID)
}

func (s *service) AddItem(ctx context.Context, customerID string, req AddItemRequest) (*Cart, error) {
	if req.ProductID == "" {
		return nil, fmt.Errorf("product_id is required")
	}
	if req.Vendor.VendorID == "" {
		return nil, fmt.Errorf("vendor.vendor_id is required")
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative")
	}

	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if err := s.addLine(c, req); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// addLine merges one item into the cart in memory, enforcing the
// single-vendor invariant.
func (s *service) addLine(c *Cart, req AddItemRequest) error {
	if c.Vendor != nil && len(c.Items) > 0 && c.Vendor.VendorID != req.Vendor.VendorID {
		return ErrVendorMismatch
	}

	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}

	if existing := c.find(req.ProductID); existing != nil {
		existing.Quantity += qty
	} else {
		c.Items = append(c.Items, &CartItem{
			ProductID: req.ProductID,
			Title:     req.Title,
			Price:     req.Price,
			Image:     req.Image,
			Quantity:  qty,
		})
	}

	if c.Vendor == nil {
		v := req.Vendor
		c.Vendor = &v
	}
	return nil
}

func (s *service) SetQuantity(ctx context.Context, customerID, productID string, quantity int) (*Cart, error) {
	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	item := c.find(productID)
	if item == nil {
		return nil, ErrItemNotFound
	}

	// Decrementing to zero removes the line. No silent clamp to 1.
	if quantity <= 0 {
		c.remove(productID)
	} else {
		item.Quantity = quantity
	}

	if len(c.Items) == 0 {
		c.Vendor = nil
	}

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) RemoveItem(ctx context.Context, customerID, productID string) (*Cart, error) {
	return s.SetQuantity(ctx, customerID, productID, 0)
}

func (s *service) Clear(ctx context.Context, customerID string) error {
	return s.repo.Delete(ctx, customerID)
}

func (s *service) Sync(ctx context.Context, customerID string, req SyncRequest) (*SyncResult, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("nothing to sync")
	}
	if req.Vendor.VendorID == "" {
		return nil, fmt.Errorf("vendor.vendor_id is required")
	}

	result := &SyncResult{}
	failed := false

	for _, item := range req.Items {
		if failed {
			result.Results = append(result.Results, SyncItemResult{ProductID: item.ProductID, Status: SyncSkipped})
			result.Skipped++
			continue
		}

		if err := s.syncOne(ctx, customerID, req.Vendor, item); err != nil {
			result.Results = append(result.Results, SyncItemResult{
				ProductID: item.ProductID,
				Status:    SyncFailed,
				Error:     err.Error(),
			})
			result.Failed++
			failed = true
			continue
		}

		result.Results = append(result.Results, SyncItemResult{ProductID: item.ProductID, Status: SyncOK})
		result.Synced++
	}

	return result, nil
}

// syncOne validates a single item against the vendor's live menu and merges
// it into the stored cart. The live price is authoritative; a stale client
// price is overwritten rather than rejected.
func (s *service) syncOne(ctx context.Context, customerID string, vendor VendorContext, item AddItemRequest) error {
	price, available, err := s.products.CheckProduct(ctx, vendor.VendorID, item.ProductID)
	if err != nil {
		return fmt.Errorf("product %s not found on this vendor's menu", item.ProductID)
	}
	if !available {
		return fmt.Errorf("product %s is currently unavailable", item.ProductID)
	}

	c, err := s.repo.Get(ctx, customerID)
	if err != nil {
		return err
	}

	item.Vendor = vendor
	item.Price = decimal.NewFromFloat(price)
	if err := s.addLine(c, item); err != nil {
		return err
	}

	// Saving per item keeps earlier lines merged even when a later one
	// fails: at-least-once, non-atomic, same as a sequential client loop.
	return s.repo.Save(ctx, c)
}
