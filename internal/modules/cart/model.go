package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a single product line in a customer's active cart.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

// VendorContext pins a cart to the single vendor its items belong to.
// It is set by the first item added and cleared with the cart.
type VendorContext struct {
	VendorID    string `json:"vendor_id"`
	VendorName  string `json:"vendor_name"`
	CoverPhoto  string `json:"cover_photo,omitempty"`
	Description string `json:"description,omitempty"`
}

// Cart is the server-held active cart for one customer.
type Cart struct {
	CustomerID string         `json:"customer_id"`
	Vendor     *VendorContext `json:"vendor,omitempty"`
	Items      []*CartItem    `json:"items"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TotalItems returns the sum of all line quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice returns the sum of price times quantity over all lines, exact
// to the cent.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2)
}

// find returns the line with the given product id, or nil.
func (c *Cart) find(productID string) *CartItem {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item
		}
	}
	return nil
}

// remove deletes the line with the given product id, if present.
func (c *Cart) remove(productID string) {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// ── Sync ──────────────────────────────────────────────────────────────────────

// SyncStatus is the outcome of one item in a sync run.
type SyncStatus string

const (
	SyncOK      SyncStatus = "SYNCED"
	SyncFailed  SyncStatus = "FAILED"
	SyncSkipped SyncStatus = "SKIPPED"
)

// SyncItemResult records what happened to one item during a sync run.
type SyncItemResult struct {
	ProductID string     `json:"product_id"`
	Status    SyncStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// SyncResult is the per-item accounting of a sequential sync run. The run
// halts at the first failure; items after it are reported as skipped so the
// caller can resume from the failed item.
type SyncResult struct {
	Results []SyncItemResult `json:"results"`
	Synced  int              `json:"synced"`
	Failed  int              `json:"failed"`
	Skipped int              `json:"skipped"`
}

// Ok reports whether every item synced.
func (r *SyncResult) Ok() bool { return r.Failed == 0 && r.Skipped == 0 }

// ── Request DTOs ──────────────────────────────────────────────────────────────

// AddItemRequest is the payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity,omitempty"` // defaults to 1
	Vendor    VendorContext   `json:"vendor"`
}

// SetQuantityRequest is the payload for changing a line's quantity.
// A quantity of zero (or below) removes the line.
type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SyncRequest pushes a batch of locally-held items into the server cart.
type SyncRequest struct {
	Vendor VendorContext    `json:"vendor"`
	Items  []AddItemRequest `json:"items"`
}
