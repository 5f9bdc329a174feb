package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kasamaeats/kasama-backend/internal/events"
)

// Checklist invariant violations surfaced to callers.
var (
	// ErrEmptyChecklist is returned when a vendor submits a processing
	// checklist with no items marked.
	ErrEmptyChecklist = errors.New("at least one item must be marked prepared")

	// ErrUnknownItem is returned when a checklist references an item that is
	// not part of the order.
	ErrUnknownItem = errors.New("checklist references an item not on this order")
)

// Service defines the order management business logic.
type Service interface {
	// Create persists a fully-built order (assembled by checkout) and
	// announces it to the vendor.
	Create(ctx context.Context, o *Order) (*Order, error)

	// GetOrder retrieves a full order with its items by UUID.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// GetOrderByNumber retrieves an order by its human-readable number.
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// GetByIdempotencyKey returns the order created for a client request id,
	// or nil if the key has not been used.
	GetByIdempotencyKey(ctx context.Context, key string) (*Order, error)

	// ListCustomerOrders returns all orders placed by a customer.
	ListCustomerOrders(ctx context.Context, customerID string) ([]*Order, error)

	// ListVendorOrders returns all orders for a vendor, optionally filtered by status.
	ListVendorOrders(ctx context.Context, vendorID string, status string) ([]*Order, error)

	// UpdateStatus advances an order to a new lifecycle status.
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error)

	// CancelOrder cancels a PLACED or ACCEPTED order.
	CancelOrder(ctx context.Context, id string) error

	// ProcessOrder records which items the vendor has prepared and moves the
	// order to READY. The prepared set must be a non-empty subset of the
	// order's items and the order must belong to the calling vendor.
	ProcessOrder(ctx context.Context, vendorID, orderID string, req ProcessOrderRequest) (*ProcessResult, error)
}

type service struct {
	repo      Repository
	publisher events.Publisher
}

// NewService creates a new order service.
func NewService(repo Repository, publisher events.Publisher) Service {
	return &service{repo: repo, publisher: publisher}
}

func (s *service) Create(ctx context.Context, o *Order) (*Order, error) {
	if len(o.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}
	if o.CustomerID == uuid.Nil || o.VendorID == uuid.Nil {
		return nil, fmt.Errorf("customer and vendor are required")
	}
	if o.IdempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key is required")
	}

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = generateOrderNumber()
	}
	if o.Status == "" {
		o.Status = StatusPlaced
	}
	if o.Currency == "" {
		o.Currency = "ZMW"
	}

	for _, item := range o.Items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = o.ID
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	s.announcePlaced(ctx, o)
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *service) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return s.repo.GetOrderByNumber(ctx, orderNumber)
}

func (s *service) GetByIdempotencyKey(ctx context.Context, key string) (*Order, error) {
	o, err := s.repo.GetByIdempotencyKey(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID string) ([]*Order, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *service) ListVendorOrders(ctx context.Context, vendorID string, status string) ([]*Order, error) {
	return s.repo.ListByVendor(ctx, vendorID, status)
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("order not found: %w", err)
	}

	newStatus := Status(strings.ToUpper(req.Status))
	if !CanTransition(o.Fulfilment, o.Status, newStatus) {
		return nil, fmt.Errorf("cannot transition %s order from %s to %s", o.Fulfilment, o.Status, newStatus)
	}

	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		return nil, err
	}
	o.Status = newStatus

	s.announceStatus(ctx, o, "")
	return o, nil
}

func (s *service) CancelOrder(ctx context.Context, id string) error {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return fmt.Errorf("order not found: %w", err)
	}
	if o.Status != StatusPlaced && o.Status != StatusAccepted {
		return fmt.Errorf("only PLACED or ACCEPTED orders can be cancelled (current: %s)", o.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return err
	}

	o.Status = StatusCancelled
	s.announceStatus(ctx, o, "order cancelled")
	return nil
}

func (s *service) ProcessOrder(ctx context.Context, vendorID, orderID string, req ProcessOrderRequest) (*ProcessResult, error) {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order not found: %w", err)
	}
	if o.VendorID.String() != vendorID {
		return nil, fmt.Errorf("order does not belong to this vendor")
	}
	if o.Status != StatusAccepted && o.Status != StatusPreparing {
		return nil, fmt.Errorf("order cannot be processed in status %s", o.Status)
	}
	if len(req.PreparedItemIDs) == 0 {
		return nil, ErrEmptyChecklist
	}

	// The prepared set must be a subset of the order's items.
	known := make(map[string]bool, len(o.Items))
	for _, item := range o.Items {
		known[item.ID.String()] = true
	}
	seen := make(map[string]bool, len(req.PreparedItemIDs))
	for _, id := range req.PreparedItemIDs {
		if !known[id] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}
		seen[id] = true
	}

	if err := s.repo.MarkPrepared(ctx, orderID, req.PreparedItemIDs); err != nil {
		return nil, err
	}
	// Checklist submission is itself the PREPARING→READY step; an order still
	// in ACCEPTED moves straight through.
	if err := s.repo.UpdateStatus(ctx, orderID, StatusReady); err != nil {
		return nil, err
	}

	o, err = s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{
		Order:         o,
		PreparedCount: len(seen),
		TotalCount:    len(o.Items),
		IsComplete:    len(seen) == len(o.Items),
	}

	msg := fmt.Sprintf("%d of %d items prepared", result.PreparedCount, result.TotalCount)
	s.announceStatus(ctx, o, msg)
	return result, nil
}

// ── event helpers ─────────────────────────────────────────────────────────────
// Event publication is best-effort: a broker outage never fails the order.

func (s *service) announcePlaced(ctx context.Context, o *Order) {
	ev := events.OrderPlacedEvent{
		OrderID:     o.ID.String(),
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID.String(),
		VendorID:    o.VendorID.String(),
		Fulfilment:  string(o.Fulfilment),
		Total:       o.Total,
		Currency:    o.Currency,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	for _, item := range o.Items {
		ev.Items = append(ev.Items, events.EventItem{
			ProductID: item.ProductID.String(),
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	if err := s.publisher.OrderPlaced(ctx, ev); err != nil {
		log.Printf("failed to publish order placed event for %s: %v", o.OrderNumber, err)
	}
}

func (s *service) announceStatus(ctx context.Context, o *Order, msg string) {
	ev := events.OrderStatusEvent{
		OrderID:     o.ID.String(),
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID.String(),
		VendorID:    o.VendorID.String(),
		Status:      string(o.Status),
		Message:     msg,
		ChangedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.OrderStatusChanged(ctx, ev); err != nil {
		log.Printf("failed to publish status event for %s: %v", o.OrderNumber, err)
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

// generateOrderNumber creates a human-readable order number: KAS-YYYYMMDD-XXXX
func generateOrderNumber() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("KAS-%s-%s", date, suffix)
}
