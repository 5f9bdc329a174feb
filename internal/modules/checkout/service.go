package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kasamaeats/kasama-backend/internal/modules/address"
	"github.com/kasamaeats/kasama-backend/internal/modules/cart"
	"github.com/kasamaeats/kasama-backend/internal/modules/order"
	"github.com/kasamaeats/kasama-backend/internal/modules/payment"
	"github.com/kasamaeats/kasama-backend/internal/modules/vendor"
)

var (
	// ErrEmptyCart is returned when quoting or placing with no cart items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrVendorClosed is returned when the cart's vendor is not accepting orders.
	ErrVendorClosed = errors.New("vendor is currently closed")

	// ErrQuoteStale is returned when the cart changed after the quote was
	// issued. The client must request a fresh quote.
	ErrQuoteStale = errors.New("cart has changed since the quote was issued")

	// ErrPaymentCancelled is returned when the customer declined the payment
	// prompt. The cart is left intact so they can retry.
	ErrPaymentCancelled = errors.New("payment was cancelled")
)

// Carts is the slice of the cart service checkout needs.
type Carts interface {
	Get(ctx context.Context, customerID string) (*cart.Cart, error)
	Clear(ctx context.Context, customerID string) error
}

// AddressBook resolves and saves delivery addresses.
type AddressBook interface {
	CreateAddress(ctx context.Context, customerID string, req address.CreateAddressRequest) (*address.DeliveryAddress, error)
	GetAddress(ctx context.Context, customerID, id string) (*address.DeliveryAddress, error)
	GetDefault(ctx context.Context, customerID string) (*address.DeliveryAddress, error)
}

// Vendors resolves vendor records for pricing and open-state checks.
type Vendors interface {
	GetVendor(ctx context.Context, id string) (*vendor.Vendor, error)
}

// Payments charges the customer at order placement.
type Payments interface {
	Initiate(ctx context.Context, req payment.InitiatePaymentRequest) (*payment.PaymentTransaction, error)
	Verify(ctx context.Context, id string) (*payment.PaymentTransaction, error)
}

// Orders persists the confirmed order.
type Orders interface {
	Create(ctx context.Context, o *order.Order) (*order.Order, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*order.Order, error)
}

// Service runs the quote and place-order flow.
type Service interface {
	// Quote prices the customer's current cart for the requested fulfilment
	// mode. The returned quote is honoured until it expires or the cart changes.
	Quote(ctx context.Context, customerID string, req QuoteRequest) (*PriceQuote, error)

	// PlaceOrder turns a live quote into an order: it validates the quote
	// against the current cart, charges the customer, persists the order and
	// clears the cart. Replaying an idempotency key returns the original order.
	PlaceOrder(ctx context.Context, customerID string, req PlaceOrderRequest) (*order.Order, error)
}

type service struct {
	carts     Carts
	addresses AddressBook
	vendors   Vendors
	payments  Payments
	orders    Orders
	quotes    QuoteStore
}

// NewService creates a new checkout service.
func NewService(carts Carts, addresses AddressBook, vendors Vendors, payments Payments, orders Orders, quotes QuoteStore) Service {
	return &service{
		carts:     carts,
		addresses: addresses,
		vendors:   vendors,
		payments:  payments,
		orders:    orders,
		quotes:    quotes,
	}
}

func (s *service) Quote(ctx context.Context, customerID string, req QuoteRequest) (*PriceQuote, error) {
	fulfilment := strings.ToUpper(req.Fulfilment)
	if fulfilment != string(order.FulfilmentDelivery) && fulfilment != string(order.FulfilmentPickup) {
		return nil, fmt.Errorf("fulfilment must be DELIVERY or PICKUP")
	}

	c, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 || c.Vendor == nil {
		return nil, ErrEmptyCart
	}

	v, err := s.vendors.GetVendor(ctx, c.Vendor.VendorID)
	if err != nil {
		return nil, fmt.Errorf("vendor not found: %w", err)
	}
	if !v.IsOpen {
		return nil, ErrVendorClosed
	}

	subtotal := c.TotalPrice().InexactFloat64()

	var (
		deliveryFee float64
		addressID   string
	)
	if fulfilment == string(order.FulfilmentDelivery) {
		addr, err := s.resolveAddress(ctx, customerID, req)
		if err != nil {
			return nil, err
		}
		addressID = addr.ID.String()
		km := haversineKm(v.Latitude, v.Longitude, addr.Latitude, addr.Longitude)
		deliveryFee = round2(deliveryBaseFee + deliveryPerKmFee*km)
	}

	serviceCharge := round2(math.Min(subtotal*serviceChargeRate, serviceChargeCap))

	now := time.Now()
	q := &PriceQuote{
		ID:              uuid.New(),
		CustomerID:      customerID,
		VendorID:        c.Vendor.VendorID,
		CartFingerprint: fingerprint(c, fulfilment, addressID),
		Fulfilment:      fulfilment,
		AddressID:       addressID,
		Subtotal:        subtotal,
		DeliveryFee:     deliveryFee,
		ServiceCharge:   serviceCharge,
		Total:           round2(subtotal + deliveryFee + serviceCharge),
		Currency:        "ZMW",
		CreatedAt:       now,
		ExpiresAt:       now.Add(quoteTTL),
	}

	if err := s.quotes.Save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *service) PlaceOrder(ctx context.Context, customerID string, req PlaceOrderRequest) (*order.Order, error) {
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("idempotency_key is required")
	}
	if req.TipAmount < 0 {
		return nil, fmt.Errorf("tip_amount cannot be negative")
	}

	// Replay: a retried request returns the order the first attempt created.
	if existing, err := s.orders.GetByIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	q, err := s.quotes.Get(ctx, customerID, req.QuoteID)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 || c.Vendor == nil {
		return nil, ErrEmptyCart
	}
	if fingerprint(c, q.Fulfilment, q.AddressID) != q.CartFingerprint {
		return nil, ErrQuoteStale
	}

	scheduledFor, err := resolveSchedule(order.Fulfilment(q.Fulfilment), req.Schedule)
	if err != nil {
		return nil, err
	}

	var addressSnapshot json.RawMessage
	if q.Fulfilment == string(order.FulfilmentDelivery) {
		addr, err := s.addresses.GetAddress(ctx, customerID, q.AddressID)
		if err != nil {
			return nil, fmt.Errorf("delivery address no longer available: %w", err)
		}
		addressSnapshot, err = json.Marshal(addr)
		if err != nil {
			return nil, err
		}
	}

	total := round2(q.Total + req.TipAmount)

	tx, err := s.payments.Initiate(ctx, payment.InitiatePaymentRequest{
		Provider:       req.Payment.Provider,
		OrderID:        uuid.New().String(),
		CustomerID:     customerID,
		Amount:         total,
		Currency:       q.Currency,
		PhoneNumber:    req.Payment.PhoneNumber,
		Description:    "Kasama Eats order",
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, fmt.Errorf("payment initiation failed: %w", err)
	}
	if !tx.Status.Terminal() {
		tx, err = s.payments.Verify(ctx, tx.ID.String())
		if err != nil {
			return nil, fmt.Errorf("payment verification failed: %w", err)
		}
	}
	switch tx.Status {
	case payment.TxCompleted:
		// paid, proceed
	case payment.TxCancelled:
		return nil, ErrPaymentCancelled
	default:
		return nil, fmt.Errorf("payment did not complete (status: %s)", tx.Status)
	}

	custID, err := uuid.Parse(customerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer id: %w", err)
	}
	vendID, err := uuid.Parse(q.VendorID)
	if err != nil {
		return nil, fmt.Errorf("invalid vendor id: %w", err)
	}

	o := &order.Order{
		ID:                 tx.OrderID,
		CustomerID:         custID,
		VendorID:           vendID,
		Fulfilment:         order.Fulfilment(q.Fulfilment),
		Subtotal:           q.Subtotal,
		DeliveryFee:        q.DeliveryFee,
		ServiceCharge:      q.ServiceCharge,
		Tip:                round2(req.TipAmount),
		Total:              total,
		Currency:           q.Currency,
		DeliveryAddress:    addressSnapshot,
		PickupInstructions: req.PickupInstructions,
		ScheduledFor:       scheduledFor,
		IdempotencyKey:     req.IdempotencyKey,
	}
	for _, item := range c.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product id in cart: %w", err)
		}
		unitPrice := item.Price.InexactFloat64()
		o.Items = append(o.Items, &order.OrderItem{
			ProductID: productID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			LineTotal: round2(unitPrice * float64(item.Quantity)),
		})
	}

	created, err := s.orders.Create(ctx, o)
	if err != nil {
		return nil, err
	}

	// The order is persisted; cleanup failures only leave stale keys to expire.
	if err := s.carts.Clear(ctx, customerID); err != nil {
		log.Printf("checkout: failed to clear cart for %s after order %s: %v", customerID, created.OrderNumber, err)
	}
	_ = s.quotes.Delete(ctx, customerID, req.QuoteID)

	return created, nil
}

// resolveAddress saves a newly supplied address, or loads the requested one,
// falling back to the customer's default.
func (s *service) resolveAddress(ctx context.Context, customerID string, req QuoteRequest) (*address.DeliveryAddress, error) {
	if req.NewAddress != nil {
		return s.addresses.CreateAddress(ctx, customerID, *req.NewAddress)
	}
	if req.AddressID != "" {
		return s.addresses.GetAddress(ctx, customerID, req.AddressID)
	}
	addr, err := s.addresses.GetDefault(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("no delivery address on file: %w", err)
	}
	return addr, nil
}

// resolveSchedule validates the schedule and returns the requested fulfilment
// time, or nil for ASAP. Pickup orders always need a collection date and slot;
// delivery may be ASAP.
func resolveSchedule(fulfilment order.Fulfilment, sched Schedule) (*time.Time, error) {
	if sched.ASAP {
		if fulfilment == order.FulfilmentPickup {
			return nil, fmt.Errorf("pickup orders require a collection date and slot")
		}
		return nil, nil
	}
	if sched.Date == "" || sched.Slot == "" {
		return nil, fmt.Errorf("scheduled orders require both date and slot")
	}
	t, err := time.Parse("2006-01-02 15:04", sched.Date+" "+sched.Slot)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule: %w", err)
	}
	if t.Before(time.Now()) {
		return nil, fmt.Errorf("schedule must be in the future")
	}
	return &t, nil
}

// fingerprint hashes the priced cart contents so a later placement can detect
// any change since the quote.
func fingerprint(c *cart.Cart, fulfilment, addressID string) string {
	lines := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, fmt.Sprintf("%s:%d:%s", item.ProductID, item.Quantity, item.Price.StringFixed(2)))
	}
	sort.Strings(lines)

	h := sha256.New()
	h.Write([]byte(c.Vendor.VendorID))
	for _, line := range lines {
		h.Write([]byte("|" + line))
	}
	h.Write([]byte("|" + fulfilment + "|" + addressID))
	return hex.EncodeToString(h.Sum(nil))
}

// haversineKm returns the great-circle distance between two points in km.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
