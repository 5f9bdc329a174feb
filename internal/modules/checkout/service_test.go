package checkout

import (
	"context"
	"database/sql"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasamaeats/kasama-backend/internal/modules/address"
	"github.com/kasamaeats/kasama-backend/internal/modules/cart"
	"github.com/kasamaeats/kasama-backend/internal/modules/order"
	"github.com/kasamaeats/kasama-backend/internal/modules/payment"
	"github.com/kasamaeats/kasama-backend/internal/modules/vendor"
)

type fakeCarts struct {
	cart    *cart.Cart
	cleared bool
}

func (f *fakeCarts) Get(_ context.Context, _ string) (*cart.Cart, error) { return f.cart, nil }
func (f *fakeCarts) Clear(_ context.Context, _ string) error             { f.cleared = true; return nil }

type fakeAddresses struct {
	addr *address.DeliveryAddress
}

func (f *fakeAddresses) CreateAddress(_ context.Context, customerID string, req address.CreateAddressRequest) (*address.DeliveryAddress, error) {
	f.addr = &address.DeliveryAddress{
		ID:         uuid.New(),
		CustomerID: uuid.MustParse(customerID),
		Address:    req.Address,
		City:       req.City,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
	}
	return f.addr, nil
}

func (f *fakeAddresses) GetAddress(_ context.Context, _, id string) (*address.DeliveryAddress, error) {
	if f.addr == nil || f.addr.ID.String() != id {
		return nil, sql.ErrNoRows
	}
	return f.addr, nil
}

func (f *fakeAddresses) GetDefault(_ context.Context, _ string) (*address.DeliveryAddress, error) {
	if f.addr == nil {
		return nil, sql.ErrNoRows
	}
	return f.addr, nil
}

type fakeVendors struct {
	vendor *vendor.Vendor
}

func (f *fakeVendors) GetVendor(_ context.Context, _ string) (*vendor.Vendor, error) {
	if f.vendor == nil {
		return nil, sql.ErrNoRows
	}
	return f.vendor, nil
}

// fakePayments settles every initiation with the configured status.
type fakePayments struct {
	status    payment.TxStatus
	initiated []payment.InitiatePaymentRequest
}

func (f *fakePayments) Initiate(_ context.Context, req payment.InitiatePaymentRequest) (*payment.PaymentTransaction, error) {
	f.initiated = append(f.initiated, req)
	return &payment.PaymentTransaction{
		ID:      uuid.New(),
		OrderID: uuid.MustParse(req.OrderID),
		Status:  f.status,
		Amount:  req.Amount,
	}, nil
}

func (f *fakePayments) Verify(_ context.Context, _ string) (*payment.PaymentTransaction, error) {
	return &payment.PaymentTransaction{ID: uuid.New(), Status: f.status}, nil
}

type fakeOrders struct {
	created *order.Order
	byKey   map[string]*order.Order
}

func (f *fakeOrders) Create(_ context.Context, o *order.Order) (*order.Order, error) {
	o.OrderNumber = "KAS-20260831-TEST"
	f.created = o
	return o, nil
}

func (f *fakeOrders) GetByIdempotencyKey(_ context.Context, key string) (*order.Order, error) {
	return f.byKey[key], nil
}

type fixture struct {
	svc       Service
	carts     *fakeCarts
	addresses *fakeAddresses
	vendors   *fakeVendors
	payments  *fakePayments
	orders    *fakeOrders
}

func setup(t *testing.T) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	vendorID := uuid.New()
	f := &fixture{
		carts: &fakeCarts{cart: &cart.Cart{
			CustomerID: customerID,
			Vendor:     &cart.VendorContext{VendorID: vendorID.String(), VendorName: "Mama's Kitchen"},
			Items: []*cart.CartItem{
				{ProductID: uuid.NewString(), Title: "Nshima Combo", Price: decimal.RequireFromString("60.00"), Quantity: 1},
				{ProductID: uuid.NewString(), Title: "Chikanda", Price: decimal.RequireFromString("20.00"), Quantity: 2},
			},
		}},
		addresses: &fakeAddresses{addr: &address.DeliveryAddress{
			ID:         uuid.New(),
			CustomerID: uuid.MustParse(customerID),
			Address:    "12 Cairo Road",
			City:       "Lusaka",
			Latitude:   -15.4167,
			Longitude:  28.2833,
			IsDefault:  true,
		}},
		vendors: &fakeVendors{vendor: &vendor.Vendor{
			ID:           vendorID,
			BusinessName: "Mama's Kitchen",
			City:         "Lusaka",
			Latitude:     -15.4167,
			Longitude:    28.2833,
			IsOpen:       true,
		}},
		payments: &fakePayments{status: payment.TxCompleted},
		orders:   &fakeOrders{byKey: map[string]*order.Order{}},
	}
	f.svc = NewService(f.carts, f.addresses, f.vendors, f.payments, f.orders, NewRedisQuoteStore(client))
	return f
}

var customerID = uuid.NewString()

func TestQuote_Delivery(t *testing.T) {
	f := setup(t)

	q, err := f.svc.Quote(context.Background(), customerID, QuoteRequest{Fulfilment: "DELIVERY"})
	require.NoError(t, err)

	// Vendor and address share coordinates, so only the base fee applies.
	assert.Equal(t, 100.0, q.Subtotal)
	assert.Equal(t, 15.0, q.DeliveryFee)
	assert.Equal(t, 10.0, q.ServiceCharge)
	assert.Equal(t, 125.0, q.Total)
	assert.Equal(t, "ZMW", q.Currency)
	assert.Equal(t, f.addresses.addr.ID.String(), q.AddressID)
	assert.NotEmpty(t, q.CartFingerprint)
}

func TestQuote_Pickup(t *testing.T) {
	f := setup(t)

	q, err := f.svc.Quote(context.Background(), customerID, QuoteRequest{Fulfilment: "pickup"})
	require.NoError(t, err)

	assert.Zero(t, q.DeliveryFee)
	assert.Empty(t, q.AddressID)
	assert.Equal(t, 110.0, q.Total)
}

func TestQuote_ServiceChargeCapped(t *testing.T) {
	f := setup(t)
	f.carts.cart.Items = []*cart.CartItem{
		{ProductID: uuid.NewString(), Title: "Platter", Price: decimal.RequireFromString("400.00"), Quantity: 1},
	}

	q, err := f.svc.Quote(context.Background(), customerID, QuoteRequest{Fulfilment: "PICKUP"})
	require.NoError(t, err)
	assert.Equal(t, 25.0, q.ServiceCharge)
}

func TestQuote_EmptyCart(t *testing.T) {
	f := setup(t)
	f.carts.cart = &cart.Cart{CustomerID: customerID}

	_, err := f.svc.Quote(context.Background(), customerID, QuoteRequest{Fulfilment: "DELIVERY"})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestQuote_VendorClosed(t *testing.T) {
	f := setup(t)
	f.vendors.vendor.IsOpen = false

	_, err := f.svc.Quote(context.Background(), customerID, QuoteRequest{Fulfilment: "DELIVERY"})
	assert.ErrorIs(t, err, ErrVendorClosed)
}

func TestQuote_InvalidFulfilment(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Quote(context.Background(), customerID, QuoteRequest{Fulfilment: "TELEPORT"})
	assert.Error(t, err)
}

func placeReq(quoteID string) PlaceOrderRequest {
	return PlaceOrderRequest{
		QuoteID:        quoteID,
		Schedule:       Schedule{ASAP: true},
		Payment:        PaymentSelection{Provider: "MTN_MOMO", PhoneNumber: "0966000000"},
		IdempotencyKey: uuid.NewString(),
	}
}

func TestPlaceOrder_Succeeds(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	q, err := f.svc.Quote(ctx, customerID, QuoteRequest{Fulfilment: "DELIVERY"})
	require.NoError(t, err)

	req := placeReq(q.ID.String())
	req.TipAmount = 5

	o, err := f.svc.PlaceOrder(ctx, customerID, req)
	require.NoError(t, err)

	assert.Equal(t, order.FulfilmentDelivery, o.Fulfilment)
	assert.Equal(t, 100.0, o.Subtotal)
	assert.Equal(t, 5.0, o.Tip)
	assert.Equal(t, 130.0, o.Total)
	assert.Len(t, o.Items, 2)
	assert.NotEmpty(t, o.DeliveryAddress)
	assert.True(t, f.carts.cleared)

	require.Len(t, f.payments.initiated, 1)
	assert.Equal(t, 130.0, f.payments.initiated[0].Amount)
	assert.Equal(t, o.ID.String(), f.payments.initiated[0].OrderID)
}

func TestPlaceOrder_IdempotentReplay(t *testing.T) {
	f := setup(t)
	existing := &order.Order{ID: uuid.New(), OrderNumber: "KAS-20260831-AAAA"}
	f.orders.byKey["key-1"] = existing

	o, err := f.svc.PlaceOrder(context.Background(), customerID, PlaceOrderRequest{
		QuoteID:        uuid.NewString(),
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, existing, o)
	assert.Empty(t, f.payments.initiated, "replay must not charge again")
}

func TestPlaceOrder_RequiresIdempotencyKey(t *testing.T) {
	f := setup(t)

	_, err := f.svc.PlaceOrder(context.Background(), customerID, PlaceOrderRequest{QuoteID: uuid.NewString()})
	assert.Error(t, err)
}

func TestPlaceOrder_ExpiredQuote(t *testing.T) {
	f := setup(t)

	_, err := f.svc.PlaceOrder(context.Background(), customerID, placeReq(uuid.NewString()))
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestPlaceOrder_StaleQuote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	q, err := f.svc.Quote(ctx, customerID, QuoteRequest{Fulfilment: "DELIVERY"})
	require.NoError(t, err)

	// Cart changed after the quote was issued.
	f.carts.cart.Items[0].Quantity = 5

	_, err = f.svc.PlaceOrder(ctx, customerID, placeReq(q.ID.String()))
	assert.ErrorIs(t, err, ErrQuoteStale)
	assert.Empty(t, f.payments.initiated)
}

func TestPlaceOrder_PickupMustBeScheduled(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	q, err := f.svc.Quote(ctx, customerID, QuoteRequest{Fulfilment: "PICKUP"})
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, customerID, placeReq(q.ID.String()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collection date and slot")
}

func TestQuote_NewAddressSavedAndUsed(t *testing.T) {
	f := setup(t)
	f.addresses.addr = nil

	q, err := f.svc.Quote(context.Background(), customerID, QuoteRequest{
		Fulfilment: "DELIVERY",
		NewAddress: &address.CreateAddressRequest{
			Address:   "7 Kafue Road",
			City:      "Lusaka",
			Latitude:  -15.4167,
			Longitude: 28.2833,
		},
	})
	require.NoError(t, err)
	require.NotNil(t, f.addresses.addr)
	assert.Equal(t, f.addresses.addr.ID.String(), q.AddressID)
}

func TestPlaceOrder_ScheduledNeedsDateAndSlot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	q, err := f.svc.Quote(ctx, customerID, QuoteRequest{Fulfilment: "PICKUP"})
	require.NoError(t, err)

	req := placeReq(q.ID.String())
	req.Schedule = Schedule{ASAP: false, Date: "2030-01-15"}

	_, err = f.svc.PlaceOrder(ctx, customerID, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date and slot")
}

func TestPlaceOrder_ScheduledOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	q, err := f.svc.Quote(ctx, customerID, QuoteRequest{Fulfilment: "PICKUP"})
	require.NoError(t, err)

	req := placeReq(q.ID.String())
	req.Schedule = Schedule{Date: "2030-01-15", Slot: "12:30"}
	req.PickupInstructions = "Call on arrival"

	o, err := f.svc.PlaceOrder(ctx, customerID, req)
	require.NoError(t, err)
	require.NotNil(t, o.ScheduledFor)
	assert.Equal(t, "2030-01-15 12:30", o.ScheduledFor.Format("2006-01-02 15:04"))
	assert.Equal(t, "Call on arrival", o.PickupInstructions)
}

func TestPlaceOrder_PaymentCancelled(t *testing.T) {
	f := setup(t)
	f.payments.status = payment.TxCancelled
	ctx := context.Background()

	q, err := f.svc.Quote(ctx, customerID, QuoteRequest{Fulfilment: "DELIVERY"})
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, customerID, placeReq(q.ID.String()))
	assert.ErrorIs(t, err, ErrPaymentCancelled)

	// Cart survives so the customer can retry.
	assert.False(t, f.carts.cleared)
	assert.Nil(t, f.orders.created)
}

func TestPlaceOrder_PaymentFailed(t *testing.T) {
	f := setup(t)
	f.payments.status = payment.TxFailed
	ctx := context.Background()

	q, err := f.svc.Quote(ctx, customerID, QuoteRequest{Fulfilment: "DELIVERY"})
	require.NoError(t, err)

	_, err = f.svc.PlaceOrder(ctx, customerID, placeReq(q.ID.String()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPaymentCancelled)
	assert.Nil(t, f.orders.created)
}

func TestFingerprint_SensitiveToQuantity(t *testing.T) {
	c := &cart.Cart{
		Vendor: &cart.VendorContext{VendorID: "v1"},
		Items: []*cart.CartItem{
			{ProductID: "p1", Price: decimal.RequireFromString("2.50"), Quantity: 1},
		},
	}
	a := fingerprint(c, "DELIVERY", "addr-1")

	c.Items[0].Quantity = 2
	b := fingerprint(c, "DELIVERY", "addr-1")

	assert.NotEqual(t, a, b)
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	items := []*cart.CartItem{
		{ProductID: "p1", Price: decimal.RequireFromString("2.50"), Quantity: 1},
		{ProductID: "p2", Price: decimal.RequireFromString("1.00"), Quantity: 3},
	}
	c1 := &cart.Cart{Vendor: &cart.VendorContext{VendorID: "v1"}, Items: items}
	c2 := &cart.Cart{Vendor: &cart.VendorContext{VendorID: "v1"}, Items: []*cart.CartItem{items[1], items[0]}}

	assert.Equal(t, fingerprint(c1, "PICKUP", ""), fingerprint(c2, "PICKUP", ""))
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Lusaka CBD to Lusaka airport is roughly 21 km straight line.
	km := haversineKm(-15.4167, 28.2833, -15.3308, 28.4526)
	assert.InDelta(t, 20.6, km, 1.0)
}
