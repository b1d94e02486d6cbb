package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockGateway implements payment.Gateway for testing
type MockGateway struct {
	Request *payment.SessionRequest
	Session *payment.Session
	Err     error
	Calls   int
}

func (m *MockGateway) CreateCheckoutSession(_ context.Context, req *payment.SessionRequest) (*payment.Session, error) {
	m.Calls++
	m.Request = req
	return m.Session, m.Err
}

func newMockGateway() *MockGateway {
	return &MockGateway{Session: &payment.Session{ID: "cs_test_abc", URL: "https://pay.example/cs_test_abc"}}
}

func TestCreateCheckoutSession_Success(t *testing.T) {
	store := newTestStore(t)
	orderID := placeOrder(t, store, 1)
	gw := newMockGateway()
	svc := NewPaymentService(store, gw, "usd")
	ctx := context.Background()

	sess, err := svc.CreateCheckoutSession(ctx, customer(1), orderID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", sess.ID)
	assert.Equal(t, "https://pay.example/cs_test_abc", sess.URL)

	require.NotNil(t, gw.Request)
	assert.Equal(t, "usd", gw.Request.Currency)
	assert.Equal(t, []payment.LineItem{{Name: "Wireless Mouse", UnitAmount: 900, Quantity: 1}}, gw.Request.LineItems)

	order, err := store.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)

	p, err := store.GetPaymentByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", p.ProviderSessionID)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)

	// a retry while Processing is allowed and keeps the status
	gw.Session = &payment.Session{ID: "cs_test_def", URL: "https://pay.example/cs_test_def"}
	_, err = svc.CreateCheckoutSession(ctx, customer(1), orderID)
	require.NoError(t, err)
	p, err = store.GetPaymentByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_def", p.ProviderSessionID)

	events, err := store.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventOrderStatusChanged, events[1].EventType)
}

func TestCreateCheckoutSession_OtherUsersOrderIsNotFound(t *testing.T) {
	store := newTestStore(t)
	orderID := placeOrder(t, store, 2)
	gw := newMockGateway()
	svc := NewPaymentService(store, gw, "usd")

	_, err := svc.CreateCheckoutSession(context.Background(), customer(3), orderID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.CreateCheckoutSession(context.Background(), customer(2), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, gw.Calls)
}

func TestCreateCheckoutSession_NotPayable(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.OrderStatusCancelled} {
		t.Run(status.String(), func(t *testing.T) {
			store := newTestStore(t)
			orderID := placeOrder(t, store, 4)
			require.NoError(t, store.UpdateOrderStatus(context.Background(), orderID, status))
			gw := newMockGateway()
			svc := NewPaymentService(store, gw, "usd")

			_, err := svc.CreateCheckoutSession(context.Background(), customer(4), orderID)
			assert.ErrorIs(t, err, domain.ErrConflict)
			assert.Equal(t, 0, gw.Calls)
		})
	}
}

func TestCreateCheckoutSession_GatewayFailure(t *testing.T) {
	store := newTestStore(t)
	orderID := placeOrder(t, store, 5)
	gw := &MockGateway{Err: errors.New("stripe: api key invalid")}
	svc := NewPaymentService(store, gw, "usd")
	ctx := context.Background()

	_, err := svc.CreateCheckoutSession(ctx, customer(5), orderID)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.NotContains(t, err.Error(), "api key")

	order, err := store.GetOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
}

func TestGetPayment(t *testing.T) {
	store := newTestStore(t)
	orderID := placeOrder(t, store, 6)
	svc := NewPaymentService(store, newMockGateway(), "usd")
	ctx := context.Background()

	p, err := svc.GetPayment(ctx, customer(6), orderID)
	require.NoError(t, err)
	assert.Equal(t, orderID, p.OrderID)

	_, err = svc.GetPayment(ctx, admin(), orderID)
	assert.NoError(t, err)

	_, err = svc.GetPayment(ctx, customer(7), orderID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.GetPayment(ctx, customer(6), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompletePayment(t *testing.T) {
	store := newTestStore(t)
	orderID := placeOrder(t, store, 8)
	svc := NewPaymentService(store, newMockGateway(), "usd")
	ctx := context.Background()

	_, err := svc.CompletePayment(ctx, customer(8), orderID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.CompletePayment(ctx, admin(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	p, err := svc.CompletePayment(ctx, admin(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, p.Status)

	_, err = svc.CompletePayment(ctx, admin(), orderID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	stored, err := store.GetPaymentByOrder(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, stored.Status)
}

func TestCompletePayment_CancelledOrder(t *testing.T) {
	store := newTestStore(t)
	orderID := placeOrder(t, store, 9)
	require.NoError(t, NewOrderService(store, nil).CancelOrder(context.Background(), customer(9), orderID))

	svc := NewPaymentService(store, newMockGateway(), "usd")
	_, err := svc.CompletePayment(context.Background(), admin(), orderID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}
