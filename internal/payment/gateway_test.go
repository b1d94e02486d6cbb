package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func TestBuildLineItems(t *testing.T) {
	order := &domain.Order{
		ID:          12,
		TotalAmount: decimal.RequireFromString("37.60"),
		Lines: []domain.OrderLine{
			{ProductName: "Wireless Mouse", Quantity: 2, Price: decimal.RequireFromString("10.00"), Discount: decimal.NewFromInt(10)},
			{ProductName: "USB-C Hub", Quantity: 1, Price: decimal.RequireFromString("24.50"), Discount: decimal.NewFromInt(20)},
		},
	}

	items := BuildLineItems(order)
	require.Len(t, items, 2)
	assert.Equal(t, LineItem{Name: "Wireless Mouse", UnitAmount: 900, Quantity: 2}, items[0])
	assert.Equal(t, LineItem{Name: "USB-C Hub", UnitAmount: 1960, Quantity: 1}, items[1])
}

func TestBuildLineItems_RoundsHalfUp(t *testing.T) {
	// 0.99 * 0.85 = 0.8415 -> 84 cents, 0.10 * 0.95 = 0.095 -> 10 cents
	order := &domain.Order{Lines: []domain.OrderLine{
		{ProductName: "a", Quantity: 1, Price: decimal.RequireFromString("0.99"), Discount: decimal.NewFromInt(15)},
		{ProductName: "b", Quantity: 1, Price: decimal.RequireFromString("0.10"), Discount: decimal.NewFromInt(5)},
	}}

	items := BuildLineItems(order)
	assert.Equal(t, int64(84), items[0].UnitAmount)
	assert.Equal(t, int64(10), items[1].UnitAmount)
}

func TestBuildLineItems_FallsBackToOrderTotal(t *testing.T) {
	order := &domain.Order{ID: 99, TotalAmount: decimal.RequireFromString("42.50")}

	items := BuildLineItems(order)
	require.Len(t, items, 1)
	assert.Equal(t, LineItem{Name: "Order #99", UnitAmount: 4250, Quantity: 1}, items[0])
}

type mockSessionCreator struct {
	params *stripe.CheckoutSessionParams
	resp   *stripe.CheckoutSession
	err    error
}

func (m *mockSessionCreator) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	m.params = params
	return m.resp, m.err
}

func TestStripeGateway_BuildsParams(t *testing.T) {
	creator := &mockSessionCreator{resp: &stripe.CheckoutSession{ID: "cs_live_1", URL: "https://checkout.stripe.com/c/pay/cs_live_1"}}
	g := &StripeGateway{sessions: creator, frontendURL: "http://localhost:3000"}
	ctx := context.Background()

	s, err := g.CreateCheckoutSession(ctx, &SessionRequest{
		OrderID:   5,
		UserID:    9,
		Currency:  "usd",
		LineItems: []LineItem{{Name: "Wireless Mouse", UnitAmount: 900, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_live_1", s.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_live_1", s.URL)

	p := creator.params
	require.NotNil(t, p)
	assert.Equal(t, "payment", *p.Mode)
	assert.Equal(t, []*string{stripe.String("card")}, p.PaymentMethodTypes)
	assert.Equal(t, "http://localhost:3000/order/success?session_id={CHECKOUT_SESSION_ID}&order_id=5", *p.SuccessURL)
	assert.Equal(t, "http://localhost:3000/order/cancel?order_id=5", *p.CancelURL)
	require.Len(t, p.LineItems, 1)
	assert.Equal(t, int64(900), *p.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "usd", *p.LineItems[0].PriceData.Currency)
	assert.Equal(t, "Wireless Mouse", *p.LineItems[0].PriceData.ProductData.Name)
	assert.Equal(t, int64(2), *p.LineItems[0].Quantity)
	assert.Equal(t, "5", p.Metadata["order_id"])
	assert.Equal(t, "9", p.Metadata["user_id"])
	assert.Equal(t, ctx, p.Context)
}

func TestStripeGateway_ProviderError(t *testing.T) {
	creator := &mockSessionCreator{err: errors.New("card_declined")}
	g := &StripeGateway{sessions: creator}

	_, err := g.CreateCheckoutSession(context.Background(), &SessionRequest{
		OrderID:   1,
		LineItems: []LineItem{{Name: "x", UnitAmount: 100, Quantity: 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card_declined")
}

func TestStripeGateway_NoLineItems(t *testing.T) {
	creator := &mockSessionCreator{}
	g := &StripeGateway{sessions: creator}

	_, err := g.CreateCheckoutSession(context.Background(), &SessionRequest{OrderID: 1})
	assert.ErrorIs(t, err, ErrNoLineItems)
	assert.Nil(t, creator.params)
}

func TestSimulatedGateway_Deterministic(t *testing.T) {
	g := NewSimulatedGateway("http://shop.local")
	req := &SessionRequest{OrderID: 3, LineItems: []LineItem{{Name: "x", UnitAmount: 100, Quantity: 1}}}

	first, err := g.CreateCheckoutSession(context.Background(), req)
	require.NoError(t, err)
	second, err := g.CreateCheckoutSession(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, len(first.ID) > len("cs_test_"))
	assert.Equal(t, "cs_test_", first.ID[:8])
	assert.Equal(t, "http://shop.local/order/success?session_id="+first.ID+"&order_id=3", first.URL)

	other, err := g.CreateCheckoutSession(context.Background(), &SessionRequest{OrderID: 4, LineItems: req.LineItems})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}
