package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
)

type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway creates Stripe hosted checkout sessions.
type StripeGateway struct {
	sessions    sessionCreator
	frontendURL string
}

func NewStripeGateway(secretKey, frontendURL string) *StripeGateway {
	return &StripeGateway{
		sessions:    &session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		frontendURL: frontendURL,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	if len(req.LineItems) == 0 {
		return nil, ErrNoLineItems
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(successURL(g.frontendURL, req.OrderID)),
		CancelURL:          stripe.String(cancelURL(g.frontendURL, req.OrderID)),
	}
	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	params.AddMetadata("order_id", strconv.FormatInt(req.OrderID, 10))
	params.AddMetadata("user_id", strconv.FormatInt(req.UserID, 10))
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}
	return &Session{ID: s.ID, URL: s.URL}, nil
}
