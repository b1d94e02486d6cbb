package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
)

var ErrNoLineItems = errors.New("checkout session needs at least one line item")

type LineItem struct {
	Name string
	// UnitAmount is in minor currency units.
	UnitAmount int64
	Quantity   int64
}

type SessionRequest struct {
	OrderID   int64
	UserID    int64
	Currency  string
	LineItems []LineItem
}

// Session is a hosted checkout page created by the provider.
type Session struct {
	ID  string
	URL string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *SessionRequest) (*Session, error)
}

// BuildLineItems prices each order line at its discounted unit amount. An order
// without lines is billed as a single item for its total.
func BuildLineItems(order *domain.Order) []LineItem {
	items := make([]LineItem, 0, len(order.Lines))
	for _, l := range order.Lines {
		items = append(items, LineItem{
			Name:       l.ProductName,
			UnitAmount: domain.MinorUnits(domain.EffectivePrice(l.Price, l.Discount)),
			Quantity:   int64(l.Quantity),
		})
	}

	if len(items) == 0 {
		items = append(items, LineItem{
			Name:       fmt.Sprintf("Order #%d", order.ID),
			UnitAmount: domain.MinorUnits(order.TotalAmount),
			Quantity:   1,
		})
	}
	return items
}

func successURL(frontendURL string, orderID int64) string {
	return fmt.Sprintf("%s/order/success?session_id={CHECKOUT_SESSION_ID}&order_id=%d", frontendURL, orderID)
}

func cancelURL(frontendURL string, orderID int64) string {
	return fmt.Sprintf("%s/order/cancel?order_id=%d", frontendURL, orderID)
}
