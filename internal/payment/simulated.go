package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SimulatedGateway issues local session references without calling a provider. The
// same order always gets the same session id.
type SimulatedGateway struct {
	frontendURL string
}

func NewSimulatedGateway(frontendURL string) *SimulatedGateway {
	return &SimulatedGateway{frontendURL: frontendURL}
}

func (g *SimulatedGateway) CreateCheckoutSession(_ context.Context, req *SessionRequest) (*Session, error) {
	if len(req.LineItems) == 0 {
		return nil, ErrNoLineItems
	}

	ref := uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("storefront/order/%d", req.OrderID)))
	id := "cs_test_" + strings.ReplaceAll(ref.String(), "-", "")

	return &Session{
		ID:  id,
		URL: strings.Replace(successURL(g.frontendURL, req.OrderID), "{CHECKOUT_SESSION_ID}", id, 1),
	}, nil
}
