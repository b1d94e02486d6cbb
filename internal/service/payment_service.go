package service

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/rs/zerolog"
)

type PaymentService struct {
	store    repository.Store
	gateway  payment.Gateway
	currency string
	now      func() time.Time
}

func NewPaymentService(store repository.Store, gateway payment.Gateway, currency string) *PaymentService {
	if currency == "" {
		currency = "usd"
	}
	return &PaymentService{store: store, gateway: gateway, currency: currency, now: utcNow}
}

// CreateCheckoutSession opens a hosted payment session for one of the caller's orders.
// A Pending order moves to Processing and the payment remembers the session id.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, id domain.Identity, orderID int64) (*payment.Session, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, domain.NotFoundf("order %d not found", orderID)
	}
	if err != nil {
		return nil, fail(ctx, "create checkout session", err)
	}
	// other users' orders are reported as missing
	if !id.Owns(order.UserID) {
		return nil, domain.NotFoundf("order %d not found", orderID)
	}
	if err := payable(order); err != nil {
		return nil, err
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, &payment.SessionRequest{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Currency:  s.currency,
		LineItems: payment.BuildLineItems(order),
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("order_id", orderID).Msg("payment provider error")
		return nil, domain.GatewayFailure(err)
	}

	err = s.store.WithTx(ctx, func(q repository.Queries) error {
		locked, err := q.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := payable(locked); err != nil {
			return err
		}

		if locked.Status == domain.OrderStatusPending {
			if err := q.UpdateOrderStatus(ctx, orderID, domain.OrderStatusProcessing); err != nil {
				return err
			}
			locked.Status = domain.OrderStatusProcessing
			if err := appendOrderEvent(ctx, q, EventOrderStatusChanged, locked, domain.OrderStatusPending, s.now()); err != nil {
				return err
			}
		}

		p, err := q.GetPaymentByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		p.ProviderSessionID = sess.ID
		return q.UpdatePayment(ctx, p)
	})
	if err != nil {
		return nil, fail(ctx, "create checkout session", err)
	}

	zerolog.Ctx(ctx).Info().Int64("order_id", orderID).Str("session_id", sess.ID).Msg("checkout session created")
	return sess, nil
}

func payable(order *domain.Order) error {
	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusProcessing {
		return domain.Conflictf("order %d is %s and cannot be paid", order.ID, order.Status)
	}
	if !order.TotalAmount.IsPositive() {
		return domain.Conflictf("order %d has no amount to pay", order.ID)
	}
	return nil
}

// GetPayment returns the payment of an order to its owner or an admin.
func (s *PaymentService) GetPayment(ctx context.Context, id domain.Identity, orderID int64) (*domain.Payment, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, domain.NotFoundf("order %d not found", orderID)
	}
	if err != nil {
		return nil, fail(ctx, "get payment", err)
	}
	if !id.Owns(order.UserID) && !id.IsAdmin() {
		return nil, domain.Forbiddenf("order %d belongs to another user", orderID)
	}

	p, err := s.store.GetPaymentByOrder(ctx, orderID)
	if errors.Is(err, repository.ErrPaymentNotFound) {
		return nil, domain.NotFoundf("payment for order %d not found", orderID)
	}
	if err != nil {
		return nil, fail(ctx, "get payment", err)
	}
	return p, nil
}

// CompletePayment records an out-of-band payment confirmation. Admin only.
func (s *PaymentService) CompletePayment(ctx context.Context, id domain.Identity, orderID int64) (*domain.Payment, error) {
	if !id.IsAdmin() {
		return nil, domain.Forbiddenf("admin role required")
	}

	var p *domain.Payment
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		order, err := q.LockOrder(ctx, orderID)
		if errors.Is(err, repository.ErrOrderNotFound) {
			return domain.NotFoundf("order %d not found", orderID)
		}
		if err != nil {
			return err
		}
		if order.Status == domain.OrderStatusCancelled {
			return domain.Conflictf("order %d is cancelled", orderID)
		}

		p, err = q.GetPaymentByOrder(ctx, orderID)
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return domain.NotFoundf("payment for order %d not found", orderID)
		}
		if err != nil {
			return err
		}
		if p.Status == domain.PaymentStatusCompleted {
			return domain.Conflictf("payment for order %d is already completed", orderID)
		}

		now := s.now()
		p.Status = domain.PaymentStatusCompleted
		p.PaymentDate = now
		if err := q.UpdatePayment(ctx, p); err != nil {
			return err
		}
		return appendOrderEvent(ctx, q, EventPaymentCompleted, order, "", now)
	})
	if err != nil {
		return nil, fail(ctx, "complete payment", err)
	}

	zerolog.Ctx(ctx).Info().Int64("order_id", orderID).Msg("payment completed")
	return p, nil
}
