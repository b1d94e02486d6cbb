package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/rs/zerolog"
)

type OrderService struct {
	store repository.Store
	cache cache.CartCache
	now   func() time.Time
}

func NewOrderService(store repository.Store, c cache.CartCache) *OrderService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &OrderService{store: store, cache: c, now: utcNow}
}

// CreateOrder converts the caller's active cart into a Pending order with a Pending
// payment. Everything happens in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, id domain.Identity, shippingAddress, paymentMethod string) (int64, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return 0, domain.Validationf("shipping address is required")
	}
	if strings.TrimSpace(paymentMethod) == "" {
		return 0, domain.Validationf("payment method is required")
	}
	method, ok := domain.ParsePaymentMethod(paymentMethod)
	if !ok {
		return 0, domain.Validationf("unsupported payment method %q", paymentMethod)
	}

	var order *domain.Order
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		cart, err := q.LockActiveCart(ctx, id.UserID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return domain.Conflictf("cart is empty")
		}
		if err != nil {
			return err
		}

		lines, err := q.ListCartLines(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.Conflictf("cart is empty")
		}

		now := s.now()
		order = domain.NewOrderFromCart(id.UserID, shippingAddress, lines, now)
		if !order.TotalAmount.IsPositive() {
			return domain.Conflictf("order total must be greater than zero")
		}

		if _, err := q.CreateOrder(ctx, order); err != nil {
			return err
		}
		if _, err := q.CreatePayment(ctx, &domain.Payment{
			OrderID:     order.ID,
			Amount:      order.TotalAmount,
			Method:      method,
			Status:      domain.PaymentStatusPending,
			PaymentDate: now,
		}); err != nil {
			return err
		}

		err = q.MarkCartCheckedOut(ctx, cart.ID)
		if errors.Is(err, repository.ErrCartCheckedOut) {
			return domain.Conflictf("cart was already checked out")
		}
		if err != nil {
			return err
		}

		return appendOrderEvent(ctx, q, EventOrderCreated, order, "", now)
	})
	if err != nil {
		return 0, fail(ctx, "create order", err)
	}

	invalidateCart(ctx, s.cache, id.UserID)
	zerolog.Ctx(ctx).Info().
		Int64("order_id", order.ID).
		Int64("user_id", id.UserID).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Msg("order created")
	return order.ID, nil
}

// PreviewCheckout prices the active cart the way CreateOrder would.
func (s *OrderService) PreviewCheckout(ctx context.Context, id domain.Identity) (*domain.CartView, error) {
	cart, err := s.store.GetActiveCart(ctx, id.UserID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil, domain.NotFoundf("no active cart")
	}
	if err != nil {
		return nil, fail(ctx, "preview checkout", err)
	}

	lines, err := s.store.ListCartLines(ctx, cart.ID)
	if err != nil {
		return nil, fail(ctx, "preview checkout", err)
	}
	return domain.NewCartView(id.UserID, cart.ID, lines), nil
}

// GetOrder returns the order with its lines to its owner or an admin.
func (s *OrderService) GetOrder(ctx context.Context, id domain.Identity, orderID int64) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, domain.NotFoundf("order %d not found", orderID)
	}
	if err != nil {
		return nil, fail(ctx, "get order", err)
	}
	if !id.Owns(order.UserID) && !id.IsAdmin() {
		return nil, domain.Forbiddenf("order %d belongs to another user", orderID)
	}
	return order, nil
}

// CancelOrder cancels one of the caller's own orders while it has not shipped.
func (s *OrderService) CancelOrder(ctx context.Context, id domain.Identity, orderID int64) error {
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		order, err := q.LockOrder(ctx, orderID)
		if errors.Is(err, repository.ErrOrderNotFound) {
			return domain.NotFoundf("order %d not found", orderID)
		}
		if err != nil {
			return err
		}
		if !id.Owns(order.UserID) {
			return domain.Forbiddenf("order %d belongs to another user", orderID)
		}
		if !order.Status.CanCancel() {
			return domain.Conflictf("order %d cannot be cancelled in status %s", orderID, order.Status)
		}

		previous := order.Status
		if err := q.UpdateOrderStatus(ctx, orderID, domain.OrderStatusCancelled); err != nil {
			return err
		}
		order.Status = domain.OrderStatusCancelled
		return appendOrderEvent(ctx, q, EventOrderCancelled, order, previous, s.now())
	})
	if err != nil {
		return fail(ctx, "cancel order", err)
	}

	zerolog.Ctx(ctx).Info().Int64("order_id", orderID).Msg("order cancelled")
	return nil
}

// ListOrders returns the caller's order headers, newest first.
func (s *OrderService) ListOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error) {
	orders, err := s.store.ListOrdersByUser(ctx, id.UserID)
	if err != nil {
		return nil, fail(ctx, "list orders", err)
	}
	return orders, nil
}

// UpdateOrderStatus moves an order along the status machine. Admin only.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id domain.Identity, orderID int64, status string) (*domain.Order, error) {
	if !id.IsAdmin() {
		return nil, domain.Forbiddenf("admin role required")
	}
	next, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, domain.Validationf("unknown order status %q", status)
	}

	var order *domain.Order
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		var err error
		order, err = q.LockOrder(ctx, orderID)
		if errors.Is(err, repository.ErrOrderNotFound) {
			return domain.NotFoundf("order %d not found", orderID)
		}
		if err != nil {
			return err
		}
		if !domain.CanTransitionTo(order.Status, next) {
			return domain.Conflictf("order %d cannot move from %s to %s", orderID, order.Status, next)
		}

		previous := order.Status
		if err := q.UpdateOrderStatus(ctx, orderID, next); err != nil {
			return err
		}
		order.Status = next
		return appendOrderEvent(ctx, q, EventOrderStatusChanged, order, previous, s.now())
	})
	if err != nil {
		return nil, fail(ctx, "update order status", err)
	}

	zerolog.Ctx(ctx).Info().Int64("order_id", orderID).Str("status", next.String()).Msg("order status updated")
	return order, nil
}
