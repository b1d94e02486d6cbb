package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type OrderService interface {
	CreateOrder(ctx context.Context, id domain.Identity, shippingAddress, paymentMethod string) (int64, error)
	PreviewCheckout(ctx context.Context, id domain.Identity) (*domain.CartView, error)
	GetOrder(ctx context.Context, id domain.Identity, orderID int64) (*domain.Order, error)
	CancelOrder(ctx context.Context, id domain.Identity, orderID int64) error
	ListOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id domain.Identity, orderID int64, status string) (*domain.Order, error)
}

type OrderHandler struct {
	svc     OrderService
	timeout time.Duration
}

func NewOrderHandler(svc OrderService, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		svc:     svc,
		timeout: timeout,
	}
}

type CheckoutRequestDTO struct {
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
}

type CheckoutResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID int64  `json:"order_id"`
}

type CheckoutPreviewDTO struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	CartItems   []CartItemDTO `json:"cart_items"`
	TotalAmount json.Number   `json:"total_amount"`
}

type OrderDTO struct {
	ID              int64       `json:"id"`
	UserID          int64       `json:"user_id"`
	TotalAmount     json.Number `json:"total_amount"`
	ShippingAddress string      `json:"shipping_address"`
	Status          string      `json:"status"`
	OrderDate       time.Time   `json:"order_date"`
	UpdatedAt       time.Time   `json:"updated_at"`
	CanCancel       bool        `json:"can_cancel"`
}

type OrderItemDTO struct {
	ProductID   int64       `json:"product_id"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	Discount    json.Number `json:"discount"`
	TotalPrice  json.Number `json:"total_price"`
}

type OrderDetailsResponseDTO struct {
	Order      OrderDTO       `json:"order"`
	OrderItems []OrderItemDTO `json:"order_items"`
}

type OrderSummaryDTO struct {
	ID          int64       `json:"id"`
	TotalAmount json.Number `json:"total_amount"`
	Status      string      `json:"status"`
	OrderDate   time.Time   `json:"order_date"`
}

type OrderListResponseDTO struct {
	Orders []OrderSummaryDTO `json:"orders"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

// Checkout handles POST /checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}

	var req CheckoutRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, err := h.svc.CreateOrder(ctx, id, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{
		Success: true,
		Message: "Order created successfully",
		OrderID: orderID,
	})
}

// PreviewCheckout handles GET /checkout
func (h *OrderHandler) PreviewCheckout(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.svc.PreviewCheckout(ctx, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutPreviewDTO{
		Success:     true,
		Message:     "Checkout details retrieved successfully",
		CartItems:   cartItemsToDTO(view.Lines),
		TotalAmount: money(view.Total),
	})
}

// GetOrder handles GET /order/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}
	orderID, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_argument", "invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.svc.GetOrder(ctx, id, orderID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, OrderDetailsResponseDTO{
		Order:      orderToDTO(order),
		OrderItems: orderItemsToDTO(order.Lines),
	})
}

// CancelOrder handles DELETE /order/{id}
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}
	orderID, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_argument", "invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.svc.CancelOrder(ctx, id, orderID); err != nil {
		// an order past the cancellable states is refused like a foreign one
		if errors.Is(err, domain.ErrConflict) {
			respondError(w, http.StatusForbidden, "failed_precondition", err.Error())
			return
		}
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Order cancelled successfully"})
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.svc.ListOrders(ctx, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := OrderListResponseDTO{Orders: make([]OrderSummaryDTO, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, OrderSummaryDTO{
			ID:          o.ID,
			TotalAmount: money(o.TotalAmount),
			Status:      o.Status.String(),
			OrderDate:   o.OrderDate,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PUT /admin/order/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}
	orderID, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_argument", "invalid order id")
		return
	}

	var req UpdateStatusRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.svc.UpdateOrderStatus(ctx, id, orderID, req.Status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, orderToDTO(order))
}

func orderToDTO(o *domain.Order) OrderDTO {
	return OrderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		TotalAmount:     money(o.TotalAmount),
		ShippingAddress: o.ShippingAddress,
		Status:          o.Status.String(),
		OrderDate:       o.OrderDate,
		UpdatedAt:       o.UpdatedAt,
		CanCancel:       o.Status.CanCancel(),
	}
}

func orderItemsToDTO(lines []domain.OrderLine) []OrderItemDTO {
	items := make([]OrderItemDTO, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItemDTO{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   money(l.Price),
			Discount:    number(l.Discount),
			TotalPrice:  money(l.Total()),
		})
	}
	return items
}
