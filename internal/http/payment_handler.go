package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
)

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, id domain.Identity, orderID int64) (*payment.Session, error)
	GetPayment(ctx context.Context, id domain.Identity, orderID int64) (*domain.Payment, error)
	CompletePayment(ctx context.Context, id domain.Identity, orderID int64) (*domain.Payment, error)
}

type PaymentHandler struct {
	svc     PaymentService
	timeout time.Duration
}

func NewPaymentHandler(svc PaymentService, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		svc:     svc,
		timeout: timeout,
	}
}

type CheckoutSessionRequestDTO struct {
	OrderID int64 `json:"order_id"`
}

type CheckoutSessionResponseDTO struct {
	Success   bool   `json:"success"`
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type PaymentDTO struct {
	ID                int64       `json:"id"`
	OrderID           int64       `json:"order_id"`
	Amount            json.Number `json:"amount"`
	PaymentMethod     string      `json:"payment_method"`
	Status            string      `json:"status"`
	PaymentDate       time.Time   `json:"payment_date"`
	ProviderSessionID string      `json:"provider_session_id,omitempty"`
}

// CreateCheckoutSession handles POST /create-checkout-session
func (h *PaymentHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}

	var req CheckoutSessionRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w, err)
		return
	}
	if req.OrderID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_argument", "order_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.svc.CreateCheckoutSession(ctx, id, req.OrderID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutSessionResponseDTO{
		Success:   true,
		SessionID: session.ID,
		URL:       session.URL,
	})
}

// GetPayment handles GET /order/{id}/payment
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
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

	p, err := h.svc.GetPayment(ctx, id, orderID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, paymentToDTO(p))
}

// CompletePayment handles POST /admin/order/{id}/payment/complete
func (h *PaymentHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
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

	p, err := h.svc.CompletePayment(ctx, id, orderID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, paymentToDTO(p))
}

func paymentToDTO(p *domain.Payment) PaymentDTO {
	return PaymentDTO{
		ID:                p.ID,
		OrderID:           p.OrderID,
		Amount:            money(p.Amount),
		PaymentMethod:     string(p.Method),
		Status:            string(p.Status),
		PaymentDate:       p.PaymentDate,
		ProviderSessionID: p.ProviderSessionID,
	}
}
