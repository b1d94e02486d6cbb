package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

type CartService interface {
	AddToCart(ctx context.Context, id domain.Identity, productID int64, quantity int) (*domain.CartLine, error)
	ViewCart(ctx context.Context, id domain.Identity) (*domain.CartView, error)
	UpdateQuantity(ctx context.Context, id domain.Identity, lineID int64, delta int) (int, error)
	RemoveLine(ctx context.Context, id domain.Identity, lineID int64) error
}

// CartHandler handles cart-related HTTP requests
type CartHandler struct {
	svc     CartService
	timeout time.Duration
}

func NewCartHandler(svc CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		svc:     svc,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	CartItemID int64 `json:"cart_item_id"`
	Change     *int  `json:"change"`
}

type RemoveItemRequestDTO struct {
	CartItemID int64 `json:"cart_item_id"`
}

type CartItemDTO struct {
	CartItemID  int64       `json:"cart_item_id"`
	ProductID   int64       `json:"product_id"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	Discount    json.Number `json:"discount"`
	ItemTotal   json.Number `json:"item_total"`
}

type CartResponseDTO struct {
	Success    bool          `json:"success"`
	Message    string        `json:"message"`
	Data       []CartItemDTO `json:"data"`
	TotalPrice json.Number   `json:"total_price"`
}

type UpdateQuantityResponseDTO struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	NewQuantity int    `json:"new_quantity"`
}

// AddItem handles POST /cart/add
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w, err)
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_argument", "product_id is required")
		return
	}
	if req.Quantity > domain.MaxAddQuantity {
		respondError(w, http.StatusBadRequest, "invalid_argument", "quantity must be between 1 and 99")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, err := h.svc.AddToCart(ctx, id, req.ProductID, req.Quantity); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Item added to cart"})
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.svc.ViewCart(ctx, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := CartResponseDTO{
		Success:    true,
		Message:    "Cart retrieved successfully",
		Data:       cartItemsToDTO(view.Lines),
		TotalPrice: money(view.Total),
	}
	if view.IsEmpty() {
		resp.Message = "Cart is empty."
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateQuantity handles POST /cart/update
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w, err)
		return
	}
	if req.CartItemID <= 0 || req.Change == nil {
		respondError(w, http.StatusBadRequest, "invalid_argument", "cart_item_id and change are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	quantity, err := h.svc.UpdateQuantity(ctx, id, req.CartItemID, *req.Change)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, UpdateQuantityResponseDTO{
		Success:     true,
		Message:     "Quantity updated successfully",
		NewQuantity: quantity,
	})
}

// RemoveItem handles POST /cart/remove
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}

	var req RemoveItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w, err)
		return
	}
	if req.CartItemID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_argument", "cart_item_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.svc.RemoveLine(ctx, id, req.CartItemID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Item removed from cart successfully"})
}

func cartItemsToDTO(lines []domain.CartViewLine) []CartItemDTO {
	items := make([]CartItemDTO, 0, len(lines))
	for _, l := range lines {
		items = append(items, CartItemDTO{
			CartItemID:  l.LineID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   money(l.UnitPrice),
			Discount:    number(l.Discount),
			ItemTotal:   money(l.LineTotal),
		})
	}
	return items
}
