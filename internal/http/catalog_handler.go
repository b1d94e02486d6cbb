package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type CatalogService interface {
	ListProducts(ctx context.Context, categoryID *int64) ([]*domain.Product, error)
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, id domain.Identity, p *domain.Product) (int64, error)
	UpdateProduct(ctx context.Context, id domain.Identity, p *domain.Product) error
	ToggleVisibility(ctx context.Context, id domain.Identity, productID int64) (bool, error)
	ListAllProducts(ctx context.Context, id domain.Identity, categoryID *int64) ([]*domain.Product, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

type CatalogHandler struct {
	svc     CatalogService
	timeout time.Duration
}

func NewCatalogHandler(svc CatalogService, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		svc:     svc,
		timeout: timeout,
	}
}

type ProductDTO struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Discount    json.Number `json:"discount"`
	FinalPrice  json.Number `json:"final_price"`
	Stock       int         `json:"stock"`
	CategoryID  int64       `json:"category_id"`
	ImageURL    string      `json:"image_url"`
	IsActive    bool        `json:"is_active"`
}

type ProductListResponseDTO struct {
	Products []ProductDTO `json:"products"`
}

// ProductRequestDTO is the body of admin product writes. Price and discount accept
// JSON numbers or strings.
type ProductRequestDTO struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"category_id"`
	ImageURL    string          `json:"image_url"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

type CategoryDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryListResponseDTO struct {
	Categories []CategoryDTO `json:"categories"`
}

type CreateProductResponseDTO struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}

type VisibilityResponseDTO struct {
	Success  bool  `json:"success"`
	IsActive bool  `json:"is_active"`
	ID       int64 `json:"id"`
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := categoryParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_argument", "invalid category_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.svc.ListProducts(ctx, categoryID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, productsToDTO(products))
}

// ListAllProducts handles GET /admin/products
func (h *CatalogHandler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}
	categoryID, ok := categoryParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_argument", "invalid category_id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.svc.ListAllProducts(ctx, id, categoryID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, productsToDTO(products))
}

// ListCategories handles GET /categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.svc.ListCategories(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := CategoryListResponseDTO{Categories: make([]CategoryDTO, 0, len(categories))}
	for _, c := range categories {
		resp.Categories = append(resp.Categories, CategoryDTO{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	respondJSON(w, http.StatusOK, resp)
}

// categoryParam reads the optional ?category_id filter.
func categoryParam(r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("category_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}

// GetProduct handles GET /products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_argument", "invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.svc.GetProduct(ctx, productID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, productToDTO(p))
}

// CreateProduct handles POST /admin/product/add
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}

	var req ProductRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, err := h.svc.CreateProduct(ctx, id, req.toProduct(0))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateProductResponseDTO{Success: true, ID: productID})
}

// UpdateProduct handles POST /admin/product/update/{id}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}
	productID, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_argument", "invalid product id")
		return
	}

	var req ProductRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondInvalidBody(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.svc.UpdateProduct(ctx, id, req.toProduct(productID)); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Product updated successfully"})
}

// ToggleVisibility handles POST /admin/product/toggle-visibility/{id}
func (h *CatalogHandler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w)
		return
	}
	productID, ok := idParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_argument", "invalid product id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	active, err := h.svc.ToggleVisibility(ctx, id, productID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, VisibilityResponseDTO{Success: true, IsActive: active, ID: productID})
}

func (req ProductRequestDTO) toProduct(id int64) *domain.Product {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return &domain.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
		IsActive:    active,
	}
}

func productsToDTO(products []*domain.Product) ProductListResponseDTO {
	resp := ProductListResponseDTO{Products: make([]ProductDTO, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, productToDTO(p))
	}
	return resp
}

func productToDTO(p *domain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		Discount:    number(p.Discount),
		FinalPrice:  money(domain.EffectivePrice(p.Price, p.Discount)),
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive,
	}
}
