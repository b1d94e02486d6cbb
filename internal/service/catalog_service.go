package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

type CatalogService struct {
	store repository.Store
}

func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

// ListProducts returns active products, optionally limited to one category.
func (s *CatalogService) ListProducts(ctx context.Context, categoryID *int64) ([]*domain.Product, error) {
	products, err := s.store.ListProducts(ctx, repository.ProductFilter{CategoryID: categoryID, ActiveOnly: true})
	if err != nil {
		return nil, fail(ctx, "list products", err)
	}
	return products, nil
}

// ListAllProducts is the admin listing. Hidden products are included.
func (s *CatalogService) ListAllProducts(ctx context.Context, id domain.Identity, categoryID *int64) ([]*domain.Product, error) {
	if !id.IsAdmin() {
		return nil, domain.Forbiddenf("admin role required")
	}
	products, err := s.store.ListProducts(ctx, repository.ProductFilter{CategoryID: categoryID})
	if err != nil {
		return nil, fail(ctx, "list all products", err)
	}
	return products, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fail(ctx, "list categories", err)
	}
	return categories, nil
}

// GetProduct returns an active product. Hidden products are reported as missing.
func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	p, err := s.store.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, domain.NotFoundf("product %d not found", productID)
	}
	if err != nil {
		return nil, fail(ctx, "get product", err)
	}
	if !p.IsActive {
		return nil, domain.NotFoundf("product %d not found", productID)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, id domain.Identity, p *domain.Product) (int64, error) {
	if err := s.validateWrite(ctx, id, p); err != nil {
		return 0, err
	}

	productID, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return 0, fail(ctx, "create product", err)
	}
	return productID, nil
}

// UpdateProduct replaces the editable fields of a product. Existing cart and order
// lines keep the price they captured.
func (s *CatalogService) UpdateProduct(ctx context.Context, id domain.Identity, p *domain.Product) error {
	if err := s.validateWrite(ctx, id, p); err != nil {
		return err
	}

	err := s.store.UpdateProduct(ctx, p)
	if errors.Is(err, repository.ErrProductNotFound) {
		return domain.NotFoundf("product %d not found", p.ID)
	}
	if err != nil {
		return fail(ctx, "update product", err)
	}
	return nil
}

// ToggleVisibility flips the active flag and returns the new value.
func (s *CatalogService) ToggleVisibility(ctx context.Context, id domain.Identity, productID int64) (bool, error) {
	if !id.IsAdmin() {
		return false, domain.Forbiddenf("admin role required")
	}

	var active bool
	err := s.store.WithTx(ctx, func(q repository.Queries) error {
		p, err := q.GetProduct(ctx, productID)
		if errors.Is(err, repository.ErrProductNotFound) {
			return domain.NotFoundf("product %d not found", productID)
		}
		if err != nil {
			return err
		}
		active = !p.IsActive
		return q.SetProductActive(ctx, productID, active)
	})
	if err != nil {
		return false, fail(ctx, "toggle product visibility", err)
	}
	return active, nil
}

func (s *CatalogService) validateWrite(ctx context.Context, id domain.Identity, p *domain.Product) error {
	if !id.IsAdmin() {
		return domain.Forbiddenf("admin role required")
	}
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return err
	}

	exists, err := s.store.CategoryExists(ctx, p.CategoryID)
	if err != nil {
		return fail(ctx, "check category", err)
	}
	if !exists {
		return domain.Validationf("category %d does not exist", p.CategoryID)
	}
	return nil
}
