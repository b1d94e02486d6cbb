package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"category_id"`
	ImageURL    string          `json:"image_url"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Validate checks the catalog rules enforced on admin writes.
func (p *Product) Validate() error {
	switch {
	case p.Name == "":
		return Validationf("product name is required")
	case p.Price.IsNegative():
		return Validationf("price must not be negative")
	case !ValidDiscount(p.Discount):
		return Validationf("discount must be between 0 and 100")
	case p.Stock < 0:
		return Validationf("stock must not be negative")
	case p.CategoryID <= 0:
		return Validationf("category_id must be positive")
	}
	return nil
}
