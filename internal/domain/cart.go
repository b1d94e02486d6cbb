package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MaxAddQuantity bounds a single add request.
	MaxAddQuantity = 99
	// MaxLineQuantity bounds the accumulated quantity of one cart line.
	MaxLineQuantity = 9999
)

type Cart struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	IsCheckedOut bool      `json:"is_checked_out"`
}

// CartLine holds the price and discount captured when the product was first added.
type CartLine struct {
	ID          int64           `json:"id"`
	CartID      int64           `json:"cart_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	AddedAt     time.Time       `json:"added_at"`
}

func (l CartLine) Total() decimal.Decimal {
	return LineTotal(l.Price, l.Discount, l.Quantity)
}

// CartView is the priced, read-only representation of an active cart.
type CartView struct {
	UserID int64           `json:"user_id"`
	CartID int64           `json:"cart_id,omitempty"`
	Lines  []CartViewLine  `json:"lines"`
	Total  decimal.Decimal `json:"total"`
}

type CartViewLine struct {
	LineID      int64           `json:"line_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// NewCartView prices lines. Totals are accumulated unrounded and the grand total is
// rounded once at the end.
func NewCartView(userID, cartID int64, lines []CartLine) *CartView {
	view := &CartView{
		UserID: userID,
		CartID: cartID,
		Lines:  make([]CartViewLine, 0, len(lines)),
	}

	total := decimal.Zero
	for _, l := range lines {
		lineTotal := l.Total()
		total = total.Add(lineTotal)
		view.Lines = append(view.Lines, CartViewLine{
			LineID:      l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.Price,
			Discount:    l.Discount,
			LineTotal:   lineTotal,
		})
	}
	view.Total = RoundMoney(total)
	return view
}

func EmptyCartView(userID int64) *CartView {
	return &CartView{UserID: userID, Lines: []CartViewLine{}, Total: decimal.Zero}
}

func (v *CartView) IsEmpty() bool {
	return len(v.Lines) == 0
}
