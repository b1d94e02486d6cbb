package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
}

func (l OrderLine) Total() decimal.Decimal {
	return LineTotal(l.Price, l.Discount, l.Quantity)
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	OrderDate       time.Time       `json:"order_date"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	Status          OrderStatus     `json:"status"`
	Lines           []OrderLine     `json:"lines"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewOrderFromCart freezes the cart lines into order lines and computes the rounded
// total. IDs are assigned by the store.
func NewOrderFromCart(userID int64, shippingAddress string, lines []CartLine, now time.Time) *Order {
	order := &Order{
		UserID:          userID,
		OrderDate:       now,
		ShippingAddress: shippingAddress,
		Status:          OrderStatusPending,
		Lines:           make([]OrderLine, 0, len(lines)),
		UpdatedAt:       now,
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
		order.Lines = append(order.Lines, OrderLine{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       l.Price,
			Discount:    l.Discount,
		})
	}
	order.TotalAmount = RoundMoney(total)
	return order
}
