package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "Credit Card"
	PaymentMethodPayPal         PaymentMethod = "PayPal"
	PaymentMethodBankTransfer   PaymentMethod = "Bank Transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "Cash on Delivery"
	PaymentMethodGiftCard       PaymentMethod = "Gift Card"
)

var paymentMethods = []PaymentMethod{
	PaymentMethodCreditCard,
	PaymentMethodPayPal,
	PaymentMethodBankTransfer,
	PaymentMethodCashOnDelivery,
	PaymentMethodGiftCard,
}

// ParsePaymentMethod matches case-insensitively and returns the canonical spelling.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	for _, m := range paymentMethods {
		if strings.EqualFold(strings.TrimSpace(s), string(m)) {
			return m, true
		}
	}
	return "", false
}

type Payment struct {
	ID                int64           `json:"id"`
	OrderID           int64           `json:"order_id"`
	Amount            decimal.Decimal `json:"amount"`
	Method            PaymentMethod   `json:"payment_method"`
	Status            PaymentStatus   `json:"status"`
	PaymentDate       time.Time       `json:"payment_date"`
	ProviderSessionID string          `json:"provider_session_id,omitempty"`
}
