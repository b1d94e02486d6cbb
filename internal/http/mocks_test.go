package http

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
)

var errNotStubbed = errors.New("not stubbed")

type CartServiceMock struct {
	view     *domain.CartView
	quantity int
	err      error

	lastProductID int64
	lastQuantity  int
	lastLineID    int64
	lastDelta     int
	lastIdentity  domain.Identity
}

func (m *CartServiceMock) AddToCart(ctx context.Context, id domain.Identity, productID int64, quantity int) (*domain.CartLine, error) {
	m.lastIdentity, m.lastProductID, m.lastQuantity = id, productID, quantity
	if m.err != nil {
		return nil, m.err
	}
	return &domain.CartLine{ID: 1, ProductID: productID, Quantity: quantity}, nil
}

func (m *CartServiceMock) ViewCart(ctx context.Context, id domain.Identity) (*domain.CartView, error) {
	m.lastIdentity = id
	if m.err != nil {
		return nil, m.err
	}
	return m.view, nil
}

func (m *CartServiceMock) UpdateQuantity(ctx context.Context, id domain.Identity, lineID int64, delta int) (int, error) {
	m.lastIdentity, m.lastLineID, m.lastDelta = id, lineID, delta
	if m.err != nil {
		return 0, m.err
	}
	return m.quantity, nil
}

func (m *CartServiceMock) RemoveLine(ctx context.Context, id domain.Identity, lineID int64) error {
	m.lastIdentity, m.lastLineID = id, lineID
	return m.err
}

type OrderServiceMock struct {
	orderID int64
	order   *domain.Order
	orders  []*domain.Order
	preview *domain.CartView
	err     error

	lastAddress string
	lastMethod  string
	lastStatus  string
	lastOrderID int64
}

func (m *OrderServiceMock) CreateOrder(ctx context.Context, id domain.Identity, shippingAddress, paymentMethod string) (int64, error) {
	m.lastAddress, m.lastMethod = shippingAddress, paymentMethod
	if m.err != nil {
		return 0, m.err
	}
	return m.orderID, nil
}

func (m *OrderServiceMock) PreviewCheckout(ctx context.Context, id domain.Identity) (*domain.CartView, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.preview, nil
}

func (m *OrderServiceMock) GetOrder(ctx context.Context, id domain.Identity, orderID int64) (*domain.Order, error) {
	m.lastOrderID = orderID
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *OrderServiceMock) CancelOrder(ctx context.Context, id domain.Identity, orderID int64) error {
	m.lastOrderID = orderID
	return m.err
}

func (m *OrderServiceMock) ListOrders(ctx context.Context, id domain.Identity) ([]*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.orders, nil
}

func (m *OrderServiceMock) UpdateOrderStatus(ctx context.Context, id domain.Identity, orderID int64, status string) (*domain.Order, error) {
	m.lastOrderID, m.lastStatus = orderID, status
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

type PaymentServiceMock struct {
	session *payment.Session
	payment *domain.Payment
	err     error

	lastOrderID int64
}

func (m *PaymentServiceMock) CreateCheckoutSession(ctx context.Context, id domain.Identity, orderID int64) (*payment.Session, error) {
	m.lastOrderID = orderID
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *PaymentServiceMock) GetPayment(ctx context.Context, id domain.Identity, orderID int64) (*domain.Payment, error) {
	m.lastOrderID = orderID
	if m.err != nil {
		return nil, m.err
	}
	return m.payment, nil
}

func (m *PaymentServiceMock) CompletePayment(ctx context.Context, id domain.Identity, orderID int64) (*domain.Payment, error) {
	m.lastOrderID = orderID
	if m.err != nil {
		return nil, m.err
	}
	return m.payment, nil
}

type CatalogServiceMock struct {
	products   []*domain.Product
	product    *domain.Product
	categories []*domain.Category
	created    int64
	active     bool
	err        error

	lastCategory *int64
	lastWrite    *domain.Product
	lastIdentity domain.Identity
}

func (m *CatalogServiceMock) ListProducts(ctx context.Context, categoryID *int64) ([]*domain.Product, error) {
	m.lastCategory = categoryID
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *CatalogServiceMock) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.product == nil {
		return nil, errNotStubbed
	}
	return m.product, nil
}

func (m *CatalogServiceMock) CreateProduct(ctx context.Context, id domain.Identity, p *domain.Product) (int64, error) {
	m.lastWrite = p
	if m.err != nil {
		return 0, m.err
	}
	return m.created, nil
}

func (m *CatalogServiceMock) UpdateProduct(ctx context.Context, id domain.Identity, p *domain.Product) error {
	m.lastWrite = p
	return m.err
}

func (m *CatalogServiceMock) ToggleVisibility(ctx context.Context, id domain.Identity, productID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.active, nil
}

func (m *CatalogServiceMock) ListAllProducts(ctx context.Context, id domain.Identity, categoryID *int64) ([]*domain.Product, error) {
	m.lastIdentity, m.lastCategory = id, categoryID
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *CatalogServiceMock) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}
