package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCartNotFound     = errors.New("active cart not found")
	ErrCartLineNotFound = errors.New("cart line not found")
	ErrCartCheckedOut   = errors.New("cart already checked out")
	ErrOrderNotFound    = errors.New("order not found")
	ErrPaymentNotFound  = errors.New("payment not found")
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Credentials struct {
	Driver            string
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	SQLitePath        string
	MigrationsDirPath string
}

type OutboxEvent struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

type ProductFilter struct {
	CategoryID *int64
	ActiveOnly bool
}

// LockedCartLine is a cart line together with the state of the cart that holds it.
type LockedCartLine struct {
	Line         domain.CartLine
	OwnerID      int64
	IsCheckedOut bool
}

// Queries is the set of data operations available both on the store and inside a
// transaction.
type Queries interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) (int64, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	SetProductActive(ctx context.Context, id int64, active bool) error
	CategoryExists(ctx context.Context, id int64) (bool, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)

	EnsureActiveCart(ctx context.Context, userID int64) (*domain.Cart, error)
	GetActiveCart(ctx context.Context, userID int64) (*domain.Cart, error)
	LockActiveCart(ctx context.Context, userID int64) (*domain.Cart, error)
	MarkCartCheckedOut(ctx context.Context, cartID int64) error

	AddCartLine(ctx context.Context, line *domain.CartLine) (*domain.CartLine, error)
	LockCartLine(ctx context.Context, lineID int64) (*LockedCartLine, error)
	SetCartLineQuantity(ctx context.Context, lineID int64, quantity int) error
	DeleteCartLine(ctx context.Context, lineID int64) error
	ListCartLines(ctx context.Context, cartID int64) ([]domain.CartLine, error)

	CreateOrder(ctx context.Context, order *domain.Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	LockOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error

	CreatePayment(ctx context.Context, p *domain.Payment) (int64, error)
	GetPaymentByOrder(ctx context.Context, orderID int64) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, p *domain.Payment) error

	InsertOutboxEvent(ctx context.Context, event *OutboxEvent) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error
}

type Store interface {
	Queries
	// WithTx runs fn in one transaction. It commits when fn returns nil and rolls back
	// otherwise.
	WithTx(ctx context.Context, fn func(q Queries) error) error
	RunMigrations(*Credentials) error
	Close() error
}
