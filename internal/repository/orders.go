package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

// CreateOrder inserts the order header and its lines and assigns their ids.
func (r *queries) CreateOrder(ctx context.Context, order *domain.Order) (int64, error) {
	query := `INSERT INTO orders (user_id, order_date, total_amount, shipping_address, status, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	var id int64
	err := r.q.QueryRowContext(ctx, query,
		order.UserID,
		order.OrderDate,
		order.TotalAmount,
		order.ShippingAddress,
		string(order.Status),
		order.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	order.ID = id

	lineQuery := `INSERT INTO order_lines (order_id, product_id, product_name, quantity, price, discount)
	              VALUES ($1, $2, $3, $4, $5, $6)
	              RETURNING id`
	for i := range order.Lines {
		l := &order.Lines[i]
		l.OrderID = id
		if err := r.q.QueryRowContext(ctx, lineQuery,
			id,
			l.ProductID,
			l.ProductName,
			l.Quantity,
			l.Price,
			l.Discount,
		).Scan(&l.ID); err != nil {
			return 0, fmt.Errorf("insert order line: %w", err)
		}
	}

	return id, nil
}

func (r *queries) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return r.orderWithLines(ctx, id, "")
}

// LockOrder is GetOrder holding a row lock on the order header.
func (r *queries) LockOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return r.orderWithLines(ctx, id, r.dialect.forUpdate())
}

const orderColumns = `id, user_id, order_date, total_amount, shipping_address, status, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.OrderDate,
		&o.TotalAmount,
		&o.ShippingAddress,
		&status,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

func (r *queries) orderWithLines(ctx context.Context, id int64, lock string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1` + lock

	order, err := scanOrder(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	lines, err := r.orderLines(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Lines = lines
	return order, nil
}

func (r *queries) orderLines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	query := `SELECT id, order_id, product_id, product_name, quantity, price, discount
	          FROM order_lines WHERE order_id = $1 ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.OrderLine{}
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(
			&l.ID,
			&l.OrderID,
			&l.ProductID,
			&l.ProductName,
			&l.Quantity,
			&l.Price,
			&l.Discount,
		); err != nil {
			return nil, fmt.Errorf("scan order line row: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lines, nil
}

// ListOrdersByUser returns order headers, newest first. Lines are not loaded.
func (r *queries) ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY order_date DESC, id DESC`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

func (r *queries) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return expectOneRow(res, ErrOrderNotFound)
}
