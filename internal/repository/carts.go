package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/storefront/internal/domain"
)

// EnsureActiveCart returns the user's active cart, creating it when missing. Concurrent
// creation is resolved by the partial unique index on carts(user_id).
func (r *queries) EnsureActiveCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO carts (user_id, created_at, is_checked_out) VALUES ($1, $2, FALSE)
		 ON CONFLICT DO NOTHING`,
		userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}
	return r.activeCart(ctx, userID, "")
}

func (r *queries) GetActiveCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	return r.activeCart(ctx, userID, "")
}

// LockActiveCart is GetActiveCart holding a row lock until the transaction ends.
func (r *queries) LockActiveCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	return r.activeCart(ctx, userID, r.dialect.forUpdate())
}

func (r *queries) activeCart(ctx context.Context, userID int64, lock string) (*domain.Cart, error) {
	query := `SELECT id, user_id, created_at, is_checked_out
	          FROM carts WHERE user_id = $1 AND is_checked_out = FALSE` + lock

	var c domain.Cart
	err := r.q.QueryRowContext(ctx, query, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.IsCheckedOut)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query active cart: %w", err)
	}
	return &c, nil
}

// MarkCartCheckedOut flips the flag only if it is still unset, so a second checkout of
// the same cart fails with ErrCartCheckedOut.
func (r *queries) MarkCartCheckedOut(ctx context.Context, cartID int64) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE carts SET is_checked_out = TRUE WHERE id = $1 AND is_checked_out = FALSE`,
		cartID)
	if err != nil {
		return fmt.Errorf("mark cart checked out: %w", err)
	}
	return expectOneRow(res, ErrCartCheckedOut)
}

// AddCartLine inserts the line or, if the cart already holds the product, increments
// its quantity. The stored price and discount of an existing line are kept.
func (r *queries) AddCartLine(ctx context.Context, line *domain.CartLine) (*domain.CartLine, error) {
	query := `INSERT INTO cart_lines (cart_id, product_id, quantity, price, discount, added_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (cart_id, product_id)
	          DO UPDATE SET quantity = cart_lines.quantity + excluded.quantity
	          RETURNING id, quantity, price, discount, added_at`

	out := *line
	err := r.q.QueryRowContext(ctx, query,
		line.CartID,
		line.ProductID,
		line.Quantity,
		line.Price,
		line.Discount,
		time.Now().UTC(),
	).Scan(&out.ID, &out.Quantity, &out.Price, &out.Discount, &out.AddedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert cart line: %w", err)
	}
	return &out, nil
}

func (r *queries) LockCartLine(ctx context.Context, lineID int64) (*LockedCartLine, error) {
	query := `SELECT l.id, l.cart_id, l.product_id, l.quantity, l.price, l.discount, l.added_at,
	                 c.user_id, c.is_checked_out
	          FROM cart_lines l
	          JOIN carts c ON c.id = l.cart_id
	          WHERE l.id = $1`
	if r.dialect == DriverPostgres {
		query += " FOR UPDATE OF l"
	}

	var locked LockedCartLine
	l := &locked.Line
	err := r.q.QueryRowContext(ctx, query, lineID).Scan(
		&l.ID,
		&l.CartID,
		&l.ProductID,
		&l.Quantity,
		&l.Price,
		&l.Discount,
		&l.AddedAt,
		&locked.OwnerID,
		&locked.IsCheckedOut,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartLineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart line: %w", err)
	}
	return &locked, nil
}

func (r *queries) SetCartLineQuantity(ctx context.Context, lineID int64, quantity int) error {
	res, err := r.q.ExecContext(ctx, `UPDATE cart_lines SET quantity = $1 WHERE id = $2`, quantity, lineID)
	if err != nil {
		return fmt.Errorf("update cart line quantity: %w", err)
	}
	return expectOneRow(res, ErrCartLineNotFound)
}

func (r *queries) DeleteCartLine(ctx context.Context, lineID int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM cart_lines WHERE id = $1`, lineID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	return expectOneRow(res, ErrCartLineNotFound)
}

// ListCartLines returns the lines of a cart with the current product name, oldest first.
func (r *queries) ListCartLines(ctx context.Context, cartID int64) ([]domain.CartLine, error) {
	query := `SELECT l.id, l.cart_id, l.product_id, p.name, l.quantity, l.price, l.discount, l.added_at
	          FROM cart_lines l
	          JOIN products p ON p.id = l.product_id
	          WHERE l.cart_id = $1
	          ORDER BY l.id`

	rows, err := r.q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var l domain.CartLine
		if err := rows.Scan(
			&l.ID,
			&l.CartID,
			&l.ProductID,
			&l.ProductName,
			&l.Quantity,
			&l.Price,
			&l.Discount,
			&l.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart line row: %w", err)
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}
