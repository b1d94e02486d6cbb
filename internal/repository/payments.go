package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
)

func (r *queries) CreatePayment(ctx context.Context, p *domain.Payment) (int64, error) {
	query := `INSERT INTO payments (order_id, amount, payment_method, status, payment_date, provider_session_id)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	var id int64
	err := r.q.QueryRowContext(ctx, query,
		p.OrderID,
		p.Amount,
		string(p.Method),
		string(p.Status),
		p.PaymentDate,
		p.ProviderSessionID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	p.ID = id
	return id, nil
}

func (r *queries) GetPaymentByOrder(ctx context.Context, orderID int64) (*domain.Payment, error) {
	query := `SELECT id, order_id, amount, payment_method, status, payment_date, provider_session_id
	          FROM payments WHERE order_id = $1`

	var (
		p              domain.Payment
		method, status string
	)
	err := r.q.QueryRowContext(ctx, query, orderID).Scan(
		&p.ID,
		&p.OrderID,
		&p.Amount,
		&method,
		&status,
		&p.PaymentDate,
		&p.ProviderSessionID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment by order id: %w", err)
	}
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	return &p, nil
}

// UpdatePayment persists the mutable payment fields of the order's payment.
func (r *queries) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE payments SET status = $1, payment_date = $2, provider_session_id = $3 WHERE order_id = $4`,
		string(p.Status), p.PaymentDate, p.ProviderSessionID, p.OrderID)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return expectOneRow(res, ErrPaymentNotFound)
}
