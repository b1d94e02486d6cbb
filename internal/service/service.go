package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/rs/zerolog"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
	EventPaymentCompleted   = "payment.completed"
)

type orderEvent struct {
	OrderID        int64     `json:"order_id"`
	UserID         int64     `json:"user_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	TotalAmount    string    `json:"total_amount"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func appendOrderEvent(ctx context.Context, q repository.Queries, eventType string, order *domain.Order, previous domain.OrderStatus, at time.Time) error {
	payload, err := json.Marshal(orderEvent{
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         order.Status.String(),
		PreviousStatus: previous.String(),
		TotalAmount:    order.TotalAmount.StringFixed(2),
		OccurredAt:     at,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	return q.InsertOutboxEvent(ctx, &repository.OutboxEvent{
		AggregateID: strconv.FormatInt(order.ID, 10),
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   at,
	})
}

// fail passes domain errors through and turns anything else into a logged store failure.
func fail(ctx context.Context, op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	zerolog.Ctx(ctx).Error().Err(err).Str("op", op).Msg("store failure")
	return domain.StoreFailure(err)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
