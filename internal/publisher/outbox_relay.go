package publisher

import (
	"context"
	"time"

	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "order-events"

type EventRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*repository.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Config struct {
	Tick         time.Duration
	BatchSize    int
	WriteTimeout time.Duration
}

// OutboxRelay moves order events from the outbox table to Kafka.
type OutboxRelay struct {
	repo    EventRepository
	writer  messageWriter
	cfg     Config
	metrics *metrics.RelayMetrics
}

// NewKafkaWriter returns a writer for topic that creates the topic on first use.
func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// NewOutboxRelay builds a relay. m may be nil.
func NewOutboxRelay(repo EventRepository, writer messageWriter, cfg Config, m *metrics.RelayMetrics) *OutboxRelay {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &OutboxRelay{repo: repo, writer: writer, cfg: cfg, metrics: m}
}

// Run polls until ctx is cancelled.
func (p *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// processUnpublishedEvents publishes one batch oldest first and returns how many
// events were marked processed. A failed event stays in the outbox for the next tick,
// and so do the later events of the same aggregate, which keeps per-order key order.
func (p *OutboxRelay) processUnpublishedEvents(ctx context.Context) int {
	log := zerolog.Ctx(ctx)

	events, err := p.repo.GetUnprocessedEvents(ctx, p.cfg.BatchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch outbox events")
		return 0
	}
	if p.metrics != nil {
		p.metrics.Pending.Set(float64(len(events)))
	}

	processed := 0
	blocked := make(map[string]struct{})
	for _, event := range events {
		if _, ok := blocked[event.AggregateID]; ok {
			log.Debug().
				Str("event_id", event.ID.String()).
				Str("aggregate_id", event.AggregateID).
				Msg("event held back behind failed event")
			continue
		}

		if err := p.publish(ctx, event); err != nil {
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to publish event")
			p.countFailure(event)
			blocked[event.AggregateID] = struct{}{}
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to mark event as processed")
			p.countFailure(event)
			blocked[event.AggregateID] = struct{}{}
			continue
		}

		processed++
		if p.metrics != nil {
			p.metrics.Published.WithLabelValues(event.EventType).Inc()
		}
		log.Debug().
			Str("event_id", event.ID.String()).
			Str("event_type", event.EventType).
			Str("aggregate_id", event.AggregateID).
			Msg("event published")
	}
	return processed
}

func (p *OutboxRelay) publish(ctx context.Context, event *repository.OutboxEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.WriteTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id keeps one order's events in one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID.String())},
		},
		Time: event.CreatedAt,
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *OutboxRelay) countFailure(event *repository.OutboxEvent) {
	if p.metrics != nil {
		p.metrics.Failed.WithLabelValues(event.EventType).Inc()
	}
}
