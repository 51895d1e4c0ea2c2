package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/repository"
	"github.com/ticketnest/ticketing-api/pkg/logger"
	"github.com/ticketnest/ticketing-api/pkg/messaging"
	"github.com/ticketnest/ticketing-api/pkg/metrics"
)

type ProducerConfig struct {
	BatchSize    int
	PollInterval time.Duration
}

// Producer drains the outbox: fetch a bounded batch of undelivered records in
// insertion order, publish them grouped by topic in one broker call, mark them
// sent. All state lives in the outbox table, so suspension between invocations
// is safe and a crash mid-batch only causes re-delivery, never loss.
type Producer struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  ProducerConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewProducer(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config ProducerConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Producer {
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}

	return &Producer{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

func (p *Producer) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox producer")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox producer")
			return
		case <-ticker.C:
			// Publish failures are retried on the next tick; they must
			// never crash the loop.
			if _, err := p.ProduceMessages(ctx); err != nil {
				p.logger.Error(err, "Failed to produce messages")
			}
		}
	}
}

// ProduceMessages runs one producer cycle and returns the batches it
// published. An empty outbox produces an empty result and no transport call.
func (p *Producer) ProduceMessages(ctx context.Context) ([]messaging.TopicBatch, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProduceLatency)
	defer timer.ObserveDuration()

	records, err := p.repo.FetchUndelivered(ctx, p.config.BatchSize)
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("fetch_undelivered", "error").Inc()
		return nil, fmt.Errorf("failed to fetch undelivered records: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("fetch_undelivered", "success").Inc()

	if len(records) == 0 {
		return []messaging.TopicBatch{}, nil
	}

	batches := groupByTopic(records)

	if err := p.broker.PublishBatch(ctx, batches); err != nil {
		p.metrics.OutboxPublishFailures.Inc()
		return nil, fmt.Errorf("failed to publish batch: %w", err)
	}

	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	if err := p.repo.MarkSent(ctx, ids); err != nil {
		// The messages are out but the rows stay created; the next cycle
		// re-delivers and consumers deduplicate by operationUuid.
		return batches, fmt.Errorf("failed to mark records sent: %w", err)
	}

	for _, batch := range batches {
		p.metrics.OutboxMessagesSent.WithLabelValues(batch.Topic).Add(float64(len(batch.Messages)))
	}

	p.logger.Debug("Produced outbox batch", "records", len(records), "topics", len(batches))
	return batches, nil
}

// groupByTopic splits records into per-topic batches. The input is ordered by
// id, and append preserves that order within each topic, so delivery stays
// FIFO per topic.
func groupByTopic(records []*model.OutboxRecord) []messaging.TopicBatch {
	index := make(map[string]int)
	batches := make([]messaging.TopicBatch, 0)

	for _, record := range records {
		i, ok := index[record.EventName]
		if !ok {
			i = len(batches)
			index[record.EventName] = i
			batches = append(batches, messaging.TopicBatch{Topic: record.EventName})
		}
		batches[i].Messages = append(batches[i].Messages, messaging.Message{Value: record.Payload})
	}

	return batches
}
