package worker

import (
	"context"
	"time"

	"github.com/ticketnest/ticketing-api/internal/repository"
	"github.com/ticketnest/ticketing-api/pkg/logger"
	"github.com/ticketnest/ticketing-api/pkg/metrics"
)

// OutboxMonitor periodically samples the undelivered-record count into the
// pending gauge, so a stalled producer shows up as a growing backlog.
type OutboxMonitor struct {
	repo     repository.OutboxRepository
	interval time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewOutboxMonitor(repo repository.OutboxRepository, interval time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *OutboxMonitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &OutboxMonitor{
		repo:     repo,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

func (m *OutboxMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := m.repo.CountUndelivered(ctx)
			if err != nil {
				m.logger.Error(err, "Failed to count undelivered records")
				continue
			}
			m.metrics.OutboxPendingRecords.Set(float64(count))
		}
	}
}
