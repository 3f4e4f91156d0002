package worker

import (
	"context"
	"time"

	"github.com/smilecare/clinic-api/internal/repository"
	"github.com/smilecare/clinic-api/pkg/logger"
)

// RetentionWorker periodically deletes processed outbox events and audit
// entries older than the retention window.
type RetentionWorker struct {
	outbox        repository.OutboxRepository
	audit         repository.AuditRepository
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
}

func NewRetentionWorker(
	outbox repository.OutboxRepository,
	audit repository.AuditRepository,
	retentionDays int,
	interval time.Duration,
	log *logger.Logger,
) *RetentionWorker {
	if retentionDays <= 0 {
		retentionDays = 90
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionWorker{
		outbox:        outbox,
		audit:         audit,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        log,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)

	deleted, err := w.outbox.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error(err, "failed to purge processed outbox events")
	} else if deleted > 0 {
		w.logger.Info("purged processed outbox events", "count", deleted)
	}

	deleted, err = w.audit.DeleteBefore(ctx, cutoff)
	if err != nil {
		w.logger.Error(err, "failed to purge audit entries")
	} else if deleted > 0 {
		w.logger.Info("purged audit entries", "count", deleted)
	}
}
