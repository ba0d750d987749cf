package application

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-commerce/internal/orders/ports"
	"go-commerce/pkg/logger"
)

const resyncBatchSize = 500

// LedgerResyncJob re-applies ledger sync to recently updated orders
type LedgerResyncJob struct {
	orders ports.OrderRepository
	sync   *LedgerSync
	window time.Duration
	now    ports.Clock
	log    *logger.Logger
}

// NewLedgerResyncJob creates the job; window is how far back orders are scanned
func NewLedgerResyncJob(orders ports.OrderRepository, sync *LedgerSync, window time.Duration, log *logger.Logger) *LedgerResyncJob {
	if window <= 0 {
		window = time.Hour
	}
	return &LedgerResyncJob{
		orders: orders,
		sync:   sync,
		window: window,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log,
	}
}

// Name implements scheduler.Job
func (j *LedgerResyncJob) Name() string { return "ledger-resync" }

// Run implements scheduler.Job
func (j *LedgerResyncJob) Run(ctx context.Context) error {
	since := j.now().Add(-j.window)
	scanned, failed := 0, 0

	for {
		batch, err := j.orders.ListUpdatedSince(ctx, since, resyncBatchSize)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		for _, order := range batch {
			scanned++
			orderCtx := logger.WithOrderIDContext(ctx, order.ID)
			if err := j.sync.Resync(orderCtx, order); err != nil {
				failed++
				j.log.WithContext(orderCtx).Error("ledger resync failed", zap.Error(err))
			}
		}
		if len(batch) < resyncBatchSize {
			break
		}
		// pages are ordered by updated_at; continue after the last one seen
		next := batch[len(batch)-1].UpdatedAt
		if !next.After(since) {
			break
		}
		since = next
	}

	j.log.WithContext(ctx).Info("ledger resync finished",
		zap.Int("scanned", scanned),
		zap.Int("failed", failed),
	)
	if failed > 0 {
		return fmt.Errorf("ledger resync: %d of %d orders failed", failed, scanned)
	}
	return nil
}
