package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-commerce/internal/orders/domain"
	"go-commerce/internal/orders/ports"
	"go-commerce/pkg/errors"
	"go-commerce/pkg/logger"
)

// LedgerSync mirrors an order's refund and return sub-states into their audit
// records. The order is the source of truth; records only move forward.
type LedgerSync struct {
	repo   ports.LedgerRepository
	stream ports.LedgerStream
	now    ports.Clock
	ids    ports.IDGenerator
	log    *logger.Logger
}

// NewLedgerSync creates a ledger sync. stream may be nil.
func NewLedgerSync(repo ports.LedgerRepository, stream ports.LedgerStream, log *logger.Logger) *LedgerSync {
	return &LedgerSync{
		repo:   repo,
		stream: stream,
		now:    func() time.Time { return time.Now().UTC() },
		ids:    NewID,
		log:    log,
	}
}

// WithClock overrides the time source
func (s *LedgerSync) WithClock(clock ports.Clock) *LedgerSync {
	s.now = clock
	return s
}

// SyncRefund upserts the refund record implied by the move from previous to
// the order's current payment status. Statuses outside the refund phase are ignored.
func (s *LedgerSync) SyncRefund(ctx context.Context, order *domain.Order, previous domain.PaymentStatus) error {
	target, ok := domain.RefundTarget(previous, order.Payment.Status)
	if !ok {
		return nil
	}

	now := s.now()
	record := &domain.RefundRecord{
		ID:          s.ids("rfd"),
		OrderID:     order.ID,
		Status:      target,
		Amount:      order.Totals.GrandTotal,
		GatewayRef:  order.Payment.GatewayRef,
		RequestedAt: now,
		UpdatedAt:   now,
	}
	if target == domain.RefundProcessed {
		record.ProcessedAt = &now
	}

	applied, err := s.repo.UpsertRefund(ctx, record)
	if err != nil {
		return err
	}
	if !applied {
		s.log.WithContext(ctx).Debug("refund record already at or past status",
			zap.String("status", string(target)),
		)
		return nil
	}

	s.log.WithContext(ctx).Info("refund record synced",
		zap.String("status", string(target)),
	)
	if s.stream != nil {
		if err := s.stream.RefundChanged(ctx, record); err != nil {
			s.log.WithContext(ctx).Warn("failed to stream refund change",
				zap.Error(err),
			)
		}
	}
	return nil
}

// SyncReturn mirrors the order's return request into its return record
func (s *LedgerSync) SyncReturn(ctx context.Context, order *domain.Order) error {
	rr := order.ReturnRequest
	if rr == nil {
		return nil
	}

	record := &domain.ReturnRecord{
		ID:          s.ids("ret"),
		OrderID:     order.ID,
		Status:      rr.Status,
		Reason:      rr.Reason,
		RequestedAt: rr.RequestedAt,
		ClosedAt:    rr.ClosedAt,
		UpdatedAt:   s.now(),
	}

	applied, err := s.repo.UpsertReturn(ctx, record)
	if err != nil {
		return err
	}
	if applied && s.stream != nil {
		if err := s.stream.ReturnChanged(ctx, record); err != nil {
			s.log.WithContext(ctx).Warn("failed to stream return change",
				zap.Error(err),
			)
		}
	}
	return nil
}

// Resync re-applies both mirrors from the order's current state. It repairs
// records whose post-commit sync failed.
func (s *LedgerSync) Resync(ctx context.Context, order *domain.Order) error {
	switch order.Payment.Status {
	case domain.PaymentRefundPending, domain.PaymentRefunded:
		if err := s.SyncRefund(ctx, order, domain.PaymentPaid); err != nil {
			return err
		}
	case domain.PaymentFailed:
		// a failed payment is a failed refund only if a refund was opened
		if _, err := s.repo.GetRefund(ctx, order.ID); err == nil {
			if err := s.SyncRefund(ctx, order, domain.PaymentRefundPending); err != nil {
				return err
			}
		} else if !errors.Is(err, errors.CodeNotFound) {
			return err
		}
	}
	return s.SyncReturn(ctx, order)
}

// ApproveRefund moves a requested refund to APPROVED
func (s *LedgerSync) ApproveRefund(ctx context.Context, orderID string) (*domain.RefundRecord, error) {
	record, err := s.repo.GetRefund(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !record.Advance(domain.RefundApproved, s.now()) {
		return nil, errors.NewConflict("refund is already " + string(record.Status))
	}

	applied, err := s.repo.UpsertRefund(ctx, record)
	if err != nil {
		return nil, errors.NewInternal("failed to approve refund", err)
	}
	if !applied {
		return nil, errors.NewConflict("refund was updated concurrently")
	}
	if s.stream != nil {
		if err := s.stream.RefundChanged(ctx, record); err != nil {
			s.log.WithContext(ctx).Warn("failed to stream refund change",
				zap.Error(err),
			)
		}
	}
	return record, nil
}
