package adapters

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"go-commerce/internal/orders/application"
	"go-commerce/internal/orders/domain"
	"go-commerce/pkg/errors"
	"go-commerce/pkg/events"
	"go-commerce/pkg/logger"
	"go-commerce/pkg/rabbitmq"
)

// PaymentUpdater is the use case the consumer drives
type PaymentUpdater interface {
	UpdatePaymentStatus(ctx context.Context, input application.UpdatePaymentInput) (*application.OrderOutput, error)
}

// PaymentStatusConsumer applies payment gateway notifications to orders.
// Notifications are deduplicated by event id for the configured TTL.
type PaymentStatusConsumer struct {
	consumer *rabbitmq.Consumer
	payments PaymentUpdater
	seen     *gocache.Cache
	log      *logger.Logger
}

// NewPaymentStatusConsumer creates a new consumer for payment status events
func NewPaymentStatusConsumer(conn *rabbitmq.Connection, payments PaymentUpdater, dedupTTL time.Duration, log *logger.Logger) (*PaymentStatusConsumer, error) {
	consumer, err := rabbitmq.NewConsumer(
		conn,
		"orders.payment-status", // queue name
		events.ExchangePayments, // exchange
		[]string{events.RoutingKeyPaymentStatus},
		log,
	)
	if err != nil {
		return nil, err
	}

	return &PaymentStatusConsumer{
		consumer: consumer,
		payments: payments,
		seen:     gocache.New(dedupTTL, dedupTTL),
		log:      log,
	}, nil
}

// Start starts consuming payment status events
func (c *PaymentStatusConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

func (c *PaymentStatusConsumer) handleMessage(ctx context.Context, body []byte) error {
	var event events.PaymentStatusEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.log.WithContext(ctx).Error("failed to unmarshal PaymentStatusEvent",
			zap.Error(err),
		)
		return &rabbitmq.ErrDiscard{Err: err}
	}
	if event.EventID == "" || event.Payload.OrderID == "" {
		return &rabbitmq.ErrDiscard{Err: fmt.Errorf("payment event without event_id or order_id")}
	}

	ctx = logger.WithOrderIDContext(ctx, event.Payload.OrderID)
	if _, dup := c.seen.Get(event.EventID); dup {
		c.log.WithContext(ctx).Debug("duplicate payment event ignored",
			zap.String("event_id", event.EventID),
		)
		return nil
	}

	_, err := c.payments.UpdatePaymentStatus(ctx, application.UpdatePaymentInput{
		OrderID:    event.Payload.OrderID,
		Status:     domain.PaymentStatus(event.Payload.Status),
		GatewayRef: event.Payload.GatewayRef,
	})
	if err != nil && transient(err) {
		// let the broker redeliver
		return err
	}
	if err != nil {
		c.log.WithContext(ctx).Warn("payment event rejected",
			zap.Error(err),
			zap.String("event_id", event.EventID),
			zap.String("status", event.Payload.Status),
		)
	} else {
		c.log.WithContext(ctx).Info("payment event applied",
			zap.String("event_id", event.EventID),
			zap.String("status", event.Payload.Status),
		)
	}

	c.seen.SetDefault(event.EventID, struct{}{})
	return nil
}

// transient reports whether a redelivery may succeed. Rejections carrying a
// client-side code are final for this event.
func transient(err error) bool {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return true
	}
	return appErr.Code == errors.CodeInternal
}
