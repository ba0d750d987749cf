package adapters

import (
	"context"

	"go-commerce/internal/orders/domain"
	"go-commerce/internal/orders/ports"
	"go-commerce/pkg/events"
	"go-commerce/pkg/logger"
)

// messagePublisher is satisfied by *rabbitmq.Publisher
type messagePublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// RabbitMQPublisher implements EventPublisher using RabbitMQ
type RabbitMQPublisher struct {
	publisher messagePublisher
	log       *logger.Logger
}

// NewRabbitMQPublisher creates a new RabbitMQ event publisher
func NewRabbitMQPublisher(publisher messagePublisher, log *logger.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		publisher: publisher,
		log:       log,
	}
}

// PublishOrderCreated publishes an order created event
func (p *RabbitMQPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, events.RoutingKeyOrderCreated, snapshot(order))
}

// PublishOrderTransitioned publishes the accepted changes of one operation.
// A cancellation is also announced on its own routing key.
func (p *RabbitMQPublisher) PublishOrderTransitioned(ctx context.Context, order *domain.Order, changes []ports.StateChange) error {
	payload := snapshot(order)
	payload.Changes = make([]events.StateChange, len(changes))
	cancelled := false
	for i, c := range changes {
		payload.Changes[i] = events.StateChange{Dimension: string(c.Dimension), From: c.From, To: c.To}
		if c.Dimension == domain.DimensionOrder && c.To == string(domain.OrderCancelled) {
			cancelled = true
		}
	}

	if err := p.publish(ctx, events.RoutingKeyOrderTransitioned, payload); err != nil {
		return err
	}
	if cancelled {
		payload.Reason = order.DeliveryMeta.Reasons["cancelled"]
		return p.publish(ctx, events.RoutingKeyOrderCancelled, payload)
	}
	return nil
}

// PublishOrderDeleted publishes an order deleted event
func (p *RabbitMQPublisher) PublishOrderDeleted(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, events.RoutingKeyOrderDeleted, snapshot(order))
}

// PublishReservationFailed tells operators a settled payment found no stock
func (p *RabbitMQPublisher) PublishReservationFailed(ctx context.Context, order *domain.Order, shortfall *domain.InventoryShortfallError) error {
	payload := snapshot(order)
	payload.Shortfall = make([]events.ShortLine, len(shortfall.Lines))
	for i, l := range shortfall.Lines {
		payload.Shortfall[i] = events.ShortLine{ProductRef: l.ProductRef, Requested: l.Requested, Available: l.Available}
	}
	return p.publish(ctx, events.RoutingKeyReservationFailed, payload)
}

func (p *RabbitMQPublisher) publish(ctx context.Context, routingKey string, payload events.OrderPayload) error {
	event := events.NewOrderEvent(routingKey, payload, logger.GetTraceID(ctx))
	return p.publisher.Publish(ctx, routingKey, event)
}

func snapshot(order *domain.Order) events.OrderPayload {
	return events.OrderPayload{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		OrderState:    string(order.OrderState),
		DeliveryState: string(order.DeliveryState),
		PaymentMethod: string(order.Payment.Method),
		PaymentStatus: string(order.Payment.Status),
		LegacyStatus:  order.LegacyStatus,
		GrandTotal:    order.Totals.GrandTotal,
		Version:       order.Version,
		UpdatedAt:     order.UpdatedAt,
	}
}
