package adapters

import (
	"context"

	"go-commerce/internal/catalog/domain"
	"go-commerce/pkg/events"
	"go-commerce/pkg/logger"
	"go-commerce/pkg/rabbitmq"
)

// RabbitMQPublisher implements EventPublisher using RabbitMQ
type RabbitMQPublisher struct {
	publisher *rabbitmq.Publisher
	log       *logger.Logger
}

// NewRabbitMQPublisher creates a new RabbitMQ event publisher
func NewRabbitMQPublisher(publisher *rabbitmq.Publisher, log *logger.Logger) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		publisher: publisher,
		log:       log,
	}
}

// PublishProductCreated publishes a product created event
func (p *RabbitMQPublisher) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	event := events.NewProductCreatedEvent(events.ProductCreatedPayload{
		ID:        product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		Stock:     product.Stock,
		CreatedAt: product.CreatedAt,
	}, logger.GetTraceID(ctx))

	return p.publisher.Publish(ctx, events.RoutingKeyProductCreated, event)
}
