package ports

import (
	"context"

	"go-commerce/internal/catalog/domain"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// Create creates a new product
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product by ID
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetBySKU retrieves a product by SKU
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)

	// Restock atomically adds quantity to the stock counter and returns the new state
	Restock(ctx context.Context, id string, quantity int64) (*domain.Product, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// PublishProductCreated publishes a product created event
	PublishProductCreated(ctx context.Context, product *domain.Product) error
}
