package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go-commerce/internal/orders/domain"
	"go-commerce/pkg/db"
	apperrors "go-commerce/pkg/errors"
)

// OrderModel is the GORM model for orders (persistence layer)
type OrderModel struct {
	ID              string                `gorm:"primaryKey;size:40"`
	CustomerID      string                `gorm:"index;size:64"`
	OrderState      string                `gorm:"size:32;not null"`
	DeliveryState   string                `gorm:"size:32;not null"`
	PaymentMethod   string                `gorm:"size:8;not null"`
	PaymentStatus   string                `gorm:"size:32;not null"`
	GatewayRef      string                `gorm:"size:128"`
	LegacyStatus    string                `gorm:"size:32;not null"`
	InventoryStatus string                `gorm:"size:16;not null;default:'NONE'"`
	Items           []domain.LineItem     `gorm:"type:jsonb;serializer:json;not null"`
	Totals          domain.Totals         `gorm:"type:jsonb;serializer:json;not null"`
	ShippingAddress domain.Address        `gorm:"type:jsonb;serializer:json;not null"`
	StatusHistory   []domain.HistoryEntry `gorm:"type:jsonb;serializer:json"`
	DeliveryMeta    domain.DeliveryMeta   `gorm:"type:jsonb;serializer:json"`
	ReturnRequest   *domain.ReturnRequest `gorm:"type:jsonb;serializer:json"`
	Version         int64                 `gorm:"not null;default:1"`
	CreatedAt       time.Time
	UpdatedAt       time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *gorm.DB
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository
func NewPostgresOrderRepository(db *gorm.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// Migrate runs auto-migration for the order model
func (r *PostgresOrderRepository) Migrate() error {
	return r.db.AutoMigrate(&OrderModel{})
}

// Create creates a new order
func (r *PostgresOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	order.Version = 1
	model := toModel(order)

	result := db.Conn(ctx, r.db).Create(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperrors.NewConflict("order already exists")
		}
		return storeError("failed to create order", result.Error)
	}

	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID retrieves an order by ID
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel

	result := db.Conn(ctx, r.db).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewOrderNotFound(id)
		}
		return nil, storeError("failed to get order", result.Error)
	}

	return toDomain(&model), nil
}

// Update writes the order if nobody else did since it was read
func (r *PostgresOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	model := toModel(order)
	model.Version = order.Version + 1

	result := db.Conn(ctx, r.db).
		Model(&OrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return storeError("failed to update order", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentModification
	}

	order.Version = model.Version
	return nil
}

// Delete deletes an order by ID
func (r *PostgresOrderRepository) Delete(ctx context.Context, id string) error {
	result := db.Conn(ctx, r.db).Where("id = ?", id).Delete(&OrderModel{})
	if result.Error != nil {
		return storeError("failed to delete order", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewOrderNotFound(id)
	}
	return nil
}

// ListUpdatedSince returns orders touched at or after since, oldest first
func (r *PostgresOrderRepository) ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*domain.Order, error) {
	var models []OrderModel

	result := db.Conn(ctx, r.db).
		Where("updated_at >= ?", since).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models)
	if result.Error != nil {
		return nil, apperrors.NewInternal("failed to list orders", result.Error)
	}

	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = toDomain(&models[i])
	}
	return orders, nil
}

// storeError maps serialization failures to a retryable conflict
func storeError(message string, err error) error {
	if db.IsSerializationFailure(err) {
		return domain.ErrConcurrentModification
	}
	return apperrors.NewInternal(message, err)
}

// toModel converts a domain entity to a GORM model
func toModel(order *domain.Order) *OrderModel {
	return &OrderModel{
		ID:              order.ID,
		CustomerID:      order.CustomerID,
		OrderState:      string(order.OrderState),
		DeliveryState:   string(order.DeliveryState),
		PaymentMethod:   string(order.Payment.Method),
		PaymentStatus:   string(order.Payment.Status),
		GatewayRef:      order.Payment.GatewayRef,
		LegacyStatus:    order.LegacyStatus,
		InventoryStatus: string(order.InventoryStatus),
		Items:           order.Items,
		Totals:          order.Totals,
		ShippingAddress: order.ShippingAddress,
		StatusHistory:   order.StatusHistory,
		DeliveryMeta:    order.DeliveryMeta,
		ReturnRequest:   order.ReturnRequest,
		Version:         order.Version,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

// toDomain converts a GORM model to a domain entity
func toDomain(model *OrderModel) *domain.Order {
	return &domain.Order{
		ID:            model.ID,
		CustomerID:    model.CustomerID,
		OrderState:    domain.OrderState(model.OrderState),
		DeliveryState: domain.DeliveryState(model.DeliveryState),
		Payment: domain.Payment{
			Method:     domain.PaymentMethod(model.PaymentMethod),
			Status:     domain.PaymentStatus(model.PaymentStatus),
			GatewayRef: model.GatewayRef,
		},
		Items:           model.Items,
		Totals:          model.Totals,
		ShippingAddress: model.ShippingAddress,
		LegacyStatus:    model.LegacyStatus,
		StatusHistory:   model.StatusHistory,
		DeliveryMeta:    model.DeliveryMeta,
		ReturnRequest:   model.ReturnRequest,
		InventoryStatus: domain.InventoryStatus(model.InventoryStatus),
		Version:         model.Version,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}
