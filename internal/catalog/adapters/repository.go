package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go-commerce/internal/catalog/domain"
	apperrors "go-commerce/pkg/errors"
)

// ProductModel is the GORM model for products (persistence layer).
// The order service decrements Stock through its own view of this table.
type ProductModel struct {
	ID        string    `gorm:"primaryKey;size:40"`
	SKU       string    `gorm:"size:64;uniqueIndex;not null"`
	Name      string    `gorm:"size:200;not null"`
	UnitPrice int64     `gorm:"not null"`
	Stock     int64     `gorm:"not null;default:0;check:stock >= 0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// PostgresProductRepository implements ProductRepository using PostgreSQL
type PostgresProductRepository struct {
	db *gorm.DB
}

// NewPostgresProductRepository creates a new PostgreSQL product repository
func NewPostgresProductRepository(db *gorm.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

// Migrate runs auto-migration for the product model
func (r *PostgresProductRepository) Migrate() error {
	return r.db.AutoMigrate(&ProductModel{})
}

// Create creates a new product
func (r *PostgresProductRepository) Create(ctx context.Context, product *domain.Product) error {
	model := toModel(product)

	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrSKUExists
		}
		return apperrors.NewInternal("failed to create product", result.Error)
	}

	product.CreatedAt = model.CreatedAt
	product.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID retrieves a product by ID
func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewProductNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to get product", result.Error)
	}

	return toDomain(&model), nil
}

// GetBySKU retrieves a product by SKU
func (r *PostgresProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	var model ProductModel

	result := r.db.WithContext(ctx).Where("sku = ?", sku).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewProductNotFound(sku)
		}
		return nil, apperrors.NewInternal("failed to get product by sku", result.Error)
	}

	return toDomain(&model), nil
}

// Restock adds quantity to the stock counter in one statement
func (r *PostgresProductRepository) Restock(ctx context.Context, id string, quantity int64) (*domain.Product, error) {
	var model ProductModel

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&ProductModel{}).
			Where("id = ?", id).
			UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
		if result.Error != nil {
			return apperrors.NewInternal("failed to restock product", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewProductNotFound(id)
		}
		if err := tx.Where("id = ?", id).First(&model).Error; err != nil {
			return apperrors.NewInternal("failed to reload product", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toDomain(&model), nil
}

// toModel converts a domain entity to a GORM model
func toModel(product *domain.Product) *ProductModel {
	return &ProductModel{
		ID:        product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		Stock:     product.Stock,
		CreatedAt: product.CreatedAt,
		UpdatedAt: product.UpdatedAt,
	}
}

// toDomain converts a GORM model to a domain entity
func toDomain(model *ProductModel) *domain.Product {
	return &domain.Product{
		ID:        model.ID,
		SKU:       model.SKU,
		Name:      model.Name,
		UnitPrice: model.UnitPrice,
		Stock:     model.Stock,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
