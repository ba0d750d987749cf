package application

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"go-commerce/internal/catalog/domain"
	"go-commerce/internal/catalog/ports"
	"go-commerce/pkg/errors"
	"go-commerce/pkg/logger"
)

// ProductUseCase handles catalog business logic
type ProductUseCase struct {
	repo      ports.ProductRepository
	publisher ports.EventPublisher
	now       func() time.Time
	log       *logger.Logger
}

// NewProductUseCase creates a new product use case
func NewProductUseCase(repo ports.ProductRepository, publisher ports.EventPublisher, log *logger.Logger) *ProductUseCase {
	return &ProductUseCase{
		repo:      repo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

// CreateProductInput represents the input for creating a product
type CreateProductInput struct {
	SKU       string
	Name      string
	UnitPrice int64
	Stock     int64
}

// ProductOutput carries the product returned by every operation
type ProductOutput struct {
	Product *domain.Product
}

// CreateProduct creates a new product
func (uc *ProductUseCase) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductOutput, error) {
	product, err := domain.NewProduct("prd_"+ulid.Make().String(), input.SKU, input.Name, input.UnitPrice, input.Stock, uc.now())
	if err != nil {
		return nil, err
	}

	existing, err := uc.repo.GetBySKU(ctx, product.SKU)
	if err != nil && !errors.Is(err, errors.CodeNotFound) {
		return nil, errors.NewInternal("failed to check sku existence", err)
	}
	if existing != nil {
		return nil, domain.ErrSKUExists
	}

	if err := uc.repo.Create(ctx, product); err != nil {
		if errors.Is(err, errors.CodeConflict) {
			return nil, domain.ErrSKUExists
		}
		return nil, errors.NewInternal("failed to create product", err)
	}

	// Publish event (don't fail on error)
	if uc.publisher != nil {
		if err := uc.publisher.PublishProductCreated(ctx, product); err != nil {
			uc.log.WithContext(ctx).Error("failed to publish product created event",
				zap.Error(err),
				zap.String("product_id", product.ID),
			)
		}
	}

	uc.log.WithContext(ctx).Info("product created",
		zap.String("product_id", product.ID),
		zap.String("sku", product.SKU),
		zap.Int64("stock", product.Stock),
	)

	return &ProductOutput{Product: product}, nil
}

// GetProductInput selects a product by ID or SKU
type GetProductInput struct {
	Ref string
}

// GetProduct retrieves a product by ID, falling back to SKU
func (uc *ProductUseCase) GetProduct(ctx context.Context, input GetProductInput) (*ProductOutput, error) {
	ref := strings.TrimSpace(input.Ref)
	if ref == "" {
		return nil, errors.NewValidation("product id or sku is required", nil)
	}

	product, err := uc.repo.GetByID(ctx, ref)
	if errors.Is(err, errors.CodeNotFound) {
		product, err = uc.repo.GetBySKU(ctx, strings.ToUpper(ref))
	}
	if err != nil {
		return nil, err
	}

	return &ProductOutput{Product: product}, nil
}

// RestockInput adds units to a product's stock counter
type RestockInput struct {
	ID       string
	Quantity int64
}

// Restock increments stock
func (uc *ProductUseCase) Restock(ctx context.Context, input RestockInput) (*ProductOutput, error) {
	if input.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := uc.repo.Restock(ctx, input.ID, input.Quantity)
	if err != nil {
		return nil, err
	}

	uc.log.WithContext(ctx).Info("product restocked",
		zap.String("product_id", product.ID),
		zap.Int64("added", input.Quantity),
		zap.Int64("stock", product.Stock),
	)

	return &ProductOutput{Product: product}, nil
}
