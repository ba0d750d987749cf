package application

import (
	"context"
	stderrors "errors"
	"testing"

	"go-commerce/internal/catalog/domain"
	"go-commerce/pkg/errors"
	"go-commerce/pkg/logger"
)

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	products map[string]*domain.Product
	bySKU    map[string]*domain.Product
	createFn func(ctx context.Context, product *domain.Product) error
}

func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products: make(map[string]*domain.Product),
		bySKU:    make(map[string]*domain.Product),
	}
}

func (m *MockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.createFn != nil {
		return m.createFn(ctx, product)
	}
	m.products[product.ID] = product
	m.bySKU[product.SKU] = product
	return nil
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, domain.NewProductNotFound(id)
	}
	return product, nil
}

func (m *MockProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	product, ok := m.bySKU[sku]
	if !ok {
		return nil, domain.NewProductNotFound(sku)
	}
	return product, nil
}

func (m *MockProductRepository) Restock(ctx context.Context, id string, quantity int64) (*domain.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, domain.NewProductNotFound(id)
	}
	product.Stock += quantity
	return product, nil
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	events []*domain.Product
	err    error
}

func (m *MockEventPublisher) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	m.events = append(m.events, product)
	return m.err
}

func newUseCase() (*ProductUseCase, *MockProductRepository, *MockEventPublisher) {
	repo := NewMockProductRepository()
	publisher := &MockEventPublisher{}
	return NewProductUseCase(repo, publisher, logger.New("test", "error")), repo, publisher
}

func TestCreateProduct_Success(t *testing.T) {
	// Arrange
	useCase, _, publisher := newUseCase()

	input := CreateProductInput{
		SKU:       "mug-blue",
		Name:      "Blue Mug",
		UnitPrice: 1500,
		Stock:     10,
	}

	// Act
	output, err := useCase.CreateProduct(context.Background(), input)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output.Product.ID == "" || output.Product.ID[:4] != "prd_" {
		t.Errorf("expected a prd_ id, got '%s'", output.Product.ID)
	}

	if output.Product.SKU != "MUG-BLUE" {
		t.Errorf("expected sku 'MUG-BLUE', got '%s'", output.Product.SKU)
	}

	if output.Product.Stock != 10 {
		t.Errorf("expected stock 10, got %d", output.Product.Stock)
	}

	if len(publisher.events) != 1 {
		t.Errorf("expected 1 event published, got %d", len(publisher.events))
	}
}

func TestCreateProduct_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input CreateProductInput
		want  error
	}{
		{"missing sku", CreateProductInput{Name: "Blue Mug"}, domain.ErrSKURequired},
		{"bad sku", CreateProductInput{SKU: "mug blue", Name: "Blue Mug"}, domain.ErrSKUInvalid},
		{"missing name", CreateProductInput{SKU: "MUG-1"}, domain.ErrNameRequired},
		{"negative price", CreateProductInput{SKU: "MUG-1", Name: "Blue Mug", UnitPrice: -1}, domain.ErrNegativePrice},
		{"negative stock", CreateProductInput{SKU: "MUG-1", Name: "Blue Mug", Stock: -5}, domain.ErrNegativeStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useCase, _, publisher := newUseCase()

			_, err := useCase.CreateProduct(context.Background(), tt.input)

			if err != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, errors.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
			if len(publisher.events) != 0 {
				t.Errorf("expected no events, got %d", len(publisher.events))
			}
		})
	}
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	// Arrange
	useCase, _, _ := newUseCase()
	_, _ = useCase.CreateProduct(context.Background(), CreateProductInput{SKU: "MUG-1", Name: "Blue Mug"})

	// Act
	_, err := useCase.CreateProduct(context.Background(), CreateProductInput{SKU: "mug-1", Name: "Red Mug"})

	// Assert
	if !errors.Is(err, errors.CodeConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestCreateProduct_DuplicateSKURace(t *testing.T) {
	// Arrange: the unique index catches a writer that slipped past the lookup
	useCase, repo, _ := newUseCase()
	repo.createFn = func(ctx context.Context, product *domain.Product) error {
		return domain.ErrSKUExists
	}

	// Act
	_, err := useCase.CreateProduct(context.Background(), CreateProductInput{SKU: "MUG-1", Name: "Blue Mug"})

	// Assert
	if err != domain.ErrSKUExists {
		t.Errorf("expected ErrSKUExists, got %v", err)
	}
}

func TestCreateProduct_PublishFailureIsNotFatal(t *testing.T) {
	useCase, _, publisher := newUseCase()
	publisher.err = stderrors.New("broker down")

	output, err := useCase.CreateProduct(context.Background(), CreateProductInput{SKU: "MUG-1", Name: "Blue Mug"})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output.Product == nil {
		t.Fatal("expected product")
	}
}

func TestGetProduct_ByIDAndSKU(t *testing.T) {
	// Arrange
	useCase, _, _ := newUseCase()
	created, err := useCase.CreateProduct(context.Background(), CreateProductInput{SKU: "MUG-1", Name: "Blue Mug"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, ref := range []string{created.Product.ID, "MUG-1", "mug-1"} {
		// Act
		output, err := useCase.GetProduct(context.Background(), GetProductInput{Ref: ref})

		// Assert
		if err != nil {
			t.Fatalf("ref %q: expected no error, got %v", ref, err)
		}
		if output.Product.ID != created.Product.ID {
			t.Errorf("ref %q: expected ID %s, got %s", ref, created.Product.ID, output.Product.ID)
		}
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	// Arrange
	useCase, _, _ := newUseCase()

	// Act
	_, err := useCase.GetProduct(context.Background(), GetProductInput{Ref: "prd_missing"})

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestRestock(t *testing.T) {
	useCase, _, _ := newUseCase()
	created, _ := useCase.CreateProduct(context.Background(), CreateProductInput{SKU: "MUG-1", Name: "Blue Mug", Stock: 2})

	output, err := useCase.Restock(context.Background(), RestockInput{ID: created.Product.ID, Quantity: 5})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if output.Product.Stock != 7 {
		t.Errorf("expected stock 7, got %d", output.Product.Stock)
	}
}

func TestRestock_RejectsNonPositive(t *testing.T) {
	useCase, _, _ := newUseCase()

	_, err := useCase.Restock(context.Background(), RestockInput{ID: "prd_1", Quantity: 0})

	if err != domain.ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}
