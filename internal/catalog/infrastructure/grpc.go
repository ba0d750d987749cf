package infrastructure

import (
	"context"

	catalogv1 "go-commerce/api/catalog/v1"
	"go-commerce/internal/catalog/application"
)

// GRPCServer implements catalogv1.CatalogServiceServer
type GRPCServer struct {
	useCase *application.ProductUseCase
}

// NewGRPCServer creates a new gRPC server
func NewGRPCServer(useCase *application.ProductUseCase) *GRPCServer {
	return &GRPCServer{useCase: useCase}
}

// GetProduct implements CatalogServiceServer.GetProduct
func (s *GRPCServer) GetProduct(ctx context.Context, req *catalogv1.GetProductRequest) (*catalogv1.Product, error) {
	output, err := s.useCase.GetProduct(ctx, application.GetProductInput{
		Ref: req.ID,
	})
	if err != nil {
		return nil, err
	}

	return &catalogv1.Product{
		ID:        output.Product.ID,
		SKU:       output.Product.SKU,
		Name:      output.Product.Name,
		UnitPrice: output.Product.UnitPrice,
		Stock:     output.Product.Stock,
	}, nil
}
