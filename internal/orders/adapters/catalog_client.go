package adapters

import (
	"context"

	"google.golang.org/grpc"

	catalogv1 "go-commerce/api/catalog/v1"
	"go-commerce/internal/orders/ports"
	"go-commerce/pkg/config"
	grpcpkg "go-commerce/pkg/grpc"
)

// GRPCCatalogClient resolves product prices from the catalog service
type GRPCCatalogClient struct {
	client catalogv1.CatalogServiceClient
	conn   *grpc.ClientConn
}

// NewGRPCCatalogClient dials CATALOG_GRPC_ADDR
func NewGRPCCatalogClient(cfg *config.Config) (*GRPCCatalogClient, error) {
	conn, err := grpcpkg.Dial(cfg, cfg.CatalogGRPCAddr)
	if err != nil {
		return nil, err
	}
	return &GRPCCatalogClient{
		client: catalogv1.NewCatalogServiceClient(conn),
		conn:   conn,
	}, nil
}

// GetProduct retrieves the current price and name of a product via gRPC
func (c *GRPCCatalogClient) GetProduct(ctx context.Context, productRef string) (*ports.ProductInfo, error) {
	resp, err := c.client.GetProduct(ctx, &catalogv1.GetProductRequest{ID: productRef})
	if err != nil {
		return nil, err
	}

	return &ports.ProductInfo{
		Ref:       resp.ID,
		Name:      resp.Name,
		UnitPrice: resp.UnitPrice,
	}, nil
}

// Close closes the gRPC connection
func (c *GRPCCatalogClient) Close() error {
	return c.conn.Close()
}
