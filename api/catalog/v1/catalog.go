// Package catalogv1 declares the catalog.v1.CatalogService gRPC API
package catalogv1

import (
	"context"

	"google.golang.org/grpc"

	grpcpkg "go-commerce/pkg/grpc"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "catalog.v1.CatalogService"

const getProductMethod = "/" + ServiceName + "/GetProduct"

// GetProductRequest selects a product by id or SKU
type GetProductRequest struct {
	ID string `json:"id"`
}

// Product is the catalog view of one product
type Product struct {
	ID        string `json:"id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Stock     int64  `json:"stock"`
}

// CatalogServiceServer is the server API for CatalogService
type CatalogServiceServer interface {
	GetProduct(ctx context.Context, req *GetProductRequest) (*Product, error)
}

// ServiceDesc describes CatalogService for grpc.Server registration
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcpkg.UnaryMethod("GetProduct", getProductMethod, CatalogServiceServer.GetProduct),
	},
	Metadata: "catalog/v1/catalog.proto",
}

// RegisterCatalogServiceServer registers srv on s
func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// CatalogServiceClient is the client API for CatalogService
type CatalogServiceClient interface {
	GetProduct(ctx context.Context, req *GetProductRequest, opts ...grpc.CallOption) (*Product, error)
}

type catalogServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewCatalogServiceClient creates a client on cc
func NewCatalogServiceClient(cc grpc.ClientConnInterface) CatalogServiceClient {
	return &catalogServiceClient{cc: cc}
}

func (c *catalogServiceClient) GetProduct(ctx context.Context, req *GetProductRequest, opts ...grpc.CallOption) (*Product, error) {
	return grpcpkg.Invoke[GetProductRequest, Product](ctx, c.cc, getProductMethod, req, opts...)
}
