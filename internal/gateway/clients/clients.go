// Package clients holds the gateway's connections to the backend services.
package clients

import (
	"google.golang.org/grpc"

	catalogv1 "go-commerce/api/catalog/v1"
	ordersv1 "go-commerce/api/orders/v1"
	"go-commerce/pkg/config"
	grpcpkg "go-commerce/pkg/grpc"
)

// Clients bundles the catalog and orders stubs with their connections
type Clients struct {
	Catalog catalogv1.CatalogServiceClient
	Orders  ordersv1.OrderServiceClient

	conns []*grpc.ClientConn
}

// NewClients dials both backends; a failure closes whatever was opened
func NewClients(cfg *config.Config) (*Clients, error) {
	c := &Clients{}
	for _, addr := range []string{cfg.CatalogGRPCAddr, cfg.OrdersGRPCAddr} {
		conn, err := grpcpkg.Dial(cfg, addr)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.conns = append(c.conns, conn)
	}

	c.Catalog = catalogv1.NewCatalogServiceClient(c.conns[0])
	c.Orders = ordersv1.NewOrderServiceClient(c.conns[1])
	return c, nil
}

// Close closes every backend connection
func (c *Clients) Close() error {
	var first error
	for _, conn := range c.conns {
		if err := conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
