// Package ordersv1 declares the orders.v1.OrderService gRPC API
package ordersv1

import (
	"context"

	"google.golang.org/grpc"

	grpcpkg "go-commerce/pkg/grpc"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "orders.v1.OrderService"

const (
	getOrderMethod            = "/" + ServiceName + "/GetOrder"
	createOrderMethod         = "/" + ServiceName + "/CreateOrder"
	requestTransitionMethod   = "/" + ServiceName + "/RequestTransition"
	updatePaymentStatusMethod = "/" + ServiceName + "/UpdatePaymentStatus"
	cancelOrderMethod         = "/" + ServiceName + "/CancelOrder"
)

type GetOrderRequest struct {
	ID string `json:"id"`
}

type LineItem struct {
	ProductRef string `json:"productRef"`
	Name       string `json:"name,omitempty"`
	Quantity   int64  `json:"quantity"`
	UnitPrice  int64  `json:"unitPrice"`
}

type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type CreateOrderRequest struct {
	CustomerID    string     `json:"customerId"`
	PaymentMethod string     `json:"paymentMethod"`
	Items         []LineItem `json:"items"`
	Address       Address    `json:"address"`
	Shipping      int64      `json:"shipping"`
	Discount      int64      `json:"discount"`
}

type Evidence struct {
	PhotoURL       string `json:"photoUrl,omitempty"`
	Signature      string `json:"signature,omitempty"`
	OTP            string `json:"otp,omitempty"`
	ReasonCode     string `json:"reasonCode,omitempty"`
	Detail         string `json:"detail,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

type TransitionRequest struct {
	OrderID   string   `json:"orderId"`
	Dimension string   `json:"dimension"`
	Target    string   `json:"target"`
	Evidence  Evidence `json:"evidence"`
}

type UpdatePaymentRequest struct {
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	GatewayRef string `json:"gatewayRef,omitempty"`
}

type CancelOrderRequest struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason,omitempty"`
}

type Totals struct {
	Subtotal   int64 `json:"subtotal"`
	Shipping   int64 `json:"shipping"`
	Discount   int64 `json:"discount"`
	GrandTotal int64 `json:"grandTotal"`
}

// Order is returned by every OrderService method
type Order struct {
	ID              string     `json:"id"`
	CustomerID      string     `json:"customerId"`
	OrderState      string     `json:"orderState"`
	DeliveryState   string     `json:"deliveryState"`
	PaymentMethod   string     `json:"paymentMethod"`
	PaymentStatus   string     `json:"paymentStatus"`
	LegacyStatus    string     `json:"status"`
	InventoryStatus string     `json:"inventoryStatus"`
	Items           []LineItem `json:"items"`
	Totals          Totals     `json:"totals"`
	Version         int64      `json:"version"`
	CreatedAt       string     `json:"createdAt"`
	UpdatedAt       string     `json:"updatedAt"`

	// Changed is false when a mutating call was a no-op
	Changed bool `json:"changed"`
	// RequiresExternalConfirmation is set on card orders awaiting the gateway
	RequiresExternalConfirmation bool `json:"requiresExternalConfirmation,omitempty"`
}

// OrderServiceServer is the server API for OrderService
type OrderServiceServer interface {
	GetOrder(ctx context.Context, req *GetOrderRequest) (*Order, error)
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error)
	RequestTransition(ctx context.Context, req *TransitionRequest) (*Order, error)
	UpdatePaymentStatus(ctx context.Context, req *UpdatePaymentRequest) (*Order, error)
	CancelOrder(ctx context.Context, req *CancelOrderRequest) (*Order, error)
}

// ServiceDesc describes OrderService for grpc.Server registration
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcpkg.UnaryMethod("GetOrder", getOrderMethod, OrderServiceServer.GetOrder),
		grpcpkg.UnaryMethod("CreateOrder", createOrderMethod, OrderServiceServer.CreateOrder),
		grpcpkg.UnaryMethod("RequestTransition", requestTransitionMethod, OrderServiceServer.RequestTransition),
		grpcpkg.UnaryMethod("UpdatePaymentStatus", updatePaymentStatusMethod, OrderServiceServer.UpdatePaymentStatus),
		grpcpkg.UnaryMethod("CancelOrder", cancelOrderMethod, OrderServiceServer.CancelOrder),
	},
	Metadata: "orders/v1/orders.proto",
}

// RegisterOrderServiceServer registers srv on s
func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// OrderServiceClient is the client API for OrderService
type OrderServiceClient interface {
	GetOrder(ctx context.Context, req *GetOrderRequest, opts ...grpc.CallOption) (*Order, error)
	CreateOrder(ctx context.Context, req *CreateOrderRequest, opts ...grpc.CallOption) (*Order, error)
	RequestTransition(ctx context.Context, req *TransitionRequest, opts ...grpc.CallOption) (*Order, error)
	UpdatePaymentStatus(ctx context.Context, req *UpdatePaymentRequest, opts ...grpc.CallOption) (*Order, error)
	CancelOrder(ctx context.Context, req *CancelOrderRequest, opts ...grpc.CallOption) (*Order, error)
}

type orderServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewOrderServiceClient creates a client on cc
func NewOrderServiceClient(cc grpc.ClientConnInterface) OrderServiceClient {
	return &orderServiceClient{cc: cc}
}

func (c *orderServiceClient) GetOrder(ctx context.Context, req *GetOrderRequest, opts ...grpc.CallOption) (*Order, error) {
	return grpcpkg.Invoke[GetOrderRequest, Order](ctx, c.cc, getOrderMethod, req, opts...)
}

func (c *orderServiceClient) CreateOrder(ctx context.Context, req *CreateOrderRequest, opts ...grpc.CallOption) (*Order, error) {
	return grpcpkg.Invoke[CreateOrderRequest, Order](ctx, c.cc, createOrderMethod, req, opts...)
}

func (c *orderServiceClient) RequestTransition(ctx context.Context, req *TransitionRequest, opts ...grpc.CallOption) (*Order, error) {
	return grpcpkg.Invoke[TransitionRequest, Order](ctx, c.cc, requestTransitionMethod, req, opts...)
}

func (c *orderServiceClient) UpdatePaymentStatus(ctx context.Context, req *UpdatePaymentRequest, opts ...grpc.CallOption) (*Order, error) {
	return grpcpkg.Invoke[UpdatePaymentRequest, Order](ctx, c.cc, updatePaymentStatusMethod, req, opts...)
}

func (c *orderServiceClient) CancelOrder(ctx context.Context, req *CancelOrderRequest, opts ...grpc.CallOption) (*Order, error) {
	return grpcpkg.Invoke[CancelOrderRequest, Order](ctx, c.cc, cancelOrderMethod, req, opts...)
}
