package infrastructure

import (
	"context"
	"time"

	ordersv1 "go-commerce/api/orders/v1"
	"go-commerce/internal/orders/application"
	"go-commerce/internal/orders/domain"
)

// GRPCServer implements ordersv1.OrderServiceServer
type GRPCServer struct {
	useCase OrderService
}

// NewGRPCServer creates a new gRPC server
func NewGRPCServer(useCase OrderService) *GRPCServer {
	return &GRPCServer{useCase: useCase}
}

var _ ordersv1.OrderServiceServer = (*GRPCServer)(nil)

// GetOrder implements OrderServiceServer.GetOrder
func (s *GRPCServer) GetOrder(ctx context.Context, req *ordersv1.GetOrderRequest) (*ordersv1.Order, error) {
	output, err := s.useCase.GetOrder(ctx, application.GetOrderInput{ID: req.ID})
	if err != nil {
		return nil, err
	}
	return toProto(output.Order, false), nil
}

// CreateOrder implements OrderServiceServer.CreateOrder
func (s *GRPCServer) CreateOrder(ctx context.Context, req *ordersv1.CreateOrderRequest) (*ordersv1.Order, error) {
	items := make([]application.CreateOrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = application.CreateOrderItem{
			ProductRef: item.ProductRef,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		}
	}

	output, err := s.useCase.CreateOrder(ctx, application.CreateOrderInput{
		CustomerID: req.CustomerID,
		Method:     domain.PaymentMethod(req.PaymentMethod),
		Items:      items,
		Address:    domain.Address(req.Address),
		Shipping:   req.Shipping,
		Discount:   req.Discount,
	})
	if err != nil {
		return nil, err
	}

	resp := toProto(output.Order, true)
	resp.RequiresExternalConfirmation = output.RequiresExternalConfirmation
	return resp, nil
}

// RequestTransition implements OrderServiceServer.RequestTransition
func (s *GRPCServer) RequestTransition(ctx context.Context, req *ordersv1.TransitionRequest) (*ordersv1.Order, error) {
	output, err := s.useCase.RequestTransition(ctx, application.TransitionInput{
		OrderID:   req.OrderID,
		Dimension: domain.Dimension(req.Dimension),
		Target:    req.Target,
		Evidence:  domain.Evidence(req.Evidence),
	})
	if err != nil {
		return nil, err
	}
	return toProto(output.Order, output.Changed), nil
}

// UpdatePaymentStatus implements OrderServiceServer.UpdatePaymentStatus
func (s *GRPCServer) UpdatePaymentStatus(ctx context.Context, req *ordersv1.UpdatePaymentRequest) (*ordersv1.Order, error) {
	output, err := s.useCase.UpdatePaymentStatus(ctx, application.UpdatePaymentInput{
		OrderID:    req.OrderID,
		Status:     domain.PaymentStatus(req.Status),
		GatewayRef: req.GatewayRef,
	})
	if err != nil {
		return nil, err
	}
	return toProto(output.Order, output.Changed), nil
}

// CancelOrder implements OrderServiceServer.CancelOrder
func (s *GRPCServer) CancelOrder(ctx context.Context, req *ordersv1.CancelOrderRequest) (*ordersv1.Order, error) {
	output, err := s.useCase.CancelOrder(ctx, application.CancelOrderInput{
		OrderID: req.OrderID,
		Reason:  req.Reason,
	})
	if err != nil {
		return nil, err
	}
	return toProto(output.Order, output.Changed), nil
}

func toProto(o *domain.Order, changed bool) *ordersv1.Order {
	items := make([]ordersv1.LineItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = ordersv1.LineItem{
			ProductRef: item.ProductRef,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
		}
	}

	return &ordersv1.Order{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		OrderState:      string(o.OrderState),
		DeliveryState:   string(o.DeliveryState),
		PaymentMethod:   string(o.Payment.Method),
		PaymentStatus:   string(o.Payment.Status),
		LegacyStatus:    o.LegacyStatus,
		InventoryStatus: string(o.InventoryStatus),
		Items:           items,
		Totals:          ordersv1.Totals(o.Totals),
		Version:         o.Version,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       o.UpdatedAt.Format(time.RFC3339),
		Changed:         changed,
	}
}
