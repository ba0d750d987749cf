package infrastructure

import (
	"context"
	"time"

	"go-commerce/internal/orders/application"
	"go-commerce/internal/orders/domain"
)

// stubService records the last input it saw and answers with a fixed order
type stubService struct {
	order   *domain.Order
	refund  *domain.RefundRecord
	ret     *domain.ReturnRecord
	err     error
	changed bool

	created    application.CreateOrderInput
	transition application.TransitionInput
	payment    application.UpdatePaymentInput
	cancel     application.CancelOrderInput
	deleted    string
	returnIn   application.RequestReturnInput
	returnUp   application.UpdateReturnInput
}

func newStubService() *stubService {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &stubService{
		changed: true,
		order: &domain.Order{
			ID:              "ord_1",
			CustomerID:      "cus_1",
			OrderState:      domain.OrderConfirmed,
			DeliveryState:   domain.DeliveryNotDispatched,
			Payment:         domain.Payment{Method: domain.PaymentCOD, Status: domain.PaymentUnpaid},
			Items:           []domain.LineItem{{ProductRef: "sku-1", Name: "Mug", UnitPrice: 1500, Quantity: 2}},
			Totals:          domain.Totals{Subtotal: 3000, Shipping: 500, GrandTotal: 3500},
			LegacyStatus:    domain.StatusPlaced,
			InventoryStatus: domain.InventoryReserved,
			Version:         1,
			CreatedAt:       at,
			UpdatedAt:       at,
		},
	}
}

func (s *stubService) CreateOrder(_ context.Context, in application.CreateOrderInput) (*application.CreateOrderOutput, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return &application.CreateOrderOutput{Order: s.order, RequiresExternalConfirmation: in.Method == domain.PaymentCard}, nil
}

func (s *stubService) GetOrder(_ context.Context, in application.GetOrderInput) (*application.GetOrderOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &application.GetOrderOutput{Order: s.order}, nil
}

func (s *stubService) RequestTransition(_ context.Context, in application.TransitionInput) (*application.OrderOutput, error) {
	s.transition = in
	return s.output()
}

func (s *stubService) UpdatePaymentStatus(_ context.Context, in application.UpdatePaymentInput) (*application.OrderOutput, error) {
	s.payment = in
	return s.output()
}

func (s *stubService) CancelOrder(_ context.Context, in application.CancelOrderInput) (*application.OrderOutput, error) {
	s.cancel = in
	return s.output()
}

func (s *stubService) DeleteOrder(_ context.Context, in application.DeleteOrderInput) error {
	s.deleted = in.OrderID
	return s.err
}

func (s *stubService) RequestReturn(_ context.Context, in application.RequestReturnInput) (*application.OrderOutput, error) {
	s.returnIn = in
	return s.output()
}

func (s *stubService) UpdateReturnStatus(_ context.Context, in application.UpdateReturnInput) (*application.OrderOutput, error) {
	s.returnUp = in
	return s.output()
}

func (s *stubService) GetReturn(_ context.Context, orderID string) (*domain.ReturnRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ret, nil
}

func (s *stubService) GetRefund(_ context.Context, orderID string) (*domain.RefundRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.refund, nil
}

func (s *stubService) ApproveRefund(_ context.Context, orderID string) (*domain.RefundRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.refund, nil
}

func (s *stubService) output() (*application.OrderOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &application.OrderOutput{Order: s.order, Changed: s.changed}, nil
}
