package application

import (
	"context"
	"time"

	"go-commerce/internal/orders/domain"
	"go-commerce/internal/orders/ports"
	"go-commerce/pkg/errors"
)

// mutation collects the changes applied to one order within one operation
type mutation struct {
	order           *domain.Order
	at              time.Time
	changes         []ports.StateChange
	previousPayment domain.PaymentStatus
	returnChanged   bool
	metaChanged     bool
}

func newMutation(current *domain.Order, at time.Time) *mutation {
	return &mutation{
		order:           current.Clone(),
		at:              at,
		previousPayment: current.Payment.Status,
	}
}

// set moves dim to state and records the change
func (m *mutation) set(dim domain.Dimension, state string) {
	from := m.order.State(dim)
	if from == state {
		return
	}
	m.order.SetState(dim, state)
	m.changes = append(m.changes, ports.StateChange{Dimension: dim, From: from, To: state})
}

func (m *mutation) dirty() bool {
	return len(m.changes) > 0 || m.returnChanged || m.metaChanged
}

// mirrors pairs order and delivery states that describe the same phase
var mirrors = map[domain.Dimension]map[string]string{
	domain.DimensionDelivery: {
		string(domain.DeliveryShipped):             string(domain.OrderShipped),
		string(domain.DeliveryOutForDelivery):      string(domain.OrderOutForDelivery),
		string(domain.DeliveryDelivered):           string(domain.OrderDelivered),
		string(domain.DeliveryReturnedToWarehouse): string(domain.OrderReturned),
	},
	domain.DimensionOrder: {
		string(domain.OrderShipped):        string(domain.DeliveryShipped),
		string(domain.OrderOutForDelivery): string(domain.DeliveryOutForDelivery),
		string(domain.OrderDelivered):      string(domain.DeliveryDelivered),
	},
}

func otherDimension(dim domain.Dimension) domain.Dimension {
	if dim == domain.DimensionOrder {
		return domain.DimensionDelivery
	}
	return domain.DimensionOrder
}

// applyTransition is the single entry point for a requested move on one dimension
func (uc *OrderUseCase) applyTransition(ctx context.Context, m *mutation, dim domain.Dimension, target string, ev domain.Evidence) error {
	o := m.order
	from := o.State(dim)
	if from == target {
		return nil
	}
	if !domain.CanTransition(dim, from, target) {
		return &domain.IllegalTransitionError{Dimension: dim, From: from, To: target}
	}

	switch dim {
	case domain.DimensionPayment:
		return uc.applyPayment(ctx, m, domain.PaymentStatus(target))

	case domain.DimensionOrder:
		switch domain.OrderState(target) {
		case domain.OrderCancelled:
			reason := ev.Detail
			if reason == "" {
				reason = ev.ReasonCode
			}
			return uc.applyCancel(ctx, m, reason)
		case domain.OrderReturnRequested:
			return uc.applyReturnRequest(m, ev)
		case domain.OrderReturned:
			return uc.applyReturned(ctx, m)
		}
	}

	if domain.IsShippedClass(dim, target) {
		return uc.applyShipped(ctx, m, dim, target, ev)
	}

	if err := domain.CheckEvidence(target, ev, o.DeliveryMeta); err != nil {
		return err
	}
	uc.recordProof(m, target, ev)
	m.set(dim, target)

	if dim == domain.DimensionDelivery && domain.DeliveryState(target) == domain.DeliveryReturnedToWarehouse {
		if domain.CanTransition(domain.DimensionOrder, string(o.OrderState), string(domain.OrderReturned)) {
			return uc.applyReturned(ctx, m)
		}
	}
	return nil
}

// applyShipped handles targets that mean goods have left the warehouse:
// payment gate, capture-on-ship, evidence and the paired dimension.
func (uc *OrderUseCase) applyShipped(ctx context.Context, m *mutation, dim domain.Dimension, target string, ev domain.Evidence) error {
	o := m.order

	if err := domain.CheckDispatch(o.Payment); err != nil {
		return err
	}
	if err := domain.CheckEvidence(target, ev, o.DeliveryMeta); err != nil {
		return err
	}

	other := otherDimension(dim)
	paired, hasPair := mirrors[dim][target]
	pairLegal := hasPair && domain.CanTransition(other, o.State(other), paired)

	// dispatch must move both dimensions, otherwise a cancelled order could
	// ship; order-side requests always drive the parcel state with them
	requirePair := target == string(domain.DeliveryShipped) || dim == domain.DimensionOrder
	if requirePair && !pairLegal && o.State(other) != paired {
		return &domain.IllegalTransitionError{Dimension: other, From: o.State(other), To: paired}
	}

	if domain.NeedsCapture(o.Payment) {
		m.set(domain.DimensionPayment, string(domain.PaymentPaid))
		if err := uc.reserve(ctx, o); err != nil {
			return err
		}
	}

	uc.recordProof(m, target, ev)
	m.set(dim, target)
	if pairLegal {
		m.set(other, paired)
	}
	return nil
}

// applyPayment moves the payment dimension and its stock and refund consequences
func (uc *OrderUseCase) applyPayment(ctx context.Context, m *mutation, target domain.PaymentStatus) error {
	o := m.order
	if err := domain.CheckRefundWindow(target, o.DeliveryState); err != nil {
		return err
	}
	m.set(domain.DimensionPayment, string(target))

	if target != domain.PaymentPaid {
		return nil
	}
	if o.OrderState == domain.OrderCancelled {
		// money arrived for an order that no longer ships
		m.set(domain.DimensionPayment, string(domain.PaymentRefundPending))
		return nil
	}
	if o.Payment.Method == domain.PaymentCard {
		return uc.reserve(ctx, o)
	}
	return nil
}

// applyCancel cancels an undispatched order
func (uc *OrderUseCase) applyCancel(ctx context.Context, m *mutation, reason string) error {
	o := m.order
	if o.DeliveryState != domain.DeliveryNotDispatched {
		return &domain.AlreadyDispatchedError{OrderID: o.ID, DeliveryState: o.DeliveryState}
	}
	if !domain.CanTransition(domain.DimensionOrder, string(o.OrderState), string(domain.OrderCancelled)) {
		return &domain.IllegalTransitionError{
			Dimension: domain.DimensionOrder,
			From:      string(o.OrderState),
			To:        string(domain.OrderCancelled),
		}
	}
	if err := uc.release(ctx, o); err != nil {
		return err
	}

	o.DeliveryMeta.RecordReason("cancelled", reason)
	m.metaChanged = true
	m.set(domain.DimensionOrder, string(domain.OrderCancelled))

	if o.Payment.Status == domain.PaymentPaid {
		m.set(domain.DimensionPayment, string(domain.PaymentRefundPending))
	}
	return nil
}

// applyReturnRequest opens a return for a delivered order
func (uc *OrderUseCase) applyReturnRequest(m *mutation, ev domain.Evidence) error {
	o := m.order
	reason := ev.Detail
	if reason == "" {
		reason = ev.ReasonCode
	}
	if reason == "" {
		return domain.ErrReturnReason
	}
	o.ReturnRequest = &domain.ReturnRequest{
		Status:      domain.ReturnRequested,
		Reason:      reason,
		RequestedAt: m.at,
		UpdatedAt:   m.at,
	}
	m.returnChanged = true
	m.set(domain.DimensionOrder, string(domain.OrderReturnRequested))
	return nil
}

// applyReturned marks goods back in the warehouse, restores stock and opens a
// refund for settled payments.
func (uc *OrderUseCase) applyReturned(ctx context.Context, m *mutation) error {
	o := m.order
	if domain.InDeliveryChannel(o.DeliveryState) {
		// the parcel must come back before the order can close as returned
		return &domain.IllegalTransitionError{
			Dimension: domain.DimensionDelivery,
			From:      string(o.DeliveryState),
			To:        string(domain.DeliveryReturnedToWarehouse),
		}
	}
	if rr := o.ReturnRequest; rr != nil && o.OrderState == domain.OrderReturnRequested && rr.Status != domain.ReturnApproved {
		return &domain.IllegalTransitionError{
			Dimension: domain.DimensionReturn,
			From:      string(rr.Status),
			To:        string(domain.ReturnReceived),
		}
	}
	if err := uc.release(ctx, o); err != nil {
		return err
	}

	if rr := o.ReturnRequest; rr != nil && domain.CanTransitionReturn(rr.Status, domain.ReturnReceived) {
		rr.Status = domain.ReturnReceived
		rr.UpdatedAt = m.at
		m.returnChanged = true
	}
	m.set(domain.DimensionOrder, string(domain.OrderReturned))

	if o.Payment.Status == domain.PaymentPaid {
		m.set(domain.DimensionPayment, string(domain.PaymentRefundPending))
	}
	return nil
}

// applyReturnStatus moves the return request and its order consequences
func (uc *OrderUseCase) applyReturnStatus(ctx context.Context, m *mutation, status domain.ReturnStatus) error {
	o := m.order
	rr := o.ReturnRequest
	if rr == nil {
		return errors.NewNotFound("return", o.ID)
	}
	if rr.Status == status {
		return nil
	}
	if !domain.CanTransitionReturn(rr.Status, status) {
		return &domain.IllegalTransitionError{
			Dimension: domain.DimensionReturn,
			From:      string(rr.Status),
			To:        string(status),
		}
	}

	if status == domain.ReturnReceived {
		if !domain.CanTransition(domain.DimensionOrder, string(o.OrderState), string(domain.OrderReturned)) {
			return &domain.IllegalTransitionError{
				Dimension: domain.DimensionOrder,
				From:      string(o.OrderState),
				To:        string(domain.OrderReturned),
			}
		}
		// applyReturned advances the request to received
		return uc.applyReturned(ctx, m)
	}

	rr.Status = status
	rr.UpdatedAt = m.at
	if status == domain.ReturnClosed {
		closed := m.at
		rr.ClosedAt = &closed
	}
	m.returnChanged = true
	return nil
}

func (uc *OrderUseCase) recordProof(m *mutation, target string, ev domain.Evidence) {
	if ev.IsZero() {
		return
	}
	m.order.DeliveryMeta.RecordProof(target, ev)
	m.metaChanged = true
}
