package application

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-commerce/internal/orders/domain"
	"go-commerce/internal/orders/ports"
	"go-commerce/pkg/errors"
	"go-commerce/pkg/lock"
	"go-commerce/pkg/logger"
	"go-commerce/pkg/metrics"
)

const tracerName = "go-commerce/internal/orders/application"

// Deps wires the collaborators of OrderUseCase. Orders, Inventory and Log are
// required; the rest fall back to in-process defaults.
type Deps struct {
	Orders     ports.OrderRepository
	Inventory  ports.InventoryReserver
	Ledger     *LedgerSync
	Publisher  ports.EventPublisher
	Catalog    ports.CatalogClient
	UnitOfWork ports.UnitOfWork
	Locker     ports.Locker
	Clock      ports.Clock
	IDs        ports.IDGenerator
	Metrics    *metrics.OrderMetrics
	Tracer     trace.Tracer
	Log        *logger.Logger

	// MaxConflictWait bounds retries after a concurrent modification
	MaxConflictWait time.Duration
}

// OrderUseCase handles the order lifecycle
type OrderUseCase struct {
	repo            ports.OrderRepository
	inventory       ports.InventoryReserver
	ledger          *LedgerSync
	publisher       ports.EventPublisher
	catalog         ports.CatalogClient
	uow             ports.UnitOfWork
	locker          ports.Locker
	now             ports.Clock
	ids             ports.IDGenerator
	metrics         *metrics.OrderMetrics
	tracer          trace.Tracer
	log             *logger.Logger
	maxConflictWait time.Duration
}

// NewOrderUseCase creates a new order use case
func NewOrderUseCase(deps Deps) *OrderUseCase {
	uc := &OrderUseCase{
		repo:            deps.Orders,
		inventory:       deps.Inventory,
		ledger:          deps.Ledger,
		publisher:       deps.Publisher,
		catalog:         deps.Catalog,
		uow:             deps.UnitOfWork,
		locker:          deps.Locker,
		now:             deps.Clock,
		ids:             deps.IDs,
		metrics:         deps.Metrics,
		tracer:          deps.Tracer,
		log:             deps.Log,
		maxConflictWait: deps.MaxConflictWait,
	}
	if uc.uow == nil {
		uc.uow = noopUnitOfWork{}
	}
	if uc.locker == nil {
		uc.locker = lock.NewKeyedMutex()
	}
	if uc.now == nil {
		uc.now = func() time.Time { return time.Now().UTC() }
	}
	if uc.ids == nil {
		uc.ids = NewID
	}
	if uc.tracer == nil {
		uc.tracer = otel.Tracer(tracerName)
	}
	if uc.maxConflictWait <= 0 {
		uc.maxConflictWait = 2 * time.Second
	}
	return uc
}

// NewID returns a prefixed ULID such as ord_01J...
func NewID(prefix string) string {
	return prefix + "_" + ulid.Make().String()
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// CreateOrderItem is one requested line at checkout
type CreateOrderItem struct {
	ProductRef string
	Quantity   int64
	UnitPrice  int64
}

// CreateOrderInput represents the input for creating an order
type CreateOrderInput struct {
	CustomerID string
	Method     domain.PaymentMethod
	Items      []CreateOrderItem
	Address    domain.Address
	Shipping   int64
	Discount   int64
}

// CreateOrderOutput represents the output of creating an order
type CreateOrderOutput struct {
	Order *domain.Order
	// RequiresExternalConfirmation is set for card orders awaiting the gateway
	RequiresExternalConfirmation bool
}

// CreateOrder prices the items, reserves stock for COD and BANK orders and
// stores the order. A shortfall on any line aborts the whole order.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (out *CreateOrderOutput, err error) {
	start := time.Now()
	ctx, span := uc.tracer.Start(ctx, "orders.CreateOrder",
		trace.WithAttributes(attribute.String("order.payment_method", string(input.Method))))
	defer func() { uc.finish(span, "create", start, err) }()

	items, err := uc.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	order, err := domain.NewOrder(domain.NewOrderParams{
		ID:         uc.ids("ord"),
		CustomerID: input.CustomerID,
		Method:     input.Method,
		Items:      items,
		Address:    input.Address,
		Shipping:   input.Shipping,
		Discount:   input.Discount,
		Now:        uc.now(),
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	err = uc.retryConflicts(ctx, func() error {
		order.InventoryStatus = domain.InventoryNone
		return uc.uow.RunInTx(ctx, func(ctx context.Context) error {
			if order.ReservesAtCreation() {
				if err := uc.reserve(ctx, order); err != nil {
					return err
				}
			}
			return uc.repo.Create(ctx, order)
		})
	})
	if err != nil {
		return nil, uc.translate(err, "failed to create order")
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishOrderCreated(ctx, order); err != nil {
			uc.metrics.SideEffectFailure("event")
			uc.log.WithContext(ctx).Error("failed to publish order created event",
				zap.Error(err),
				zap.String("order_id", order.ID),
			)
		}
	}

	uc.log.WithContext(ctx).Info("order created",
		zap.String("order_id", order.ID),
		zap.String("payment_method", string(order.Payment.Method)),
		zap.Int64("grand_total", order.Totals.GrandTotal),
		zap.String("legacy_status", order.LegacyStatus),
	)

	return &CreateOrderOutput{
		Order:                        order,
		RequiresExternalConfirmation: order.Payment.Method == domain.PaymentCard,
	}, nil
}

// priceItems snapshots catalog prices when a catalog is wired
func (uc *OrderUseCase) priceItems(ctx context.Context, in []CreateOrderItem) ([]domain.LineItem, error) {
	items := make([]domain.LineItem, len(in))
	for i, item := range in {
		items[i] = domain.LineItem{ProductRef: item.ProductRef, UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}
	if uc.catalog == nil {
		return items, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range items {
		i := i
		if items[i].ProductRef == "" {
			continue
		}
		g.Go(func() error {
			product, err := uc.catalog.GetProduct(gctx, items[i].ProductRef)
			if err != nil {
				if errors.Is(err, errors.CodeNotFound) {
					return errors.NewValidation("unknown product", map[string]interface{}{
						"productRef": items[i].ProductRef,
					})
				}
				return errors.Wrap(err, "failed to resolve product price")
			}
			// the catalog accepts a SKU; stock is keyed by product id
			if product.Ref != "" {
				items[i].ProductRef = product.Ref
			}
			items[i].UnitPrice = product.UnitPrice
			items[i].Name = product.Name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetOrderInput represents the input for getting an order
type GetOrderInput struct {
	ID string
}

// GetOrderOutput represents the output of getting an order
type GetOrderOutput struct {
	Order *domain.Order
}

// GetOrder retrieves an order by ID
func (uc *OrderUseCase) GetOrder(ctx context.Context, input GetOrderInput) (*GetOrderOutput, error) {
	order, err := uc.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &GetOrderOutput{Order: order}, nil
}

// TransitionInput requests one dimension to move to Target
type TransitionInput struct {
	OrderID   string
	Dimension domain.Dimension
	Target    string
	Evidence  domain.Evidence
}

// OrderOutput is returned by every mutating operation
type OrderOutput struct {
	Order *domain.Order
	// Changed is false when the request was a no-op
	Changed bool
}

// RequestTransition validates and applies a change on one dimension, together
// with the gates and side effects that change implies.
func (uc *OrderUseCase) RequestTransition(ctx context.Context, input TransitionInput) (*OrderOutput, error) {
	if !isOrderDimension(input.Dimension) {
		return nil, domain.ErrUnknownDimension
	}
	return uc.mutate(ctx, "transition", input.OrderID, func(ctx context.Context, m *mutation) error {
		return uc.applyTransition(ctx, m, input.Dimension, input.Target, input.Evidence)
	})
}

// UpdatePaymentInput carries a payment status reported by the gateway or an admin
type UpdatePaymentInput struct {
	OrderID    string
	Status     domain.PaymentStatus
	GatewayRef string
}

// UpdatePaymentStatus moves the payment dimension. A card payment reaching
// PAID reserves stock; a shortfall fails the whole update.
func (uc *OrderUseCase) UpdatePaymentStatus(ctx context.Context, input UpdatePaymentInput) (*OrderOutput, error) {
	out, err := uc.mutate(ctx, "payment", input.OrderID, func(ctx context.Context, m *mutation) error {
		if err := uc.applyTransition(ctx, m, domain.DimensionPayment, string(input.Status), domain.Evidence{}); err != nil {
			return err
		}
		if input.GatewayRef != "" && len(m.changes) > 0 {
			m.order.Payment.GatewayRef = input.GatewayRef
		}
		return nil
	})

	var shortfall *domain.InventoryShortfallError
	if stderrors.As(err, &shortfall) && uc.publisher != nil {
		ctx := logger.WithOrderIDContext(ctx, input.OrderID)
		if order, getErr := uc.repo.GetByID(ctx, input.OrderID); getErr == nil {
			if pubErr := uc.publisher.PublishReservationFailed(ctx, order, shortfall); pubErr != nil {
				uc.metrics.SideEffectFailure("event")
				uc.log.WithContext(ctx).Error("failed to publish reservation failure",
					zap.Error(pubErr),
				)
			}
		}
	}
	return out, err
}

// CancelOrderInput represents the input for cancelling an order
type CancelOrderInput struct {
	OrderID string
	Reason  string
}

// CancelOrder cancels an order that has not been dispatched and restores its stock
func (uc *OrderUseCase) CancelOrder(ctx context.Context, input CancelOrderInput) (*OrderOutput, error) {
	return uc.mutate(ctx, "cancel", input.OrderID, func(ctx context.Context, m *mutation) error {
		if m.order.OrderState == domain.OrderCancelled {
			return nil
		}
		return uc.applyCancel(ctx, m, input.Reason)
	})
}

// DeleteOrderInput represents the input for deleting an order
type DeleteOrderInput struct {
	OrderID string
}

// DeleteOrder removes an undispatched order and restores any reserved stock
func (uc *OrderUseCase) DeleteOrder(ctx context.Context, input DeleteOrderInput) (err error) {
	start := time.Now()
	ctx, span := uc.tracer.Start(ctx, "orders.DeleteOrder",
		trace.WithAttributes(attribute.String("order.id", input.OrderID)))
	defer func() { uc.finish(span, "delete", start, err) }()

	unlock, err := uc.locker.Lock(ctx, input.OrderID)
	if err != nil {
		return errors.NewInternal("failed to lock order", err)
	}
	defer unlock()

	var deleted *domain.Order
	err = uc.uow.RunInTx(ctx, func(ctx context.Context) error {
		order, err := uc.repo.GetByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.DeliveryState != domain.DeliveryNotDispatched {
			return &domain.AlreadyDispatchedError{OrderID: order.ID, DeliveryState: order.DeliveryState}
		}
		if err := uc.release(ctx, order); err != nil {
			return err
		}
		deleted = order
		return uc.repo.Delete(ctx, order.ID)
	})
	if err != nil {
		return uc.translate(err, "failed to delete order")
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishOrderDeleted(ctx, deleted); err != nil {
			uc.metrics.SideEffectFailure("event")
			uc.log.WithContext(ctx).Error("failed to publish order deleted event",
				zap.Error(err),
				zap.String("order_id", deleted.ID),
			)
		}
	}
	uc.log.WithContext(ctx).Info("order deleted", zap.String("order_id", deleted.ID))
	return nil
}

// RequestReturnInput represents a customer return request
type RequestReturnInput struct {
	OrderID string
	Reason  string
}

// RequestReturn opens a return for a delivered order
func (uc *OrderUseCase) RequestReturn(ctx context.Context, input RequestReturnInput) (*OrderOutput, error) {
	if input.Reason == "" {
		return nil, domain.ErrReturnReason
	}
	return uc.mutate(ctx, "return", input.OrderID, func(ctx context.Context, m *mutation) error {
		return uc.applyTransition(ctx, m, domain.DimensionOrder, string(domain.OrderReturnRequested),
			domain.Evidence{Detail: input.Reason})
	})
}

// UpdateReturnInput moves an open return request
type UpdateReturnInput struct {
	OrderID string
	Status  domain.ReturnStatus
}

// UpdateReturnStatus approves, rejects, receives or closes a return request.
// Receiving the goods marks the order RETURNED and restores stock.
func (uc *OrderUseCase) UpdateReturnStatus(ctx context.Context, input UpdateReturnInput) (*OrderOutput, error) {
	return uc.mutate(ctx, "return", input.OrderID, func(ctx context.Context, m *mutation) error {
		return uc.applyReturnStatus(ctx, m, input.Status)
	})
}

// GetRefund returns the refund audit record of an order
func (uc *OrderUseCase) GetRefund(ctx context.Context, orderID string) (*domain.RefundRecord, error) {
	if uc.ledger == nil {
		return nil, domain.ErrRefundNotFound
	}
	return uc.ledger.repo.GetRefund(ctx, orderID)
}

// GetReturn returns the return audit record of an order
func (uc *OrderUseCase) GetReturn(ctx context.Context, orderID string) (*domain.ReturnRecord, error) {
	if uc.ledger == nil {
		return nil, domain.ErrReturnNotFound
	}
	return uc.ledger.repo.GetReturn(ctx, orderID)
}

// ApproveRefund moves a requested refund record to APPROVED
func (uc *OrderUseCase) ApproveRefund(ctx context.Context, orderID string) (*domain.RefundRecord, error) {
	if uc.ledger == nil {
		return nil, domain.ErrRefundNotFound
	}
	return uc.ledger.ApproveRefund(logger.WithOrderIDContext(ctx, orderID), orderID)
}

// mutate runs fn against a fresh copy of the order under the per-order lock,
// persists the result with a version check and then runs side effects.
func (uc *OrderUseCase) mutate(ctx context.Context, op, orderID string, fn func(ctx context.Context, m *mutation) error) (out *OrderOutput, err error) {
	start := time.Now()
	ctx, span := uc.tracer.Start(ctx, "orders."+op,
		trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { uc.finish(span, op, start, err) }()
	ctx = logger.WithOrderIDContext(ctx, orderID)

	unlock, err := uc.locker.Lock(ctx, orderID)
	if err != nil {
		return nil, errors.NewInternal("failed to lock order", err)
	}
	defer unlock()

	var m *mutation
	err = uc.retryConflicts(ctx, func() error {
		return uc.uow.RunInTx(ctx, func(ctx context.Context) error {
			current, err := uc.repo.GetByID(ctx, orderID)
			if err != nil {
				return err
			}
			m = newMutation(current, uc.now())
			if err := fn(ctx, m); err != nil {
				return err
			}
			if !m.dirty() {
				return nil
			}
			uc.reproject(ctx, m)
			return uc.repo.Update(ctx, m.order)
		})
	})
	if err != nil {
		return nil, uc.translate(err, "failed to update order")
	}

	if m.dirty() {
		uc.afterCommit(ctx, m)
	}
	return &OrderOutput{Order: m.order, Changed: m.dirty()}, nil
}

// retryConflicts re-runs attempt with exponential backoff while it fails with
// a concurrent modification; any other error stops immediately.
func (uc *OrderUseCase) retryConflicts(ctx context.Context, attempt func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 20 * time.Millisecond
	policy.MaxInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = uc.maxConflictWait

	op := func() error {
		err := attempt()
		if stderrors.Is(err, domain.ErrConcurrentModification) {
			uc.metrics.ConflictRetry()
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}

func (uc *OrderUseCase) reproject(ctx context.Context, m *mutation) {
	o := m.order
	o.Reproject(m.at)
	if domain.Inconsistent(o.OrderState, o.DeliveryState) {
		uc.log.WithContext(ctx).Warn("order and delivery states disagree",
			zap.String("order_state", string(o.OrderState)),
			zap.String("delivery_state", string(o.DeliveryState)),
			zap.String("legacy_status", o.LegacyStatus),
		)
	}
}

// afterCommit runs best-effort side effects; failures are logged only
func (uc *OrderUseCase) afterCommit(ctx context.Context, m *mutation) {
	o := m.order
	log := uc.log.WithContext(ctx)

	for _, c := range m.changes {
		uc.metrics.Transition(string(c.Dimension), c.To)
		log.Info("order transitioned",
			zap.String("dimension", string(c.Dimension)),
			zap.String("from", c.From),
			zap.String("to", c.To),
			zap.String("legacy_status", o.LegacyStatus),
		)
	}

	if uc.publisher != nil && len(m.changes) > 0 {
		if err := uc.publisher.PublishOrderTransitioned(ctx, o, m.changes); err != nil {
			uc.metrics.SideEffectFailure("event")
			log.Error("failed to publish order transitioned event",
				zap.Error(err),
			)
		}
	}

	if uc.ledger == nil {
		return
	}
	if o.Payment.Status != m.previousPayment {
		if err := uc.ledger.SyncRefund(ctx, o, m.previousPayment); err != nil {
			uc.metrics.SideEffectFailure("refund_sync")
			log.Error("refund ledger sync failed",
				zap.Error(err),
				zap.String("payment_status", string(o.Payment.Status)),
			)
		}
	}
	if m.returnChanged {
		if err := uc.ledger.SyncReturn(ctx, o); err != nil {
			uc.metrics.SideEffectFailure("return_sync")
			log.Error("return ledger sync failed",
				zap.Error(err),
			)
		}
	}
}

// reserve takes stock for the order once
func (uc *OrderUseCase) reserve(ctx context.Context, o *domain.Order) error {
	if o.InventoryStatus != domain.InventoryNone && o.InventoryStatus != "" {
		return nil
	}
	if err := uc.inventory.Reserve(ctx, o.ID, o.Items); err != nil {
		var shortfall *domain.InventoryShortfallError
		if stderrors.As(err, &shortfall) {
			uc.metrics.Shortfall()
		}
		return err
	}
	o.InventoryStatus = domain.InventoryReserved
	return nil
}

// release restores stock if and only if it was reserved and not yet released
func (uc *OrderUseCase) release(ctx context.Context, o *domain.Order) error {
	if o.InventoryStatus != domain.InventoryReserved {
		return nil
	}
	if err := uc.inventory.Release(ctx, o.ID, o.Items); err != nil {
		return err
	}
	o.InventoryStatus = domain.InventoryReleased
	return nil
}

// translate keeps typed and application errors intact and wraps the rest
func (uc *OrderUseCase) translate(err error, message string) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	return errors.NewInternal(message, err)
}

func (uc *OrderUseCase) finish(span trace.Span, op string, start time.Time, err error) {
	uc.metrics.ObserveSince(op, start)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			uc.metrics.Rejection(appErr.Code)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func isOrderDimension(dim domain.Dimension) bool {
	for _, d := range domain.Dimensions() {
		if d == dim {
			return true
		}
	}
	return false
}
