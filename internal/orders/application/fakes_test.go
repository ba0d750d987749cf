package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-commerce/internal/orders/domain"
	"go-commerce/internal/orders/ports"
	"go-commerce/pkg/errors"
)

// memOrderRepository stores copies of orders and enforces the version check
type memOrderRepository struct {
	mu        sync.Mutex
	orders    map[string]*domain.Order
	conflicts int
	updates   int
}

func newMemOrderRepository() *memOrderRepository {
	return &memOrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *memOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[order.ID]; ok {
		return errors.NewConflict("order already exists")
	}
	order.Version = 1
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *memOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.NewOrderNotFound(id)
	}
	return order.Clone(), nil
}

func (r *memOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts > 0 {
		r.conflicts--
		return domain.ErrConcurrentModification
	}
	stored, ok := r.orders[order.ID]
	if !ok {
		return domain.NewOrderNotFound(order.ID)
	}
	if stored.Version != order.Version {
		return domain.ErrConcurrentModification
	}
	order.Version++
	r.orders[order.ID] = order.Clone()
	r.updates++
	return nil
}

func (r *memOrderRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

func (r *memOrderRepository) ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if !o.UpdatedAt.Before(since) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memOrderRepository) stored(id string) *domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		return o.Clone()
	}
	return nil
}

// memInventory is an all-or-nothing stock counter
type memInventory struct {
	mu       sync.Mutex
	stock    map[string]int64
	reserves int
	releases int
}

func newMemInventory(stock map[string]int64) *memInventory {
	return &memInventory{stock: stock}
}

func (i *memInventory) Reserve(ctx context.Context, orderID string, items []domain.LineItem) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	wanted := make(map[string]int64)
	for _, item := range items {
		wanted[item.ProductRef] += item.Quantity
	}
	var short []domain.ShortLine
	for _, item := range items {
		if available := i.stock[item.ProductRef]; available < wanted[item.ProductRef] {
			short = append(short, domain.ShortLine{
				ProductRef: item.ProductRef,
				Requested:  item.Quantity,
				Available:  available,
			})
		}
	}
	if len(short) > 0 {
		return &domain.InventoryShortfallError{Lines: short}
	}
	for ref, qty := range wanted {
		i.stock[ref] -= qty
	}
	i.reserves++
	return nil
}

func (i *memInventory) Release(ctx context.Context, orderID string, items []domain.LineItem) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, item := range items {
		i.stock[item.ProductRef] += item.Quantity
	}
	i.releases++
	return nil
}

func (i *memInventory) available(ref string) int64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.stock[ref]
}

// memLedger keeps one refund and one return record per order
type memLedger struct {
	mu      sync.Mutex
	refunds map[string]*domain.RefundRecord
	returns map[string]*domain.ReturnRecord
}

func newMemLedger() *memLedger {
	return &memLedger{
		refunds: make(map[string]*domain.RefundRecord),
		returns: make(map[string]*domain.ReturnRecord),
	}
}

func (l *memLedger) UpsertRefund(ctx context.Context, record *domain.RefundRecord) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := l.refunds[record.OrderID]
	if !ok {
		c := *record
		l.refunds[record.OrderID] = &c
		return true, nil
	}
	if !existing.Advance(record.Status, record.UpdatedAt) {
		return false, nil
	}
	return true, nil
}

func (l *memLedger) UpsertReturn(ctx context.Context, record *domain.ReturnRecord) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := l.returns[record.OrderID]
	if !ok {
		c := *record
		l.returns[record.OrderID] = &c
		return true, nil
	}
	if !existing.Advance(record.Status, record.UpdatedAt) {
		return false, nil
	}
	return true, nil
}

func (l *memLedger) GetRefund(ctx context.Context, orderID string) (*domain.RefundRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.refunds[orderID]
	if !ok {
		return nil, errors.NewNotFound("refund", orderID)
	}
	c := *r
	return &c, nil
}

func (l *memLedger) GetReturn(ctx context.Context, orderID string) (*domain.ReturnRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, ok := l.returns[orderID]
	if !ok {
		return nil, errors.NewNotFound("return", orderID)
	}
	c := *r
	return &c, nil
}

// recordingPublisher keeps the names of published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (p *recordingPublisher) record(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.NewInternal("broker down", nil)
	}
	p.events = append(p.events, name)
	return nil
}

func (p *recordingPublisher) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.record("order.created")
}

func (p *recordingPublisher) PublishOrderTransitioned(ctx context.Context, order *domain.Order, changes []ports.StateChange) error {
	return p.record("order.transitioned")
}

func (p *recordingPublisher) PublishOrderDeleted(ctx context.Context, order *domain.Order) error {
	return p.record("order.deleted")
}

func (p *recordingPublisher) PublishReservationFailed(ctx context.Context, order *domain.Order, shortfall *domain.InventoryShortfallError) error {
	return p.record("order.reservation_failed")
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// stubCatalog serves fixed product data
type stubCatalog struct {
	products map[string]*ports.ProductInfo
}

func (c *stubCatalog) GetProduct(ctx context.Context, productRef string) (*ports.ProductInfo, error) {
	p, ok := c.products[productRef]
	if !ok {
		return nil, errors.NewNotFound("product", productRef)
	}
	return p, nil
}
