package ports

import (
	"context"
	"time"

	"go-commerce/internal/orders/domain"
	"go-commerce/pkg/lock"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// Create stores a new order at version 1
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by ID
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// Update stores order if the persisted version still equals order.Version,
	// then bumps order.Version. It returns domain.ErrConcurrentModification otherwise.
	Update(ctx context.Context, order *domain.Order) error

	// Delete deletes an order by ID
	Delete(ctx context.Context, id string) error

	// ListUpdatedSince returns orders touched at or after since, oldest first
	ListUpdatedSince(ctx context.Context, since time.Time, limit int) ([]*domain.Order, error)
}

// InventoryReserver decrements and restores product stock counters.
// Reserve is all-or-nothing and returns *domain.InventoryShortfallError naming
// every short line.
type InventoryReserver interface {
	Reserve(ctx context.Context, orderID string, items []domain.LineItem) error
	Release(ctx context.Context, orderID string, items []domain.LineItem) error
}

// LedgerRepository stores the refund and return audit records.
// Upserts never move a record to a lower or equal rank.
type LedgerRepository interface {
	UpsertRefund(ctx context.Context, record *domain.RefundRecord) (applied bool, err error)
	UpsertReturn(ctx context.Context, record *domain.ReturnRecord) (applied bool, err error)
	GetRefund(ctx context.Context, orderID string) (*domain.RefundRecord, error)
	GetReturn(ctx context.Context, orderID string) (*domain.ReturnRecord, error)
}

// LedgerStream receives every applied ledger change
type LedgerStream interface {
	RefundChanged(ctx context.Context, record *domain.RefundRecord) error
	ReturnChanged(ctx context.Context, record *domain.ReturnRecord) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishOrderTransitioned(ctx context.Context, order *domain.Order, changes []StateChange) error
	PublishOrderDeleted(ctx context.Context, order *domain.Order) error
	PublishReservationFailed(ctx context.Context, order *domain.Order, shortfall *domain.InventoryShortfallError) error
}

// StateChange is one accepted move on one dimension
type StateChange struct {
	Dimension domain.Dimension
	From      string
	To        string
}

// CatalogClient resolves current product data at checkout
type CatalogClient interface {
	GetProduct(ctx context.Context, productRef string) (*ProductInfo, error)
}

// ProductInfo represents product information from the catalog service
type ProductInfo struct {
	Ref       string
	Name      string
	UnitPrice int64
}

// UnitOfWork runs fn inside one transaction shared by the repositories above
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker serializes operations on one order, keyed by order id
type Locker = lock.Locker

// Clock returns the current time
type Clock func() time.Time

// IDGenerator returns a new unique identifier with the given prefix
type IDGenerator func(prefix string) string
