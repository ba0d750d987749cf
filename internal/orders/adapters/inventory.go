package adapters

import (
	"context"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-commerce/internal/orders/domain"
	"go-commerce/pkg/db"
	apperrors "go-commerce/pkg/errors"
)

// productStock is the slice of the catalog's products table the order
// service touches.
type productStock struct {
	ID    string
	Stock int64
}

func (productStock) TableName() string {
	return "products"
}

// PostgresInventory reserves stock by decrementing products.stock
type PostgresInventory struct {
	db  *gorm.DB
	uow *db.UnitOfWork
}

// NewPostgresInventory creates the inventory adapter
func NewPostgresInventory(gdb *gorm.DB, uow *db.UnitOfWork) *PostgresInventory {
	return &PostgresInventory{db: gdb, uow: uow}
}

// Reserve locks every product row of the order, fails with the full list of
// short lines if any, and otherwise decrements all of them.
func (i *PostgresInventory) Reserve(ctx context.Context, orderID string, items []domain.LineItem) error {
	wanted, refs := aggregate(items)

	return i.uow.RunInTx(ctx, func(ctx context.Context) error {
		tx := db.Conn(ctx, i.db)

		var rows []productStock
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", refs).
			Order("id").
			Find(&rows).Error
		if err != nil {
			return storeError("failed to lock stock", err)
		}

		available := make(map[string]int64, len(rows))
		for _, row := range rows {
			available[row.ID] = row.Stock
		}

		var short []domain.ShortLine
		for _, ref := range refs {
			if available[ref] < wanted[ref] {
				short = append(short, domain.ShortLine{
					ProductRef: ref,
					Requested:  wanted[ref],
					Available:  available[ref],
				})
			}
		}
		if len(short) > 0 {
			return &domain.InventoryShortfallError{Lines: short}
		}

		for _, ref := range refs {
			err := tx.Model(&productStock{}).
				Where("id = ?", ref).
				Update("stock", gorm.Expr("stock - ?", wanted[ref])).Error
			if err != nil {
				return storeError("failed to reserve stock", err)
			}
		}
		return nil
	})
}

// Release adds the order's quantities back
func (i *PostgresInventory) Release(ctx context.Context, orderID string, items []domain.LineItem) error {
	wanted, refs := aggregate(items)

	return i.uow.RunInTx(ctx, func(ctx context.Context) error {
		tx := db.Conn(ctx, i.db)
		for _, ref := range refs {
			result := tx.Model(&productStock{}).
				Where("id = ?", ref).
				Update("stock", gorm.Expr("stock + ?", wanted[ref]))
			if result.Error != nil {
				return storeError("failed to release stock", result.Error)
			}
			if result.RowsAffected == 0 {
				return apperrors.NewNotFound("product", ref)
			}
		}
		return nil
	})
}

// aggregate sums quantities per product and returns the refs in a stable
// order so concurrent reservations lock rows in the same sequence.
func aggregate(items []domain.LineItem) (map[string]int64, []string) {
	wanted := make(map[string]int64, len(items))
	for _, item := range items {
		wanted[item.ProductRef] += item.Quantity
	}
	refs := make([]string, 0, len(wanted))
	for ref := range wanted {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return wanted, refs
}
