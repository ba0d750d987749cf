package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-commerce/internal/orders/domain"
	"go-commerce/pkg/db"
	apperrors "go-commerce/pkg/errors"
)

// RefundModel is the refund audit row, one per order
type RefundModel struct {
	ID          string `gorm:"primaryKey;size:40"`
	OrderID     string `gorm:"uniqueIndex;size:40;not null"`
	Status      string `gorm:"size:16;not null"`
	StatusRank  int    `gorm:"not null"`
	Amount      int64  `gorm:"not null"`
	GatewayRef  string `gorm:"size:128"`
	RequestedAt time.Time
	ProcessedAt *time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (RefundModel) TableName() string {
	return "refunds"
}

// ReturnModel is the return audit row, one per order
type ReturnModel struct {
	ID          string `gorm:"primaryKey;size:40"`
	OrderID     string `gorm:"uniqueIndex;size:40;not null"`
	Status      string `gorm:"size:16;not null"`
	StatusRank  int    `gorm:"not null"`
	Reason      string `gorm:"size:512"`
	RequestedAt time.Time
	ClosedAt    *time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for GORM
func (ReturnModel) TableName() string {
	return "returns"
}

// PostgresLedgerRepository stores refund and return records. Upserts only
// replace a row whose status rank is lower than the incoming one.
type PostgresLedgerRepository struct {
	db *gorm.DB
}

// NewPostgresLedgerRepository creates a new ledger repository
func NewPostgresLedgerRepository(db *gorm.DB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

// Migrate runs auto-migration for the ledger models
func (r *PostgresLedgerRepository) Migrate() error {
	return r.db.AutoMigrate(&RefundModel{}, &ReturnModel{})
}

func forwardOnly(table string, columns ...string) clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}},
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: `"` + table + `"."status_rank" < EXCLUDED."status_rank"`},
		}},
		DoUpdates: clause.AssignmentColumns(columns),
	}
}

// UpsertRefund inserts or advances the refund record of record.OrderID
func (r *PostgresLedgerRepository) UpsertRefund(ctx context.Context, record *domain.RefundRecord) (bool, error) {
	model := &RefundModel{
		ID:          record.ID,
		OrderID:     record.OrderID,
		Status:      string(record.Status),
		StatusRank:  record.Status.Rank(),
		Amount:      record.Amount,
		GatewayRef:  record.GatewayRef,
		RequestedAt: record.RequestedAt,
		ProcessedAt: record.ProcessedAt,
		UpdatedAt:   record.UpdatedAt,
	}

	result := db.Conn(ctx, r.db).
		Clauses(forwardOnly("refunds", "status", "status_rank", "gateway_ref", "processed_at", "updated_at")).
		Create(model)
	if result.Error != nil {
		return false, apperrors.NewInternal("failed to upsert refund", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpsertReturn inserts or advances the return record of record.OrderID
func (r *PostgresLedgerRepository) UpsertReturn(ctx context.Context, record *domain.ReturnRecord) (bool, error) {
	model := &ReturnModel{
		ID:          record.ID,
		OrderID:     record.OrderID,
		Status:      string(record.Status),
		StatusRank:  record.Status.Rank(),
		Reason:      record.Reason,
		RequestedAt: record.RequestedAt,
		ClosedAt:    record.ClosedAt,
		UpdatedAt:   record.UpdatedAt,
	}

	result := db.Conn(ctx, r.db).
		Clauses(forwardOnly("returns", "status", "status_rank", "closed_at", "updated_at")).
		Create(model)
	if result.Error != nil {
		return false, apperrors.NewInternal("failed to upsert return", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetRefund returns the refund record of an order
func (r *PostgresLedgerRepository) GetRefund(ctx context.Context, orderID string) (*domain.RefundRecord, error) {
	var model RefundModel
	err := db.Conn(ctx, r.db).Where("order_id = ?", orderID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("refund", orderID)
		}
		return nil, apperrors.NewInternal("failed to get refund", err)
	}
	return &domain.RefundRecord{
		ID:          model.ID,
		OrderID:     model.OrderID,
		Status:      domain.RefundStatus(model.Status),
		Amount:      model.Amount,
		GatewayRef:  model.GatewayRef,
		RequestedAt: model.RequestedAt,
		ProcessedAt: model.ProcessedAt,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}

// GetReturn returns the return record of an order
func (r *PostgresLedgerRepository) GetReturn(ctx context.Context, orderID string) (*domain.ReturnRecord, error) {
	var model ReturnModel
	err := db.Conn(ctx, r.db).Where("order_id = ?", orderID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("return", orderID)
		}
		return nil, apperrors.NewInternal("failed to get return", err)
	}
	return &domain.ReturnRecord{
		ID:          model.ID,
		OrderID:     model.OrderID,
		Status:      domain.ReturnStatus(model.Status),
		Reason:      model.Reason,
		RequestedAt: model.RequestedAt,
		ClosedAt:    model.ClosedAt,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}
