package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type txKey struct{}

// UnitOfWork runs a function inside a single database transaction.
// Repositories pick the transaction up from the context through Conn.
type UnitOfWork struct {
	db        *gorm.DB
	isolation sql.IsolationLevel
}

// NewUnitOfWork creates a unit of work with serializable isolation
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db, isolation: sql.LevelSerializable}
}

// RunInTx executes fn in a transaction. Nested calls join the outer transaction.
func (u *UnitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}, &sql.TxOptions{Isolation: u.isolation})
}

// Conn returns the transaction bound to ctx, or db scoped to ctx
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// IsSerializationFailure reports whether err is a postgres serialization or
// deadlock failure that the caller may retry.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
