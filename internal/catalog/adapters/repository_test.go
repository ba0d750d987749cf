package adapters

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-commerce/pkg/errors"
)

func newMockRepository(t *testing.T) (*PostgresProductRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewPostgresProductRepository(gdb), mock
}

var productColumns = []string{"id", "sku", "name", "unit_price", "stock", "created_at", "updated_at"}

func TestGetByID(t *testing.T) {
	// Arrange
	repo, mock := newMockRepository(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow("prd_1", "MUG-1", "Blue Mug", 1500, 4, now, now))

	// Act
	product, err := repo.GetByID(context.Background(), "prd_1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "MUG-1", product.SKU)
	assert.Equal(t, int64(4), product.Stock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBySKU_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE sku = $1`)).
		WillReturnRows(sqlmock.NewRows(productColumns))

	_, err := repo.GetBySKU(context.Background(), "MUG-404")

	assert.True(t, errors.Is(err, errors.CodeNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRestock(t *testing.T) {
	// Arrange
	repo, mock := newMockRepository(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET "stock"=stock + $1 WHERE id = $2`)).
		WithArgs(int64(5), "prd_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(productColumns).AddRow("prd_1", "MUG-1", "Blue Mug", 1500, 9, now, now))
	mock.ExpectCommit()

	// Act
	product, err := repo.Restock(context.Background(), "prd_1", 5)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(9), product.Stock)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRestock_UnknownProduct(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "products" SET "stock"=stock + $1 WHERE id = $2`)).
		WithArgs(int64(5), "prd_missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Restock(context.Background(), "prd_missing", 5)

	assert.True(t, errors.Is(err, errors.CodeNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}
