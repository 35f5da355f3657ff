package repository

import (
	"context"
	"testing"
	"time"

	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupPostgresMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open gorm postgres failed: %v", err)
	}
	return db, mock
}

func TestPostgresListBySubcategoryQuery(t *testing.T) {
	db, mock := setupPostgresMock(t)
	repo := NewProductRepository(db)

	rows := sqlmock.NewRows([]string{"id", "slug", "name", "price", "stock", "subcategory"}).
		AddRow(1, "trone-or", "Trône or", "120.00", 1, "trones").
		AddRow(2, "trone-argent", "Trône argent", "110.00", 2, "trones")
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE subcategory = \$1 ORDER BY created_at ASC, id ASC`).
		WithArgs("trones").
		WillReturnRows(rows)

	products, err := repo.ListBySubcategory(context.Background(), "trones")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "trone-or", products[0].Slug)
	assert.Equal(t, "120.00", products[0].Price.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateWithItemsLocksProductRows(t *testing.T) {
	db, mock := setupPostgresMock(t)
	repo := NewReservationRepository(db, parisLocation)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "products" WHERE id IN \(\$1\) ORDER BY id ASC FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stock", "is_out_of_stock"}).AddRow(1, 3, false))
	mock.ExpectQuery(`SELECT ri.product_id, ri.quantity, ri.rental_start, ri.rental_end FROM reservation_items AS ri JOIN reservations AS r ON r.id = ri.reservation_id`).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "rental_start", "rental_end"}).
			AddRow(1, 2, parisDay(2030, 5, 1, 9), parisDay(2030, 5, 1, 18)))
	mock.ExpectQuery(`INSERT INTO "reservations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO "reservation_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectCommit()

	reservation := newTestReservation(constants.ReservationStatusConfirmed)
	err := repo.CreateWithItems(context.Background(), reservation, []models.ReservationItem{
		newTestItem(1, 1, parisDay(2030, 5, 1, 9), parisDay(2030, 5, 2, 18)),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), reservation.ID)
	require.Len(t, reservation.Items, 1)
	assert.Equal(t, uint(7), reservation.Items[0].ReservationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateWithItemsRollsBackOnCapacity(t *testing.T) {
	db, mock := setupPostgresMock(t)
	repo := NewReservationRepository(db, parisLocation)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stock", "is_out_of_stock"}).AddRow(1, 1, false))
	mock.ExpectQuery(`FROM reservation_items AS ri`).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "rental_start", "rental_end"}).
			AddRow(1, 1, parisDay(2030, 5, 2, 9), parisDay(2030, 5, 2, 18)))
	mock.ExpectRollback()

	err := repo.CreateWithItems(context.Background(), newTestReservation(constants.ReservationStatusConfirmed), []models.ReservationItem{
		newTestItem(1, 1, parisDay(2030, 5, 1, 9), parisDay(2030, 5, 2, 18)),
	})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteFinishedUpdate(t *testing.T) {
	db, mock := setupPostgresMock(t)
	repo := NewReservationRepository(db, parisLocation)
	now := time.Date(2030, 5, 10, 3, 30, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE "reservations" SET "reservation_status"=\$1,"updated_at"=\$2 WHERE reservation_status IN \(\$3,\$4\) AND EXISTS`).
		WithArgs(constants.ReservationStatusDone, now, constants.ReservationStatusConfirmed, constants.ReservationStatusConfirmedNoDeposit, now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	touched, err := repo.CompleteFinished(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), touched)
	assert.NoError(t, mock.ExpectationsWereMet())
}
