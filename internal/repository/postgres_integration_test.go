//go:build integration
// +build integration

package repository

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 优先使用 TEST_POSTGRES_DSN，否则启动临时容器
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
			tcpostgres.WithDatabase("chb"),
			tcpostgres.WithUsername("chb"),
			tcpostgres.WithPassword("chb"),
			tcpostgres.BasicWaitStrategies(),
		)
		if err != nil {
			t.Skipf("skip postgres integration test: start container failed: %v", err)
		}
		t.Cleanup(func() {
			_ = testcontainers.TerminateContainer(container)
		})
		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			t.Fatalf("container connection string failed: %v", err)
		}
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}
	cleanupModels := models.AllModels()
	_ = db.Migrator().DropTable(cleanupModels...)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresConcurrentReservationsNeverOverbook(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewReservationRepository(db, parisLocation)
	product := createTestProduct(t, db, "pg-trone", "trones", 1)

	const attempts = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.CreateWithItems(context.Background(), newTestReservation(constants.ReservationStatusConfirmedNoDeposit), []models.ReservationItem{
				newTestItem(product.ID, 1, parisDay(2031, 4, 18, 9), parisDay(2031, 4, 19, 18)),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrCapacityExceeded):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || conflicts != attempts-1 {
		t.Fatalf("want 1 success and %d conflicts, got %d/%d", attempts-1, succeeded, conflicts)
	}

	list, err := NewProductRepository(db).ListUnavailabilities(context.Background(), product.ID, parisDay(2031, 4, 1, 0))
	if err != nil {
		t.Fatalf("list unavailabilities failed: %v", err)
	}
	if len(list) != 2 || list[0].ReservedQuantity != 1 || list[1].ReservedQuantity != 1 {
		t.Fatalf("unexpected unavailabilities: %+v", list)
	}
}

func TestPostgresCompleteFinished(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewReservationRepository(db, parisLocation)
	product := createTestProduct(t, db, "pg-nappe", "art-de-table", 5)
	ctx := context.Background()

	reservation := newTestReservation(constants.ReservationStatusConfirmed)
	if err := repo.CreateWithItems(ctx, reservation, []models.ReservationItem{
		newTestItem(product.ID, 2, parisDay(2031, 1, 1, 9), parisDay(2031, 1, 2, 18)),
	}); err != nil {
		t.Fatalf("create reservation failed: %v", err)
	}
	touched, err := repo.CompleteFinished(ctx, time.Date(2031, 1, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("complete finished failed: %v", err)
	}
	if touched != 1 {
		t.Fatalf("want 1 touched got %d", touched)
	}
}
