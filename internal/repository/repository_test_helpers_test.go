package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var parisLocation = mustLoadLocation("Europe/Paris")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:chb_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func createTestProduct(t *testing.T, db *gorm.DB, slug, subcategory string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:        slug,
		Name:        "Produit " + slug,
		Price:       models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		Deposit:     30,
		Stock:       stock,
		Category:    constants.CategoryLocations,
		Subcategory: subcategory,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func parisDay(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, parisLocation)
}

func newTestReservation(status string) *models.Reservation {
	return &models.Reservation{
		CustomerInfos: models.CustomerInfo{
			FirstName: "Samia",
			LastName:  "K.",
			Email:     "samia@example.com",
			Phone:     "0600000000",
		},
		DeliveryOption:    constants.DeliveryOptionPickup,
		ReservationStatus: status,
		PaymentMethod:     constants.PaymentMethodNone,
		TotalPrice:        models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	}
}

func newTestItem(productID uint, quantity int, start, end time.Time) models.ReservationItem {
	return models.ReservationItem{
		ProductID:   productID,
		Quantity:    quantity,
		RentalStart: start,
		RentalEnd:   end,
		UnitPrice:   models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		LineTotal:   models.NewMoneyFromDecimal(decimal.NewFromInt(int64(50 * quantity))),
	}
}
