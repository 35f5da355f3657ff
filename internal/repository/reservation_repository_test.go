package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"
)

func TestReservationRepositoryCreateWithItems(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewReservationRepository(db, parisLocation)
	ctx := context.Background()

	product := createTestProduct(t, db, "trone-royal", "trones", 2)
	reservation := newTestReservation(constants.ReservationStatusConfirmedNoDeposit)
	items := []models.ReservationItem{
		newTestItem(product.ID, 1, parisDay(2030, 7, 1, 9), parisDay(2030, 7, 2, 18)),
	}
	if err := repo.CreateWithItems(ctx, reservation, items); err != nil {
		t.Fatalf("create reservation failed: %v", err)
	}
	if reservation.ID == 0 {
		t.Fatalf("reservation id should be assigned")
	}

	loaded, err := repo.GetByID(ctx, reservation.ID)
	if err != nil {
		t.Fatalf("get reservation failed: %v", err)
	}
	if loaded == nil || len(loaded.Items) != 1 {
		t.Fatalf("want reservation with 1 item got %+v", loaded)
	}
	if loaded.Items[0].ReservationID != reservation.ID || loaded.CustomerInfos.Email != "samia@example.com" {
		t.Fatalf("unexpected loaded reservation: %+v", loaded)
	}
}

func TestReservationRepositoryRejectsOverbookingAndRollsBack(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewReservationRepository(db, parisLocation)
	ctx := context.Background()

	product := createTestProduct(t, db, "chaise-napoleon", "art-de-table", 2)
	first := newTestReservation(constants.ReservationStatusConfirmed)
	if err := repo.CreateWithItems(ctx, first, []models.ReservationItem{
		newTestItem(product.ID, 2, parisDay(2030, 8, 5, 9), parisDay(2030, 8, 5, 18)),
	}); err != nil {
		t.Fatalf("create first reservation failed: %v", err)
	}

	second := newTestReservation(constants.ReservationStatusConfirmed)
	err := repo.CreateWithItems(ctx, second, []models.ReservationItem{
		newTestItem(product.ID, 1, parisDay(2030, 8, 4, 9), parisDay(2030, 8, 6, 18)),
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded got %v", err)
	}
	var capErr *CapacityError
	if !errors.As(err, &capErr) || capErr.Date != "2030-08-05" || capErr.ProductID != product.ID {
		t.Fatalf("unexpected capacity error: %v", err)
	}

	var count int64
	if err := db.Model(&models.Reservation{}).Count(&count).Error; err != nil {
		t.Fatalf("count reservations failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("want 1 reservation after rollback got %d", count)
	}
	var itemCount int64
	if err := db.Model(&models.ReservationItem{}).Count(&itemCount).Error; err != nil {
		t.Fatalf("count items failed: %v", err)
	}
	if itemCount != 1 {
		t.Fatalf("want 1 item after rollback got %d", itemCount)
	}
}

// 已有预订在新租期首日的早些时候结束，仍占用当天库存
func TestReservationRepositoryCountsBookingEndingEarlierSameDay(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewReservationRepository(db, parisLocation)
	productRepo := NewProductRepository(db)
	ctx := context.Background()

	product := createTestProduct(t, db, "arche-florale", "arches", 1)
	if err := repo.CreateWithItems(ctx, newTestReservation(constants.ReservationStatusConfirmed), []models.ReservationItem{
		newTestItem(product.ID, 1, parisDay(2030, 8, 4, 9), parisDay(2030, 8, 5, 8)),
	}); err != nil {
		t.Fatalf("create first reservation failed: %v", err)
	}

	unavailable, err := productRepo.ListUnavailabilities(ctx, product.ID, parisDay(2030, 8, 1, 0))
	if err != nil {
		t.Fatalf("list unavailabilities failed: %v", err)
	}
	if len(unavailable) != 2 || unavailable[1].Date != "2030-08-05" || unavailable[1].ReservedQuantity != 1 {
		t.Fatalf("unexpected unavailabilities %+v", unavailable)
	}

	err = repo.CreateWithItems(ctx, newTestReservation(constants.ReservationStatusConfirmed), []models.ReservationItem{
		newTestItem(product.ID, 1, parisDay(2030, 8, 5, 9), parisDay(2030, 8, 6, 18)),
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded got %v", err)
	}
	var capErr *CapacityError
	if !errors.As(err, &capErr) || capErr.Date != "2030-08-05" || capErr.Reserved != 1 {
		t.Fatalf("unexpected capacity error: %v", err)
	}
}

func TestReservationRepositoryCountsLinesOfSameSubmission(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewReservationRepository(db, parisLocation)
	ctx := context.Background()

	product := createTestProduct(t, db, "coussin-velours", "coussins", 3)
	reservation := newTestReservation(constants.ReservationStatusConfirmedNoDeposit)
	err := repo.CreateWithItems(ctx, reservation, []models.ReservationItem{
		newTestItem(product.ID, 2, parisDay(2030, 9, 1, 9), parisDay(2030, 9, 2, 18)),
		newTestItem(product.ID, 2, parisDay(2030, 9, 2, 9), parisDay(2030, 9, 3, 18)),
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded got %v", err)
	}
}

func TestReservationRepositoryOutOfStockFlagBlocks(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewReservationRepository(db, parisLocation)

	product := createTestProduct(t, db, "bendir-cuivre", "bendir", 4)
	if err := db.Model(product).Update("is_out_of_stock", true).Error; err != nil {
		t.Fatalf("flag out of stock failed: %v", err)
	}
	err := repo.CreateWithItems(context.Background(), newTestReservation(constants.ReservationStatusConfirmed), []models.ReservationItem{
		newTestItem(product.ID, 1, parisDay(2030, 9, 1, 9), parisDay(2030, 9, 1, 18)),
	})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("want ErrCapacityExceeded got %v", err)
	}
}

func TestReservationRepositoryUnknownProduct(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewReservationRepository(db, parisLocation)

	err := repo.CreateWithItems(context.Background(), newTestReservation(constants.ReservationStatusConfirmed), []models.ReservationItem{
		newTestItem(999, 1, parisDay(2030, 9, 1, 9), parisDay(2030, 9, 1, 18)),
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
}

func TestReservationRepositoryCompleteFinished(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewReservationRepository(db, parisLocation)
	ctx := context.Background()

	product := createTestProduct(t, db, "tableau-nom", "tableaux", 10)
	past := newTestReservation(constants.ReservationStatusConfirmed)
	if err := repo.CreateWithItems(ctx, past, []models.ReservationItem{
		newTestItem(product.ID, 1, parisDay(2030, 1, 1, 9), parisDay(2030, 1, 2, 18)),
	}); err != nil {
		t.Fatalf("create past reservation failed: %v", err)
	}
	ongoing := newTestReservation(constants.ReservationStatusConfirmedNoDeposit)
	if err := repo.CreateWithItems(ctx, ongoing, []models.ReservationItem{
		newTestItem(product.ID, 1, parisDay(2030, 1, 1, 9), parisDay(2030, 1, 2, 18)),
		newTestItem(product.ID, 1, parisDay(2030, 1, 5, 9), parisDay(2030, 1, 6, 18)),
	}); err != nil {
		t.Fatalf("create ongoing reservation failed: %v", err)
	}

	touched, err := repo.CompleteFinished(ctx, parisDay(2030, 1, 4, 12))
	if err != nil {
		t.Fatalf("complete finished failed: %v", err)
	}
	if touched != 1 {
		t.Fatalf("want 1 reservation completed got %d", touched)
	}
	reloaded, _ := repo.GetByID(ctx, past.ID)
	if reloaded.ReservationStatus != constants.ReservationStatusDone {
		t.Fatalf("want DONE got %s", reloaded.ReservationStatus)
	}
	reloaded, _ = repo.GetByID(ctx, ongoing.ID)
	if reloaded.ReservationStatus != constants.ReservationStatusConfirmedNoDeposit {
		t.Fatalf("ongoing reservation should stay confirmed, got %s", reloaded.ReservationStatus)
	}
}

func TestReservationRepositoryStatusIsOneDirectional(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewReservationRepository(db, parisLocation)
	ctx := context.Background()

	product := createTestProduct(t, db, "bougie-or", "bougies", 10)
	reservation := newTestReservation(constants.ReservationStatusConfirmed)
	if err := repo.CreateWithItems(ctx, reservation, []models.ReservationItem{
		newTestItem(product.ID, 1, parisDay(2030, 2, 1, 9), parisDay(2030, 2, 1, 18)),
	}); err != nil {
		t.Fatalf("create reservation failed: %v", err)
	}
	if err := repo.UpdateStatus(ctx, reservation.ID, constants.ReservationStatusDone); err != nil {
		t.Fatalf("confirmed -> done failed: %v", err)
	}
	if err := repo.UpdateStatus(ctx, reservation.ID, constants.ReservationStatusConfirmed); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("done -> confirmed should be rejected, got %v", err)
	}
	if err := repo.UpdateStatus(ctx, reservation.ID, constants.ReservationStatusCancelled); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("done -> cancelled should be rejected, got %v", err)
	}
}

func TestReservationRepositoryDeleteAndPaymentRef(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewReservationRepository(db, parisLocation)
	ctx := context.Background()

	product := createTestProduct(t, db, "oeuf-dore", "oeufs", 10)
	ref := "pi_test_123"
	reservation := newTestReservation(constants.ReservationStatusConfirmed)
	reservation.StripePaymentID = &ref
	reservation.PaymentMethod = constants.PaymentMethodOnline
	if err := repo.CreateWithItems(ctx, reservation, []models.ReservationItem{
		newTestItem(product.ID, 1, parisDay(2030, 3, 1, 9), parisDay(2030, 3, 1, 18)),
	}); err != nil {
		t.Fatalf("create reservation failed: %v", err)
	}

	byRef, err := repo.GetByPaymentRef(ctx, ref)
	if err != nil || byRef == nil || byRef.ID != reservation.ID {
		t.Fatalf("get by payment ref failed: %v %+v", err, byRef)
	}

	if err := repo.Delete(ctx, reservation.ID); err != nil {
		t.Fatalf("delete reservation failed: %v", err)
	}
	gone, err := repo.GetByID(ctx, reservation.ID)
	if err != nil || gone != nil {
		t.Fatalf("reservation should be deleted: %v %+v", err, gone)
	}
	var itemCount int64
	db.Model(&models.ReservationItem{}).Where("reservation_id = ?", reservation.ID).Count(&itemCount)
	if itemCount != 0 {
		t.Fatalf("items should be deleted, got %d", itemCount)
	}
}

func TestExpandDatesUsesShopCalendar(t *testing.T) {
	start := time.Date(2030, 6, 10, 23, 30, 0, 0, time.UTC)
	end := time.Date(2030, 6, 11, 6, 0, 0, 0, time.UTC)
	dates := expandDates(start, end, parisLocation)
	if len(dates) != 1 || dates[0] != "2030-06-11" {
		t.Fatalf("want [2030-06-11] got %v", dates)
	}
	swapped := expandDates(end.AddDate(0, 0, 2), start, time.UTC)
	if len(swapped) != 4 || swapped[0] != "2030-06-10" {
		t.Fatalf("unexpected swapped range: %v", swapped)
	}
}

func TestCheckoutDraftAndContactRepositories(t *testing.T) {
	db := setupRepositoryTestDB(t)
	ctx := context.Background()

	drafts := NewCheckoutDraftRepository(db)
	draft := &models.CheckoutDraft{Payload: `{"items":[]}`, Status: constants.CheckoutDraftStatusPending}
	if err := drafts.Create(ctx, draft); err != nil {
		t.Fatalf("create draft failed: %v", err)
	}
	draft.SessionID = "cs_test_abc"
	if err := drafts.Update(ctx, draft); err != nil {
		t.Fatalf("update draft failed: %v", err)
	}
	bySession, err := drafts.GetBySessionID(ctx, "cs_test_abc")
	if err != nil || bySession == nil || bySession.ID != draft.ID {
		t.Fatalf("get by session failed: %v %+v", err, bySession)
	}
	locked, err := drafts.GetByIDForUpdate(ctx, draft.ID)
	if err != nil || locked == nil {
		t.Fatalf("get for update failed: %v", err)
	}
	missing, err := drafts.GetByID(ctx, draft.ID+100)
	if err != nil || missing != nil {
		t.Fatalf("missing draft should be nil: %v %+v", err, missing)
	}

	contacts := NewContactRepository(db)
	msg := &models.ContactMessage{Name: "Nadia", Email: "nadia@example.com", Subject: "Mariage", Message: "Bonjour"}
	if err := contacts.Create(ctx, msg); err != nil {
		t.Fatalf("create contact message failed: %v", err)
	}
	if msg.ID == 0 {
		t.Fatalf("contact message id should be assigned")
	}
}
