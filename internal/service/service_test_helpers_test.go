package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chb-creations/internal/cache"
	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/google"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/payment/stripe"
	"github.com/chb-creations/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var testShop = config.ShopConfig{
	Name:          "CHB Créations",
	City:          "Marseille",
	Address:       "100 Boulevard de Saint-Loup, 13010 Marseille, France",
	Timezone:      "Europe/Paris",
	ContactEmail:  "chaymaeb.creations@gmail.com",
	PublicBaseURL: "https://chb.test",
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:chb_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

type fakeRoutes struct {
	configured bool
	meters     int64
	seconds    int64
	err        error
	calls      int
}

func (f *fakeRoutes) Configured() bool { return f.configured }

func (f *fakeRoutes) ComputeRoute(_ context.Context, _, _ string) (*google.Route, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &google.Route{DistanceMeters: f.meters, DurationSeconds: f.seconds}, nil
}

type fakePlaces struct {
	suggestions []google.Suggestion
	err         error
}

func (f *fakePlaces) Autocomplete(_ context.Context, _ string) ([]google.Suggestion, error) {
	return f.suggestions, f.err
}

// memoryCartStore 经过 JSON 往返，模拟真实快照
type memoryCartStore struct {
	store *cache.MemoryStore
}

func newMemoryCartStore() *memoryCartStore {
	return &memoryCartStore{store: cache.NewMemoryStore()}
}

func (m *memoryCartStore) Load(_ context.Context, token string, dest *Cart) (bool, error) {
	return m.store.GetJSON(token, dest)
}

func (m *memoryCartStore) Save(_ context.Context, token string, cart *Cart, ttl time.Duration) error {
	return m.store.SetJSON(token, cart, ttl)
}

func (m *memoryCartStore) Delete(_ context.Context, token string) error {
	m.store.Del(token)
	return nil
}

type fakeGateway struct {
	mu       sync.Mutex
	created  []stripe.CheckoutInput
	sessions map[string]*stripe.CheckoutSession
	event    *stripe.WebhookEvent
	err      error
	eventErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: make(map[string]*stripe.CheckoutSession)}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, input stripe.CheckoutInput) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, input)
	id := fmt.Sprintf("cs_test_%d", len(g.created))
	session := &stripe.CheckoutSession{
		ID:            id,
		URL:           "https://checkout.stripe.test/" + id,
		Status:        "open",
		PaymentStatus: "unpaid",
		DraftID:       input.DraftID,
		Amount:        input.Amount,
		Currency:      input.Currency,
	}
	g.sessions[id] = session
	return session, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: no such session", ErrPaymentGatewayFailed)
	}
	copied := *session
	return &copied, nil
}

func (g *fakeGateway) ParseWebhook(_ string, _ []byte) (*stripe.WebhookEvent, error) {
	if g.eventErr != nil {
		return nil, g.eventErr
	}
	return g.event, nil
}

func (g *fakeGateway) markPaid(sessionID, paymentIntentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if session, ok := g.sessions[sessionID]; ok {
		session.Status = "complete"
		session.PaymentStatus = "paid"
		session.PaymentIntentID = paymentIntentID
	}
}

type recordingNotifier struct {
	mu  sync.Mutex
	ids []uint
}

func (n *recordingNotifier) NotifyReservationConfirmed(_ context.Context, id uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.ids)
}

type serviceFixture struct {
	db           *gorm.DB
	productRepo  *repository.GormProductRepository
	reservations *repository.GormReservationRepository
	drafts       *repository.GormCheckoutDraftRepository
	policy       *AvailabilityPolicy
	routes       *fakeRoutes
	delivery     *DeliveryService
	store        *memoryCartStore
	carts        *CartService
	gateway      *fakeGateway
	notifier     *recordingNotifier
	reservation  *ReservationService
}

// newServiceFixture 固定“今天”为 2024-06-15（巴黎时间）
func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := setupServiceTestDB(t)
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, parisLoc)

	f := &serviceFixture{
		db:           db,
		productRepo:  repository.NewProductRepository(db),
		reservations: repository.NewReservationRepository(db, parisLoc),
		drafts:       repository.NewCheckoutDraftRepository(db),
		policy:       newTestPolicy(now),
		routes:       &fakeRoutes{configured: true, meters: 10400, seconds: 1260},
		store:        newMemoryCartStore(),
		gateway:      newFakeGateway(),
		notifier:     &recordingNotifier{},
	}
	f.delivery = NewDeliveryService(f.routes, &fakePlaces{}, testShop, config.DeliveryConfig{CostPerKm: 1})
	reservationCfg := config.ReservationConfig{CautionAmount: 200}
	f.carts = NewCartService(f.productRepo, f.policy, f.delivery, f.store, config.CartConfig{}, reservationCfg)
	f.carts.now = func() time.Time { return now }
	f.reservation = NewReservationService(ReservationServiceOptions{
		ProductRepo:     f.productRepo,
		ReservationRepo: f.reservations,
		DraftRepo:       f.drafts,
		Policy:          f.policy,
		Delivery:        f.delivery,
		Carts:           f.carts,
		Payments:        f.gateway,
		Notifier:        f.notifier,
		Shop:            testShop,
		Reservation:     reservationCfg,
	})
	f.reservation.now = func() time.Time { return now }
	return f
}

func (f *serviceFixture) createProduct(t *testing.T, mutate func(p *models.Product)) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:        fmt.Sprintf("produit-%d", time.Now().UnixNano()),
		Name:        "Arche florale",
		Price:       money("10.00"),
		Deposit:     20,
		Stock:       5,
		Category:    constants.CategoryLocations,
		Subcategory: "arches",
		Options: models.OptionGroups{
			{
				OptionTypeName: "Couleur",
				Options: []models.ProductOption{
					{Name: "Blanc", AdditionalFee: money("0")},
					{Name: "Or", AdditionalFee: money("2.50")},
				},
			},
		},
	}
	if mutate != nil {
		mutate(product)
	}
	if err := f.db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

// reserve 直接写入一笔已确认预订，用于占用库存
func (f *serviceFixture) reserve(t *testing.T, productID uint, qty int, from, to time.Time) {
	t.Helper()
	reservation := &models.Reservation{
		CustomerInfos:     models.CustomerInfo{FirstName: "A", LastName: "B", Email: "a@b.fr", Phone: "0600000000"},
		DeliveryOption:    constants.DeliveryOptionPickup,
		ReservationStatus: constants.ReservationStatusConfirmed,
		PaymentMethod:     constants.PaymentMethodCash,
	}
	items := []models.ReservationItem{{
		ProductID:   productID,
		Quantity:    qty,
		RentalStart: from.Add(9 * time.Hour),
		RentalEnd:   to.Add(18 * time.Hour),
	}}
	if err := f.reservations.CreateWithItems(context.Background(), reservation, items); err != nil {
		t.Fatalf("seed reservation failed: %v", err)
	}
}

func testCustomer() models.CustomerInfo {
	return models.CustomerInfo{
		FirstName: "Camille",
		LastName:  "Martin",
		Email:     "camille@example.fr",
		Phone:     "0612345678",
	}
}

func decodeDraftPayload(t *testing.T, draft *models.CheckoutDraft) reservationDraft {
	t.Helper()
	var payload reservationDraft
	if err := json.Unmarshal([]byte(draft.Payload), &payload); err != nil {
		t.Fatalf("decode draft payload failed: %v", err)
	}
	return payload
}
