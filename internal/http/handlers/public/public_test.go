package public

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chb-creations/internal/cache"
	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/http/response"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/provider"
	"github.com/chb-creations/internal/repository"
	"github.com/chb-creations/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupPublicHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:public_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	reservationCfg := config.ReservationConfig{MaxRentalDays: 4, DefaultStartTime: "09:00", DefaultEndTime: "18:00", CalendarDays: 30}
	shop := config.ShopConfig{Name: "CHB Créations", Timezone: "Europe/Paris"}

	productRepo := repository.NewProductRepository(db)
	reservationRepo := repository.NewReservationRepository(db, paris)
	contactRepo := repository.NewContactRepository(db)
	policy := service.NewAvailabilityPolicy(reservationCfg, paris)
	captcha := service.NewCaptchaService(config.CaptchaConfig{Provider: "none"})
	email := service.NewEmailService(config.EmailConfig{})

	c := &provider.Container{
		ProductRepo:     productRepo,
		ReservationRepo: reservationRepo,
		ContactRepo:     contactRepo,
		ProductService:  service.NewProductService(productRepo, policy),
		CartService:     service.NewCartService(productRepo, policy, nil, nil, config.CartConfig{}, reservationCfg),
		ReservationService: service.NewReservationService(service.ReservationServiceOptions{
			ProductRepo:     productRepo,
			ReservationRepo: reservationRepo,
			Policy:          policy,
			Shop:            shop,
			Reservation:     reservationCfg,
		}),
		ContactService: service.NewContactService(contactRepo, captcha, email, shop),
	}
	h := New(c)

	r := gin.New()
	r.GET("/subcategories", h.GetSubcategories)
	r.GET("/products", h.GetProducts)
	r.GET("/products/:slug", h.GetProductBySlug)
	r.GET("/cart", h.GetCart)
	r.DELETE("/cart/items/:id", h.DeleteCartItem)
	r.GET("/reservations/:id", h.GetReservation)
	r.POST("/contact", h.SubmitContact)
	return r, db
}

func seedProduct(t *testing.T, db *gorm.DB, slug, subcategory string) models.Product {
	t.Helper()
	product := models.Product{
		Slug:        slug,
		Name:        "Trône " + slug,
		Price:       models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
		Stock:       2,
		Category:    "locations",
		Subcategory: subcategory,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func doRequest(t *testing.T, r *gin.Engine, method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func TestGetProductsFiltersBySubcategory(t *testing.T) {
	r, db := setupPublicHandlerTest(t)
	seedProduct(t, db, "trone-royal", "trones")
	seedProduct(t, db, "sous-assiettes-gold", "art-de-table")

	w, resp := doRequest(t, r, http.MethodGet, "/products?subcategory=trones", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.CodeOK, resp.StatusCode)

	var products []models.Product
	require.NoError(t, json.Unmarshal(resp.Data, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "trone-royal", products[0].Slug)
}

func TestGetSubcategoriesServesCachedList(t *testing.T) {
	r, db := setupPublicHandlerTest(t)
	require.NoError(t, cache.Del(context.Background(), subcategoriesCacheKey))
	t.Cleanup(func() { _ = cache.Del(context.Background(), subcategoriesCacheKey) })
	seedProduct(t, db, "trone-royal", "trones")

	_, resp := doRequest(t, r, http.MethodGet, "/subcategories", nil, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	var first []repository.SubcategorySummary
	require.NoError(t, json.Unmarshal(resp.Data, &first))
	require.Len(t, first, 1)

	// 缓存命中时不再读取新增的子类
	seedProduct(t, db, "nappe-blanche", "art-de-table")
	_, resp = doRequest(t, r, http.MethodGet, "/subcategories", nil, nil)
	var second []repository.SubcategorySummary
	require.NoError(t, json.Unmarshal(resp.Data, &second))
	assert.Equal(t, first, second)
}

func TestGetProductsKeywordSearch(t *testing.T) {
	r, db := setupPublicHandlerTest(t)
	seedProduct(t, db, "trone-royal", "trones")
	seedProduct(t, db, "sous-assiettes-gold", "art-de-table")

	_, resp := doRequest(t, r, http.MethodGet, "/products?q=gold", nil, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)

	var products []models.Product
	require.NoError(t, json.Unmarshal(resp.Data, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "sous-assiettes-gold", products[0].Slug)
}

func TestGetProductBySlugNotFoundIsLocalized(t *testing.T) {
	r, _ := setupPublicHandlerTest(t)

	_, resp := doRequest(t, r, http.MethodGet, "/products/missing", nil, nil)
	assert.Equal(t, response.CodeNotFound, resp.StatusCode)
	assert.Equal(t, "Produit introuvable", resp.Msg)

	_, resp = doRequest(t, r, http.MethodGet, "/products/missing", nil, map[string]string{"Accept-Language": "en-US,en;q=0.9"})
	assert.Equal(t, "Product not found", resp.Msg)
}

func TestGetProductBySlugReturnsPage(t *testing.T) {
	r, db := setupPublicHandlerTest(t)
	seedProduct(t, db, "trone-royal", "trones")

	_, resp := doRequest(t, r, http.MethodGet, "/products/trone-royal", nil, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)

	var page struct {
		Product       models.Product `json:"product"`
		MaxRentalDays int            `json:"max_rental_days"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, "trone-royal", page.Product.Slug)
	assert.Equal(t, 4, page.MaxRentalDays)
}

func TestGetCartIssuesToken(t *testing.T) {
	r, _ := setupPublicHandlerTest(t)

	w, resp := doRequest(t, r, http.MethodGet, "/cart", nil, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)
	token := w.Header().Get(CartTokenHeader)
	require.NotEmpty(t, token)

	w, _ = doRequest(t, r, http.MethodGet, "/cart", nil, map[string]string{CartTokenHeader: token})
	assert.Equal(t, token, w.Header().Get(CartTokenHeader))
}

func TestDeleteCartItemRequiresToken(t *testing.T) {
	r, _ := setupPublicHandlerTest(t)

	_, resp := doRequest(t, r, http.MethodDelete, "/cart/items/abc", nil, nil)
	assert.Equal(t, response.CodeBadRequest, resp.StatusCode)
}

func TestGetReservationValidation(t *testing.T) {
	r, _ := setupPublicHandlerTest(t)

	_, resp := doRequest(t, r, http.MethodGet, "/reservations/abc", nil, nil)
	assert.Equal(t, response.CodeBadRequest, resp.StatusCode)
	assert.Equal(t, "Identifiant de réservation invalide", resp.Msg)

	_, resp = doRequest(t, r, http.MethodGet, "/reservations/999", nil, nil)
	assert.Equal(t, response.CodeNotFound, resp.StatusCode)
}

func TestSubmitContact(t *testing.T) {
	r, db := setupPublicHandlerTest(t)

	_, resp := doRequest(t, r, http.MethodPost, "/contact", gin.H{"name": "Nadia", "email": "nadia@example.com"}, nil)
	assert.Equal(t, response.CodeBadRequest, resp.StatusCode)
	assert.Equal(t, "Veuillez remplir tous les champs obligatoires", resp.Msg)

	_, resp = doRequest(t, r, http.MethodPost, "/contact", gin.H{
		"name":    "Nadia",
		"email":   "not-an-email",
		"subject": "Mariage",
		"message": "Bonjour",
	}, nil)
	assert.Equal(t, response.CodeBadRequest, resp.StatusCode)

	_, resp = doRequest(t, r, http.MethodPost, "/contact", gin.H{
		"name":    "Nadia",
		"email":   "nadia@example.com",
		"subject": "Mariage",
		"message": "Bonjour, le trône est-il disponible en juin ?",
	}, nil)
	require.Equal(t, response.CodeOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&models.ContactMessage{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRespondRentalPeriodError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rangeErr := &service.RentalPeriodError{
		ProductID:  7,
		MessageKey: "availability.range_too_long",
		Message:    "La location est limitée à 4 jours",
	}

	cases := []struct {
		name     string
		lang     string
		expected string
	}{
		{name: "french keeps rule message", lang: "fr-FR", expected: "La location est limitée à 4 jours"},
		{name: "english uses translation", lang: "en-US", expected: "The rental period exceeds the maximum allowed length"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/cart/items", nil)
			c.Request.Header.Set("Accept-Language", tc.lang)

			respondCartError(c, fmt.Errorf("add item: %w", rangeErr))

			var resp struct {
				StatusCode int    `json:"status_code"`
				Msg        string `json:"msg"`
				Data       struct {
					MessageKey string `json:"message_key"`
					ProductID  uint   `json:"product_id"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, response.CodeBadRequest, resp.StatusCode)
			assert.Equal(t, tc.expected, resp.Msg)
			assert.Equal(t, "availability.range_too_long", resp.Data.MessageKey)
			assert.Equal(t, uint(7), resp.Data.ProductID)
		})
	}
}

func TestCheckoutRulesPreferDraftFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/checkout/complete", nil)

	err := fmt.Errorf("%w: %w", service.ErrCheckoutDraftFailed, service.ErrDatesUnavailable)
	respondCheckoutError(c, err)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, response.CodeConflict, resp.StatusCode)
}
