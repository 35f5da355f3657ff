package service

import (
	"context"
	"strings"
	"time"

	"github.com/chb-creations/internal/cache"
	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/logger"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultCartTTL = 72 * time.Hour

// CartStore 购物车快照存储
type CartStore interface {
	Load(ctx context.Context, token string, dest *Cart) (bool, error)
	Save(ctx context.Context, token string, cart *Cart, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// cacheCartStore 基于 Redis（未启用时进程内存）的快照存储
type cacheCartStore struct{}

// NewCacheCartStore 创建默认快照存储
func NewCacheCartStore() CartStore {
	return cacheCartStore{}
}

func (cacheCartStore) Load(ctx context.Context, token string, dest *Cart) (bool, error) {
	return cache.GetCartSnapshot(ctx, token, dest)
}

func (cacheCartStore) Save(ctx context.Context, token string, cart *Cart, ttl time.Duration) error {
	return cache.SetCartSnapshot(ctx, token, cart, ttl)
}

func (cacheCartStore) Delete(ctx context.Context, token string) error {
	return cache.DelCartSnapshot(ctx, token)
}

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	ProductID         uint
	Quantity          int
	StartDate         string
	EndDate           string
	StartTime         string
	EndTime           string
	Selections        map[string]string
	Personalizations  map[string]string
	NeedsInstallation bool
}

// CartService 购物车服务
type CartService struct {
	productRepo repository.ProductRepository
	policy      *AvailabilityPolicy
	delivery    *DeliveryService
	store       CartStore
	ttl         time.Duration
	flatCaution decimal.Decimal
	now         func() time.Time
}

// NewCartService 创建购物车服务
func NewCartService(productRepo repository.ProductRepository, policy *AvailabilityPolicy, delivery *DeliveryService, store CartStore, cartCfg config.CartConfig, reservationCfg config.ReservationConfig) *CartService {
	ttl := defaultCartTTL
	if cartCfg.TTLHours > 0 {
		ttl = time.Duration(cartCfg.TTLHours) * time.Hour
	}
	if store == nil {
		store = NewCacheCartStore()
	}
	return &CartService{
		productRepo: productRepo,
		policy:      policy,
		delivery:    delivery,
		store:       store,
		ttl:         ttl,
		flatCaution: decimal.NewFromFloat(reservationCfg.CautionAmount),
		now:         time.Now,
	}
}

// NewToken 生成购物车 token
func (s *CartService) NewToken() string {
	return uuid.NewString()
}

// Get 读取购物车；快照缺失或损坏时返回空购物车
func (s *CartService) Get(ctx context.Context, token string) (*Cart, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrCartTokenRequired
	}
	var cart Cart
	found, err := s.store.Load(ctx, token, &cart)
	if err != nil {
		logger.Warnw("cart_snapshot_discarded", "cart_token", token, "error", err)
		return NewCart(token, s.flatCaution), nil
	}
	if !found {
		return NewCart(token, s.flatCaution), nil
	}
	cart.Token = token
	cart.rehydrate(s.policy.Location(), s.flatCaution)
	return &cart, nil
}

// AddItem 校验库存、租期与选项后加入购物车
func (s *CartService) AddItem(ctx context.Context, token string, input AddCartItemInput) (*Cart, error) {
	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if cart.HasProduct(input.ProductID) {
		return nil, ErrCartItemLocked
	}

	line, err := buildReservationLine(ctx, s.productRepo, s.policy, ReservationLineInput{
		ProductID:         input.ProductID,
		Quantity:          input.Quantity,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		StartTime:         input.StartTime,
		EndTime:           input.EndTime,
		Selections:        input.Selections,
		Personalizations:  input.Personalizations,
		NeedsInstallation: input.NeedsInstallation,
	})
	if err != nil {
		return nil, err
	}

	product := line.Product
	item := CartItem{
		ID:                newCartItemID(product.ID, s.now()),
		ProductID:         product.ID,
		ProductName:       product.Name,
		ProductSlug:       product.Slug,
		ProductImage:      product.PrimaryImage(),
		Quantity:          line.Quote.Quantity,
		PricePerUnit:      line.Quote.PerUnitTotal,
		SelectedOptions:   line.Quote.SelectedOptions,
		Personalizations:  line.Personalizations,
		DepositPercentage: line.Quote.DepositPercentage,
		CautionPerUnit:    line.Quote.CautionPerUnit,
		BaseDeliveryFees:  line.Quote.BaseDeliveryFees,
		InstallationFees:  line.Quote.InstallationFee,
		NeedsInstallation: line.Quote.NeedsInstallation,
		RentalPeriod:      RentalPeriod{From: line.Range.From, To: line.Range.To},
		StartTime:         line.StartTime,
		EndTime:           line.EndTime,
		Category:          product.Category,
		Subcategory:       product.Subcategory,
	}
	if err := cart.AddItem(item); err != nil {
		return nil, err
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	logger.Infow("cart_item_added", "cart_token", cart.Token, "product_id", product.ID, "quantity", item.Quantity)
	return cart, nil
}

// UpdateQuantity 修改数量并按新数量复核租期；数量 <= 0 删除该行
func (s *CartService) UpdateQuantity(ctx context.Context, token, itemID string, quantity int) (*Cart, error) {
	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	_, item := cart.FindItem(itemID)
	if item == nil {
		return nil, ErrCartItemNotFound
	}
	if quantity > 0 && quantity != item.Quantity {
		if err := s.revalidateItem(ctx, item, quantity); err != nil {
			return nil, err
		}
	}
	if err := cart.UpdateQuantity(itemID, quantity); err != nil {
		return nil, err
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem 删除一行
func (s *CartService) RemoveItem(ctx context.Context, token, itemID string) (*Cart, error) {
	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := cart.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SetDelivery 设置取货方式与地址
func (s *CartService) SetDelivery(ctx context.Context, token, option, address string) (*Cart, error) {
	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := cart.SetDeliveryOption(strings.TrimSpace(option)); err != nil {
		return nil, err
	}
	if cart.IsDelivery() && strings.TrimSpace(address) != "" {
		cart.SetDeliveryAddress(address)
	}
	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// QuoteDelivery 估算配送费并写入购物车
func (s *CartService) QuoteDelivery(ctx context.Context, token, address string) (*Cart, *DeliveryEstimate, error) {
	cart, err := s.Get(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if len(cart.Items) == 0 {
		return nil, nil, ErrCartEmpty
	}
	base := SumBaseDeliveryFees(cart.PricedLines())
	if !base.GreaterThan(decimal.Zero) {
		return nil, nil, ErrNoDeliveryEligibleItems
	}
	estimate, err := s.delivery.Estimate(ctx, address, base)
	if err != nil {
		return nil, nil, err
	}
	if err := cart.SetDeliveryOption(constants.DeliveryOptionDelivery); err != nil {
		return nil, nil, err
	}
	cart.SetDeliveryAddress(estimate.Address)
	cart.UpdateDeliveryFee(estimate.DistanceFees.Decimal, estimate.Distance)
	if err := s.save(ctx, cart); err != nil {
		return nil, nil, err
	}
	return cart, estimate, nil
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, token string) (*Cart, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrCartTokenRequired
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return nil, err
	}
	return NewCart(token, s.flatCaution), nil
}

func (s *CartService) revalidateItem(ctx context.Context, item *CartItem, quantity int) error {
	product, err := s.productRepo.GetByID(ctx, item.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if product.IsOutOfStock {
		return ErrProductOutOfStock
	}
	unavailabilities, err := s.productRepo.ListUnavailabilities(ctx, product.ID, s.policy.Today())
	if err != nil {
		return err
	}
	check, err := s.policy.RevalidateRange(item.RentalPeriod.From, item.RentalPeriod.To, product.Stock, quantity, unavailabilities)
	if err != nil {
		return err
	}
	if !check.Valid {
		return &RentalPeriodError{ProductID: product.ID, MessageKey: check.MessageKey, Message: check.Message}
	}
	return nil
}

func (s *CartService) save(ctx context.Context, cart *Cart) error {
	cart.UpdatedAt = s.now()
	return s.store.Save(ctx, cart.Token, cart, s.ttl)
}

// ReservationLineInput 预订行输入（购物车或直接提交）
type ReservationLineInput struct {
	ProductID         uint              `json:"product_id"`
	Quantity          int               `json:"quantity"`
	StartDate         string            `json:"start_date"`
	EndDate           string            `json:"end_date"`
	StartTime         string            `json:"start_time"`
	EndTime           string            `json:"end_time"`
	Selections        map[string]string `json:"selections"`
	Personalizations  map[string]string `json:"personalizations"`
	NeedsInstallation bool              `json:"needs_installation"`
}

// reservationLine 已校验、已定价的预订行
type reservationLine struct {
	Product          *models.Product
	Quote            *LineQuote
	Range            DateRange
	StartTime        string
	EndTime          string
	Personalizations map[string]string
}

// buildReservationLine 查询商品、校验租期并按目录重新定价
func buildReservationLine(ctx context.Context, productRepo repository.ProductRepository, policy *AvailabilityPolicy, input ReservationLineInput) (*reservationLine, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	product, err := productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.IsOutOfStock {
		return nil, ErrProductOutOfStock
	}

	start, err := policy.ParseDate(input.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := policy.ParseDate(input.EndDate)
	if err != nil {
		return nil, err
	}
	startTime, endTime, err := policy.ResolveTimes(input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}

	unavailabilities, err := productRepo.ListUnavailabilities(ctx, product.ID, policy.Today())
	if err != nil {
		return nil, err
	}
	check, err := policy.ValidateRange(start, end, product.Stock, input.Quantity, unavailabilities)
	if err != nil {
		return nil, err
	}
	if !check.Valid {
		return nil, &RentalPeriodError{ProductID: product.ID, MessageKey: check.MessageKey, Message: check.Message}
	}

	quote, err := QuoteLine(LineQuoteInput{
		Product:           product,
		Quantity:          input.Quantity,
		Selections:        input.Selections,
		NeedsInstallation: input.NeedsInstallation,
	})
	if err != nil {
		return nil, err
	}
	return &reservationLine{
		Product:          product,
		Quote:            quote,
		Range:            *check.Range,
		StartTime:        startTime,
		EndTime:          endTime,
		Personalizations: filterPersonalizations(product.PersonalizationFields, input.Personalizations),
	}, nil
}

// filterPersonalizations 只保留商品声明的个性化字段
func filterPersonalizations(fields models.StringArray, values map[string]string) map[string]string {
	if len(fields) == 0 || len(values) == 0 {
		return nil
	}
	result := make(map[string]string, len(fields))
	for _, field := range fields {
		if v := strings.TrimSpace(values[field]); v != "" {
			result[field] = v
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
