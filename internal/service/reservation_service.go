package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/logger"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ReservationServiceOptions 预订服务依赖
type ReservationServiceOptions struct {
	ProductRepo     repository.ProductRepository
	ReservationRepo repository.ReservationRepository
	DraftRepo       repository.CheckoutDraftRepository
	Policy          *AvailabilityPolicy
	Delivery        *DeliveryService
	Carts           *CartService
	Payments        PaymentGateway
	Notifier        ReservationNotifier
	Captcha         *CaptchaService
	Shop            config.ShopConfig
	Reservation     config.ReservationConfig
	Currency        string
}

// ReservationService 预订提交、在线定金支付与状态流转
type ReservationService struct {
	productRepo     repository.ProductRepository
	reservationRepo repository.ReservationRepository
	draftRepo       repository.CheckoutDraftRepository
	policy          *AvailabilityPolicy
	delivery        *DeliveryService
	carts           *CartService
	payments        PaymentGateway
	notifier        ReservationNotifier
	captcha         *CaptchaService
	shop            config.ShopConfig
	currency        string
	flatCaution     decimal.Decimal
	now             func() time.Time
}

// NewReservationService 创建预订服务
func NewReservationService(opts ReservationServiceOptions) *ReservationService {
	currency := strings.ToLower(strings.TrimSpace(opts.Currency))
	if currency == "" {
		currency = "eur"
	}
	return &ReservationService{
		productRepo:     opts.ProductRepo,
		reservationRepo: opts.ReservationRepo,
		draftRepo:       opts.DraftRepo,
		policy:          opts.Policy,
		delivery:        opts.Delivery,
		carts:           opts.Carts,
		payments:        opts.Payments,
		notifier:        opts.Notifier,
		captcha:         opts.Captcha,
		shop:            opts.Shop,
		currency:        currency,
		flatCaution:     decimal.NewFromFloat(opts.Reservation.CautionAmount),
		now:             time.Now,
	}
}

// SubmitReservationInput 提交预订输入；Items 为空时读取购物车
type SubmitReservationInput struct {
	Customer        models.CustomerInfo
	CartToken       string
	Items           []ReservationLineInput
	DeliveryOption  string
	DeliveryAddress string
	PaymentMethod   string
	Captcha         CaptchaVerifyPayload
	ClientIP        string
}

// SubmitReservationResult 提交结果；在线支付时 Reservation 为空，需跳转 CheckoutURL
type SubmitReservationResult struct {
	Reservation     *models.Reservation `json:"reservation,omitempty"`
	RequiresPayment bool                `json:"requires_payment"`
	CheckoutURL     string              `json:"checkout_url,omitempty"`
	SessionID       string              `json:"session_id,omitempty"`
	DraftID         uint                `json:"draft_id,omitempty"`
	Totals          Totals              `json:"totals"`
}

// reservationDraft 在线支付前暂存的完整预订
type reservationDraft struct {
	CartToken   string                   `json:"cart_token,omitempty"`
	Reservation models.Reservation       `json:"reservation"`
	Items       []models.ReservationItem `json:"items"`
}

func reservationLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// Submit 校验、重新定价并按定金与支付方式决定预订状态
func (s *ReservationService) Submit(ctx context.Context, input SubmitReservationInput) (*SubmitReservationResult, error) {
	log := reservationLogger("cart_token", input.CartToken, "payment_method", input.PaymentMethod)

	customer, err := normalizeCustomer(input.Customer)
	if err != nil {
		return nil, err
	}
	method, err := normalizePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	deliveryOption, err := normalizeDeliveryOption(input.DeliveryOption)
	if err != nil {
		return nil, err
	}

	var cart *Cart
	lineInputs := input.Items
	if len(lineInputs) == 0 && strings.TrimSpace(input.CartToken) != "" && s.carts != nil {
		cart, err = s.carts.Get(ctx, input.CartToken)
		if err != nil {
			return nil, err
		}
		lineInputs = cartLineInputs(cart)
	}
	if len(lineInputs) == 0 {
		return nil, ErrCartEmpty
	}

	address := strings.TrimSpace(input.DeliveryAddress)
	if deliveryOption == constants.DeliveryOptionDelivery && address == "" && cart != nil {
		address = cart.DeliveryAddress
	}
	if deliveryOption == constants.DeliveryOptionDelivery && address == "" {
		return nil, ErrDeliveryAddressRequired
	}

	if s.captcha != nil {
		if err := s.captcha.Verify(constants.CaptchaSceneReservation, input.Captcha, input.ClientIP); err != nil {
			return nil, err
		}
	}

	lines := make([]*reservationLine, 0, len(lineInputs))
	priced := make([]PricedLine, 0, len(lineInputs))
	for _, lineInput := range lineInputs {
		line, err := buildReservationLine(ctx, s.productRepo, s.policy, lineInput)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
		priced = append(priced, PricedLineFromQuote(line.Quote))
	}

	distanceFee := decimal.Zero
	distanceKm := 0.0
	if deliveryOption == constants.DeliveryOptionDelivery {
		base := SumBaseDeliveryFees(priced)
		if !base.GreaterThan(decimal.Zero) {
			return nil, ErrNoDeliveryEligibleItems
		}
		if cart != nil && cart.DeliveryAddress == address && cart.DeliveryDistanceKm > 0 {
			distanceKm = cart.DeliveryDistanceKm
			distanceFee = s.delivery.DistanceFee(distanceKm)
		} else {
			estimate, err := s.delivery.Estimate(ctx, address, base)
			if err != nil {
				return nil, err
			}
			distanceKm = estimate.Distance
			distanceFee = estimate.DistanceFees.Decimal
		}
	} else {
		address = ""
	}

	totals := ComputeTotals(TotalsInput{
		Lines:          priced,
		DeliveryOption: deliveryOption,
		DistanceFee:    distanceFee,
		FlatCaution:    s.flatCaution,
	})
	reservation, items := s.buildReservation(customer, lines, totals, deliveryOption, address, distanceKm)

	switch {
	case totals.Deposit.Decimal.IsZero():
		reservation.ReservationStatus = constants.ReservationStatusConfirmedNoDeposit
		reservation.PaymentMethod = constants.PaymentMethodNone
		reservation.Deposit = models.NewMoneyFromDecimal(decimal.Zero)
	case method == constants.PaymentMethodCash:
		reservation.ReservationStatus = constants.ReservationStatusConfirmedNoDeposit
		reservation.PaymentMethod = constants.PaymentMethodCash
	default:
		result, err := s.startCheckout(ctx, input.CartToken, reservation, items)
		if err != nil {
			return nil, err
		}
		result.Totals = totals
		log.Infow("reservation_checkout_started", "draft_id", result.DraftID, "session_id", result.SessionID, "deposit", totals.Deposit.String())
		return result, nil
	}

	if err := s.persist(ctx, reservation, items, s.reservationRepo); err != nil {
		return nil, err
	}
	log.Infow("reservation_created",
		"reservation_id", reservation.ID,
		"status", reservation.ReservationStatus,
		"total_price", reservation.TotalPrice.String(),
		"deposit", reservation.Deposit.String(),
	)
	s.afterReservationCreated(ctx, reservation, input.CartToken)
	return &SubmitReservationResult{Reservation: reservation, Totals: totals}, nil
}

// GetReservation 获取预订摘要
func (s *ReservationService) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	reservation, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}
	return reservation, nil
}

// CompleteFinished 将全部明细已结束的预订标记为 DONE
func (s *ReservationService) CompleteFinished(ctx context.Context) (int64, error) {
	affected, err := s.reservationRepo.CompleteFinished(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		reservationLogger().Infow("reservations_completed", "count", affected)
	}
	return affected, nil
}

// UpdateStatus 单向状态流转（DONE / CANCELLED 为终态）
func (s *ReservationService) UpdateStatus(ctx context.Context, id uint, status string) error {
	if err := s.reservationRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrInvalidStatusTransition) {
			return fmt.Errorf("%w: %v", ErrReservationStatusInvalid, err)
		}
		return err
	}
	return nil
}

func (s *ReservationService) buildReservation(customer models.CustomerInfo, lines []*reservationLine, totals Totals, deliveryOption, address string, distanceKm float64) (*models.Reservation, []models.ReservationItem) {
	reservation := &models.Reservation{
		CustomerInfos:      customer,
		Deposit:            totals.Deposit,
		Caution:            totals.Caution,
		DeliveryOption:     deliveryOption,
		DeliveryAddress:    address,
		DeliveryDistanceKm: distanceKm,
		DeliveryFees:       totals.DeliveryFee,
		TotalPrice:         totals.GrandTotal,
	}
	items := make([]models.ReservationItem, 0, len(lines))
	for _, line := range lines {
		start, end, _ := s.policy.RentalBounds(line.Range, line.StartTime, line.EndTime)
		items = append(items, models.ReservationItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Quote.Quantity,
			RentalStart: start,
			RentalEnd:   end,
			Options: models.ItemOptions{
				SelectedOptions:   line.Quote.SelectedOptions,
				Personalizations:  line.Personalizations,
				NeedsInstallation: line.Quote.NeedsInstallation,
				StartTime:         line.StartTime,
				EndTime:           line.EndTime,
			},
			UnitPrice: line.Quote.PerUnitTotal,
			LineTotal: line.Quote.LineTotal,
		})
	}
	return reservation, items
}

// persist 在一个事务内写入预订与明细，容量冲突映射为日期不可用
func (s *ReservationService) persist(ctx context.Context, reservation *models.Reservation, items []models.ReservationItem, repo repository.ReservationRepository) error {
	if err := repo.CreateWithItems(ctx, reservation, items); err != nil {
		var capErr *repository.CapacityError
		switch {
		case errors.As(err, &capErr):
			reservationLogger().Warnw("reservation_capacity_conflict",
				"product_id", capErr.ProductID,
				"date", capErr.Date,
				"stock", capErr.Stock,
				"reserved", capErr.Reserved,
				"requested", capErr.Requested,
			)
			return fmt.Errorf("%w: %v", ErrDatesUnavailable, err)
		case errors.Is(err, repository.ErrCapacityExceeded):
			return fmt.Errorf("%w: %v", ErrDatesUnavailable, err)
		case errors.Is(err, repository.ErrProductNotFound):
			return ErrProductNotFound
		default:
			return err
		}
	}
	return nil
}

// afterReservationCreated 发送确认通知并清空购物车；失败只记录日志
func (s *ReservationService) afterReservationCreated(ctx context.Context, reservation *models.Reservation, cartToken string) {
	if s.notifier != nil {
		s.notifier.NotifyReservationConfirmed(ctx, reservation.ID)
	}
	cartToken = strings.TrimSpace(cartToken)
	if cartToken == "" || s.carts == nil {
		return
	}
	if _, err := s.carts.Clear(ctx, cartToken); err != nil {
		reservationLogger().Warnw("reservation_cart_clear_failed", "reservation_id", reservation.ID, "cart_token", cartToken, "error", err)
	}
}

func cartLineInputs(cart *Cart) []ReservationLineInput {
	if cart == nil {
		return nil
	}
	inputs := make([]ReservationLineInput, 0, len(cart.Items))
	for _, item := range cart.Items {
		inputs = append(inputs, ReservationLineInput{
			ProductID:         item.ProductID,
			Quantity:          item.Quantity,
			StartDate:         item.RentalPeriod.From.Format(constants.DateLayout),
			EndDate:           item.RentalPeriod.To.Format(constants.DateLayout),
			StartTime:         item.StartTime,
			EndTime:           item.EndTime,
			Selections:        item.Selections(),
			Personalizations:  item.Personalizations,
			NeedsInstallation: item.NeedsInstallation,
		})
	}
	return inputs
}

func normalizeCustomer(c models.CustomerInfo) (models.CustomerInfo, error) {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.FirstName == "" || c.LastName == "" || c.Email == "" || c.Phone == "" {
		return c, ErrInvalidReservationData
	}
	if !isValidEmail(c.Email) {
		return c, ErrInvalidEmail
	}
	return c, nil
}

func normalizePaymentMethod(method string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", constants.PaymentMethodOnline:
		return constants.PaymentMethodOnline, nil
	case constants.PaymentMethodCash:
		return constants.PaymentMethodCash, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

func normalizeDeliveryOption(option string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(option)) {
	case "", constants.DeliveryOptionPickup:
		return constants.DeliveryOptionPickup, nil
	case constants.DeliveryOptionDelivery:
		return constants.DeliveryOptionDelivery, nil
	default:
		return "", ErrInvalidDeliveryOption
	}
}

func isValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}
