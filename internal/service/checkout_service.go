package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/payment/stripe"

	"gorm.io/gorm"
)

const (
	checkoutProductName = "Acompte pour réservation %s"
	checkoutDescription = "Acompte de %s € pour votre réservation"
	checkoutSuccessPath = "/panier/success?session_id={CHECKOUT_SESSION_ID}"
	checkoutCancelPath  = "/panier"
)

// PaymentGateway 定金支付会话
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, input stripe.CheckoutInput) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
	ParseWebhook(signatureHeader string, body []byte) (*stripe.WebhookEvent, error)
}

// stripeGateway 基于 Stripe REST 的实现
type stripeGateway struct {
	cfg stripe.Config
}

// NewStripeGateway 按配置创建 Stripe 网关
func NewStripeGateway(cfg config.StripeConfig) PaymentGateway {
	gatewayCfg := stripe.Config{
		SecretKey:               cfg.SecretKey,
		WebhookSecret:           cfg.WebhookSecret,
		APIBaseURL:              cfg.APIBaseURL,
		WebhookToleranceSeconds: cfg.WebhookToleranceSeconds,
		PaymentMethodTypes:      cfg.PaymentMethodTypes,
	}
	gatewayCfg.Normalize()
	return &stripeGateway{cfg: gatewayCfg}
}

func (g *stripeGateway) CreateCheckoutSession(ctx context.Context, input stripe.CheckoutInput) (*stripe.CheckoutSession, error) {
	if err := stripe.ValidateConfig(&g.cfg); err != nil {
		return nil, mapStripeGatewayError(err)
	}
	session, err := stripe.CreateCheckoutSession(ctx, &g.cfg, input)
	if err != nil {
		return nil, mapStripeGatewayError(err)
	}
	return session, nil
}

func (g *stripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	if err := stripe.ValidateConfig(&g.cfg); err != nil {
		return nil, mapStripeGatewayError(err)
	}
	session, err := stripe.GetCheckoutSession(ctx, &g.cfg, sessionID)
	if err != nil {
		return nil, mapStripeGatewayError(err)
	}
	return session, nil
}

func (g *stripeGateway) ParseWebhook(signatureHeader string, body []byte) (*stripe.WebhookEvent, error) {
	event, err := stripe.VerifyAndParseWebhook(&g.cfg, signatureHeader, body, time.Now())
	if err != nil {
		return nil, mapStripeGatewayError(err)
	}
	return event, nil
}

func mapStripeGatewayError(err error) error {
	switch {
	case errors.Is(err, stripe.ErrConfigInvalid):
		return fmt.Errorf("%w: %v", ErrPaymentNotConfigured, err)
	case errors.Is(err, stripe.ErrSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrWebhookSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrPaymentGatewayFailed, err)
	}
}

// startCheckout 暂存预订草稿并创建定金支付会话
func (s *ReservationService) startCheckout(ctx context.Context, cartToken string, reservation *models.Reservation, items []models.ReservationItem) (*SubmitReservationResult, error) {
	if s.payments == nil || s.draftRepo == nil {
		return nil, ErrPaymentNotConfigured
	}
	reservation.PaymentMethod = constants.PaymentMethodOnline
	payload, err := json.Marshal(reservationDraft{
		CartToken:   strings.TrimSpace(cartToken),
		Reservation: *reservation,
		Items:       items,
	})
	if err != nil {
		return nil, err
	}
	draft := &models.CheckoutDraft{
		Payload:       string(payload),
		DepositAmount: reservation.Deposit,
		TotalAmount:   reservation.TotalPrice,
		Status:        constants.CheckoutDraftStatusPending,
	}
	if err := s.draftRepo.Create(ctx, draft); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(strings.TrimSpace(s.shop.PublicBaseURL), "/")
	session, err := s.payments.CreateCheckoutSession(ctx, stripe.CheckoutInput{
		DraftID:       draft.ID,
		Amount:        reservation.Deposit.Decimal,
		Currency:      s.currency,
		ProductName:   fmt.Sprintf(checkoutProductName, s.shop.DisplayName()),
		Description:   fmt.Sprintf(checkoutDescription, reservation.Deposit.String()),
		CustomerEmail: reservation.CustomerInfos.Email,
		SuccessURL:    baseURL + checkoutSuccessPath,
		CancelURL:     baseURL + checkoutCancelPath,
	})
	if err != nil {
		draft.Status = constants.CheckoutDraftStatusFailed
		draft.FailureReason = truncateReason(err.Error())
		if updateErr := s.draftRepo.Update(ctx, draft); updateErr != nil {
			reservationLogger().Warnw("checkout_draft_update_failed", "draft_id", draft.ID, "error", updateErr)
		}
		reservationLogger().Errorw("checkout_session_create_failed", "draft_id", draft.ID, "error", err)
		return nil, err
	}
	draft.SessionID = session.ID
	if err := s.draftRepo.Update(ctx, draft); err != nil {
		return nil, err
	}
	return &SubmitReservationResult{
		RequiresPayment: true,
		CheckoutURL:     session.URL,
		SessionID:       session.ID,
		DraftID:         draft.ID,
	}, nil
}

// CompleteCheckout 支付成功页回调：确认会话已支付后落库预订
func (s *ReservationService) CompleteCheckout(ctx context.Context, sessionID string) (*models.Reservation, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionIDRequired
	}
	if s.payments == nil {
		return nil, ErrPaymentNotConfigured
	}
	session, err := s.payments.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.completeSession(ctx, session)
}

// HandleStripeWebhook 处理 checkout.session.completed；其他事件忽略
func (s *ReservationService) HandleStripeWebhook(ctx context.Context, signatureHeader string, body []byte) (*models.Reservation, string, error) {
	if s.payments == nil {
		return nil, "", ErrPaymentNotConfigured
	}
	event, err := s.payments.ParseWebhook(signatureHeader, body)
	if err != nil {
		return nil, "", err
	}
	log := reservationLogger("event_id", event.ID, "event_type", event.Type)
	if event.Type != stripe.EventCheckoutSessionCompleted || event.Session == nil {
		log.Infow("stripe_webhook_event_ignored")
		return nil, event.Type, nil
	}
	if !event.Session.Paid() {
		log.Infow("stripe_webhook_session_unpaid", "session_id", event.Session.ID)
		return nil, event.Type, nil
	}
	reservation, err := s.completeSession(ctx, event.Session)
	if err != nil {
		return nil, event.Type, err
	}
	return reservation, event.Type, nil
}

// completeSession 锁定草稿后幂等地创建预订；已完成的草稿直接返回原预订
func (s *ReservationService) completeSession(ctx context.Context, session *stripe.CheckoutSession) (*models.Reservation, error) {
	if session == nil || !session.Paid() {
		return nil, ErrPaymentNotConfirmed
	}
	if s.draftRepo == nil {
		return nil, ErrPaymentNotConfigured
	}
	log := reservationLogger("session_id", session.ID, "draft_id", session.DraftID)

	draftID := session.DraftID
	if draftID == 0 {
		draft, err := s.draftRepo.GetBySessionID(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		if draft == nil {
			return nil, ErrCheckoutDraftNotFound
		}
		draftID = draft.ID
	}

	var (
		reservation *models.Reservation
		created     bool
		cartToken   string
		conflictErr error
	)
	err := s.draftRepo.Transaction(func(tx *gorm.DB) error {
		drafts := s.draftRepo.WithTx(tx)
		reservations := s.reservationRepo.WithTx(tx)

		draft, err := drafts.GetByIDForUpdate(ctx, draftID)
		if err != nil {
			return err
		}
		if draft == nil {
			return ErrCheckoutDraftNotFound
		}
		switch draft.Status {
		case constants.CheckoutDraftStatusCompleted:
			if draft.ReservationID == nil {
				return ErrCheckoutDraftNotFound
			}
			existing, err := reservations.GetByID(ctx, *draft.ReservationID)
			if err != nil {
				return err
			}
			if existing == nil {
				return ErrReservationNotFound
			}
			reservation = existing
			return nil
		case constants.CheckoutDraftStatusFailed:
			return fmt.Errorf("%w: %w: %s", ErrCheckoutDraftFailed, ErrDatesUnavailable, draft.FailureReason)
		}

		var payload reservationDraft
		if err := json.Unmarshal([]byte(draft.Payload), &payload); err != nil {
			return fmt.Errorf("%w: %v", ErrCheckoutDraftInvalid, err)
		}
		if strings.TrimSpace(payload.Reservation.CustomerInfos.Email) == "" || len(payload.Items) == 0 {
			return ErrCheckoutDraftInvalid
		}
		cartToken = payload.CartToken

		next := payload.Reservation
		next.ID = 0
		next.Items = nil
		next.ReservationStatus = constants.ReservationStatusConfirmed
		next.PaymentMethod = constants.PaymentMethodOnline
		paymentRef := strings.TrimSpace(session.PaymentIntentID)
		if paymentRef == "" {
			paymentRef = session.ID
		}
		next.StripePaymentID = &paymentRef

		if err := s.persist(ctx, &next, payload.Items, reservations); err != nil {
			if !errors.Is(err, ErrDatesUnavailable) {
				return err
			}
			draft.Status = constants.CheckoutDraftStatusFailed
			draft.FailureReason = truncateReason(err.Error())
			if updateErr := drafts.Update(ctx, draft); updateErr != nil {
				return updateErr
			}
			conflictErr = err
			return nil
		}

		draft.Status = constants.CheckoutDraftStatusCompleted
		draft.ReservationID = &next.ID
		draft.SessionID = session.ID
		if err := drafts.Update(ctx, draft); err != nil {
			return err
		}
		reservation = &next
		created = true
		return nil
	})
	if err != nil {
		log.Warnw("checkout_complete_failed", "error", err)
		return nil, err
	}
	if conflictErr != nil {
		log.Errorw("checkout_paid_capacity_conflict", "payment_intent_id", session.PaymentIntentID, "error", conflictErr)
		return nil, conflictErr
	}
	if created {
		log.Infow("reservation_created",
			"reservation_id", reservation.ID,
			"status", reservation.ReservationStatus,
			"total_price", reservation.TotalPrice.String(),
			"deposit", reservation.Deposit.String(),
		)
		s.afterReservationCreated(ctx, reservation, cartToken)
	}
	return reservation, nil
}

func truncateReason(reason string) string {
	const maxLen = 500
	runes := []rune(reason)
	if len(runes) <= maxLen {
		return reason
	}
	return string(runes[:maxLen])
}
