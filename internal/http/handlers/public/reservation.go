package public

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/chb-creations/internal/http/response"
	"github.com/chb-creations/internal/i18n"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 1 << 20

// ReservationRequest 提交预订请求
// items 为空时使用 X-Cart-Token 对应的购物车
type ReservationRequest struct {
	CustomerInfos   models.CustomerInfo            `json:"customerInfos"`
	Items           []service.ReservationLineInput `json:"items"`
	DeliveryOption  string                         `json:"delivery_option"`
	DeliveryAddress string                         `json:"delivery_address"`
	PaymentMethod   string                         `json:"payment_method"`
	CaptchaPayload  CaptchaPayloadRequest          `json:"captcha_payload"`
}

// CheckoutCompleteRequest 支付完成回跳请求
type CheckoutCompleteRequest struct {
	SessionID string `json:"session_id" form:"session_id"`
}

// CreateReservation 提交预订；需要定金时返回支付跳转地址
func (h *Handler) CreateReservation(c *gin.Context) {
	var req ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.ReservationService.Submit(c.Request.Context(), service.SubmitReservationInput{
		Customer:        req.CustomerInfos,
		CartToken:       cartToken(c),
		Items:           req.Items,
		DeliveryOption:  req.DeliveryOption,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Captcha:         req.CaptchaPayload.ToServicePayload(),
		ClientIP:        c.ClientIP(),
	})
	if err != nil {
		respondReservationSubmitError(c, err)
		return
	}
	response.Success(c, result)
}

// GetReservation 预订摘要
func (h *Handler) GetReservation(c *gin.Context) {
	id, ok := parseReservationID(c)
	if !ok {
		return
	}
	reservation, err := h.ReservationService.GetReservation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReservationNotFound) {
			respondError(c, response.CodeNotFound, "error.reservation_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.reservation_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"reservation": reservation,
		"balance":     reservation.Balance(),
	})
}

// CompleteCheckout 支付成功页回调，幂等地落库预订
func (h *Handler) CompleteCheckout(c *gin.Context) {
	var req CheckoutCompleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = c.Query("session_id")
	}
	reservation, err := h.ReservationService.CompleteCheckout(c.Request.Context(), req.SessionID)
	if err != nil {
		requestLog(c).Warnw("checkout_complete_failed", "session_id", req.SessionID, "error", err)
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, gin.H{"reservation": reservation})
}

// StripeWebhook Stripe 事件回调
// 失败时返回非 2xx 状态，由 Stripe 重试投递
func (h *Handler) StripeWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		log.Warnw("stripe_webhook_body_read_failed", "error", err)
		respondWebhookFailure(c, http.StatusBadRequest, response.CodeBadRequest, "error.bad_request")
		return
	}
	signature := strings.TrimSpace(c.GetHeader("Stripe-Signature"))
	log.Infow("stripe_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
	)

	reservation, eventType, err := h.ReservationService.HandleStripeWebhook(c.Request.Context(), signature, body)
	if err != nil {
		log.Warnw("stripe_webhook_handle_failed", "event_type", eventType, "error", err)
		switch {
		case errors.Is(err, service.ErrWebhookSignatureInvalid):
			respondWebhookFailure(c, http.StatusBadRequest, response.CodeBadRequest, "error.webhook_signature_invalid")
		case errors.Is(err, service.ErrCheckoutDraftFailed), errors.Is(err, service.ErrDatesUnavailable):
			// 已支付但无法落库的草稿由人工处理，不再重试
			respondWebhookError(c, err)
		default:
			respondWebhookFailure(c, http.StatusInternalServerError, response.CodeInternal, "error.webhook_failed")
		}
		return
	}

	data := gin.H{
		"accepted":   true,
		"event_type": eventType,
		"updated":    reservation != nil,
	}
	if reservation != nil {
		data["reservation_id"] = reservation.ID
	}
	response.Success(c, data)
}

func respondWebhookFailure(c *gin.Context, status, code int, key string) {
	response.Fail(c, status, code, i18n.T(i18n.ResolveLocale(c), key))
}
