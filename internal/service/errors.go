package service

import (
	"errors"
	"fmt"
)

// 校验类错误
var (
	ErrInvalidQuantity          = errors.New("quantity must be at least 1")
	ErrInvalidDate              = errors.New("invalid date")
	ErrInvalidTime              = errors.New("invalid time of day")
	ErrInvalidOption            = errors.New("invalid product option")
	ErrInvalidReservationData   = errors.New("invalid reservation data")
	ErrInvalidEmail             = errors.New("invalid email")
	ErrInvalidPaymentMethod     = errors.New("invalid payment method")
	ErrInvalidDeliveryOption    = errors.New("invalid delivery option")
	ErrDeliveryAddressRequired  = errors.New("delivery address required")
	ErrNoDeliveryEligibleItems  = errors.New("no delivery eligible items")
	ErrContactFieldsRequired    = errors.New("contact fields required")
	ErrSessionIDRequired        = errors.New("session id required")
	ErrRentalPeriodRejected     = errors.New("rental period rejected")
	ErrCartEmpty                = errors.New("cart is empty")
	ErrCartItemLocked           = errors.New("product already in cart")
	ErrCartItemNotFound         = errors.New("cart item not found")
	ErrCartTokenRequired        = errors.New("cart token required")
	ErrProductOutOfStock        = errors.New("product out of stock")
	ErrDatesUnavailable         = errors.New("dates no longer available")
	ErrPaymentNotConfirmed      = errors.New("payment not confirmed")
	ErrWebhookSignatureInvalid  = errors.New("webhook signature invalid")
	ErrReservationStatusInvalid = errors.New("reservation status transition rejected")
)

// 资源不存在
var (
	ErrProductNotFound       = errors.New("product not found")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrCheckoutDraftNotFound = errors.New("checkout draft not found")
)

// 配置与外部依赖错误
var (
	ErrRoutingNotConfigured = errors.New("routing api key missing")
	ErrAddressUnresolvable  = errors.New("address unresolvable")
	ErrReviewsNotConfigured = errors.New("reviews not configured")
	ErrReviewsFetchFailed   = errors.New("reviews fetch failed")
	ErrPaymentNotConfigured = errors.New("payment provider not configured")
	ErrPaymentGatewayFailed = errors.New("payment provider request failed")
	ErrCheckoutDraftInvalid = errors.New("checkout draft payload invalid")
	ErrCheckoutDraftFailed  = errors.New("checkout draft failed")
	ErrPDFRenderFailed      = errors.New("reservation pdf render failed")
)

// 邮件错误
var (
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrEmailSendFailed           = errors.New("email send failed")
)

// 验证码错误
var (
	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
)

// RentalPeriodError 租期被规则拒绝，携带面向用户的提示
type RentalPeriodError struct {
	ProductID  uint
	MessageKey string
	Message    string
}

func (e *RentalPeriodError) Error() string {
	return fmt.Sprintf("%s: product %d: %s", ErrRentalPeriodRejected.Error(), e.ProductID, e.Message)
}

// Is 支持 errors.Is 匹配 ErrRentalPeriodRejected
func (e *RentalPeriodError) Is(target error) bool {
	return target == ErrRentalPeriodRejected
}
