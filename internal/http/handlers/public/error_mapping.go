package public

import (
	"errors"

	"github.com/chb-creations/internal/http/response"
	"github.com/chb-creations/internal/i18n"
	"github.com/chb-creations/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	if respondRentalPeriodError(c, err) {
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// respondRentalPeriodError 租期拒绝时返回规则提示与 message_key，供前端定位到具体商品
func respondRentalPeriodError(c *gin.Context, err error) bool {
	var rangeErr *service.RentalPeriodError
	if !errors.As(err, &rangeErr) {
		return false
	}
	locale := i18n.ResolveLocale(c)
	msg := rangeErr.Message
	if locale != i18n.DefaultLocale || msg == "" {
		msg = i18n.T(locale, rangeErr.MessageKey)
	}
	response.ErrorWithData(c, response.CodeBadRequest, msg, gin.H{
		"message_key": rangeErr.MessageKey,
		"product_id":  rangeErr.ProductID,
	})
	return true
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var productLookupErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrProductOutOfStock, code: response.CodeBadRequest, key: "error.product_out_of_stock"},
	{target: service.ErrInvalidQuantity, code: response.CodeBadRequest, key: "error.quantity_invalid"},
	{target: service.ErrInvalidDate, code: response.CodeBadRequest, key: "error.date_invalid"},
	{target: service.ErrInvalidTime, code: response.CodeBadRequest, key: "error.time_invalid"},
	{target: service.ErrInvalidOption, code: response.CodeBadRequest, key: "error.option_invalid"},
}

var deliveryErrorRules = []mappedHandlerError{
	{target: service.ErrDeliveryAddressRequired, code: response.CodeBadRequest, key: "error.delivery_address_required"},
	{target: service.ErrNoDeliveryEligibleItems, code: response.CodeBadRequest, key: "error.delivery_no_eligible_items"},
	{target: service.ErrInvalidDeliveryOption, code: response.CodeBadRequest, key: "error.delivery_option_invalid"},
	{target: service.ErrAddressUnresolvable, code: response.CodeBadRequest, key: "error.address_unresolvable"},
	{target: service.ErrRoutingNotConfigured, code: response.CodeServiceUnavailable, key: "error.routing_not_configured"},
}

var cartErrorRules = []mappedHandlerError{
	{target: service.ErrCartTokenRequired, code: response.CodeBadRequest, key: "error.cart_token_required"},
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, key: "error.cart_empty"},
	{target: service.ErrCartItemLocked, code: response.CodeConflict, key: "error.cart_item_locked"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, key: "error.cart_item_not_found"},
}

var captchaErrorRules = []mappedHandlerError{
	{target: service.ErrCaptchaRequired, code: response.CodeBadRequest, key: "error.captcha_required"},
	{target: service.ErrCaptchaInvalid, code: response.CodeBadRequest, key: "error.captcha_invalid"},
	{target: service.ErrCaptchaConfigInvalid, code: response.CodeInternal, key: "error.captcha_unavailable"},
}

var reservationSubmitErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidReservationData, code: response.CodeBadRequest, key: "error.reservation_data_invalid"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, key: "error.email_invalid"},
	{target: service.ErrInvalidPaymentMethod, code: response.CodeBadRequest, key: "error.payment_method_invalid"},
	{target: service.ErrDatesUnavailable, code: response.CodeConflict, key: "error.dates_unavailable"},
	{target: service.ErrPaymentNotConfigured, code: response.CodeServiceUnavailable, key: "error.payment_not_configured"},
	{target: service.ErrPaymentGatewayFailed, code: response.CodeServiceUnavailable, key: "error.payment_gateway_failed"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrSessionIDRequired, code: response.CodeBadRequest, key: "error.session_id_required"},
	{target: service.ErrCheckoutDraftNotFound, code: response.CodeNotFound, key: "error.checkout_not_found"},
	{target: service.ErrPaymentNotConfirmed, code: response.CodeBadRequest, key: "error.payment_not_confirmed"},
	// 草稿失败需优先于租期冲突匹配，二者同时出现在错误链上
	{target: service.ErrCheckoutDraftFailed, code: response.CodeConflict, key: "error.checkout_draft_failed"},
	{target: service.ErrDatesUnavailable, code: response.CodeConflict, key: "error.checkout_draft_failed"},
	{target: service.ErrCheckoutDraftInvalid, code: response.CodeInternal, key: "error.checkout_failed"},
	{target: service.ErrPaymentNotConfigured, code: response.CodeServiceUnavailable, key: "error.payment_not_configured"},
	{target: service.ErrPaymentGatewayFailed, code: response.CodeServiceUnavailable, key: "error.payment_gateway_failed"},
}

var webhookErrorRules = []mappedHandlerError{
	{target: service.ErrWebhookSignatureInvalid, code: response.CodeBadRequest, key: "error.webhook_signature_invalid"},
	{target: service.ErrPaymentNotConfigured, code: response.CodeServiceUnavailable, key: "error.payment_not_configured"},
}

var reviewErrorRules = []mappedHandlerError{
	{target: service.ErrReviewsNotConfigured, code: response.CodeServiceUnavailable, key: "error.reviews_not_configured"},
	{target: service.ErrReviewsFetchFailed, code: response.CodeServiceUnavailable, key: "error.reviews_fetch_failed"},
}

var contactErrorRules = []mappedHandlerError{
	{target: service.ErrContactFieldsRequired, code: response.CodeBadRequest, key: "error.contact_fields_required"},
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, key: "error.email_invalid"},
}

func respondProductError(c *gin.Context, err error) {
	respondWithMappedError(c, err, productLookupErrorRules, response.CodeInternal, "error.product_fetch_failed")
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(cartErrorRules, productLookupErrorRules, deliveryErrorRules), response.CodeInternal, "error.cart_update_failed")
}

func respondDeliveryError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(cartErrorRules, deliveryErrorRules), response.CodeInternal, "error.delivery_estimate_failed")
}

func respondReservationSubmitError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(captchaErrorRules, reservationSubmitErrorRules, cartErrorRules, productLookupErrorRules, deliveryErrorRules), response.CodeInternal, "error.reservation_create_failed")
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "error.checkout_failed")
}

func respondWebhookError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(webhookErrorRules, checkoutErrorRules), response.CodeInternal, "error.webhook_failed")
}

func respondReviewError(c *gin.Context, err error) {
	respondWithMappedError(c, err, reviewErrorRules, response.CodeInternal, "error.reviews_fetch_failed")
}

func respondContactError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(captchaErrorRules, contactErrorRules), response.CodeInternal, "error.contact_failed")
}
