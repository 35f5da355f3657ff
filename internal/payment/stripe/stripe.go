package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrRequestFailed    = errors.New("stripe request failed")
	ErrResponseInvalid  = errors.New("stripe response invalid")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
)

const (
	defaultAPIBaseURL        = "https://api.stripe.com"
	defaultTimeout           = 12 * time.Second
	defaultWebhookToleranceS = 300

	// MetadataDraftID 会话 metadata 中携带的支付草稿 ID
	MetadataDraftID = "draft_id"
)

// Config Stripe 配置
type Config struct {
	SecretKey               string
	WebhookSecret           string
	APIBaseURL              string
	WebhookToleranceSeconds int
	PaymentMethodTypes      []string
}

// CheckoutInput 创建定金支付会话的输入
type CheckoutInput struct {
	DraftID       uint
	Amount        decimal.Decimal
	Currency      string
	ProductName   string
	Description   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession 支付会话
type CheckoutSession struct {
	ID              string
	URL             string
	Status          string
	PaymentStatus   string
	PaymentIntentID string
	DraftID         uint
	Amount          decimal.Decimal
	Currency        string
	CustomerEmail   string
}

// Paid 会话是否已完成支付
func (s *CheckoutSession) Paid() bool {
	return s != nil && strings.EqualFold(s.PaymentStatus, "paid")
}

// Normalize 补全默认值
func (c *Config) Normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.WebhookSecret = strings.TrimSpace(c.WebhookSecret)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	if c.WebhookToleranceSeconds <= 0 {
		c.WebhookToleranceSeconds = defaultWebhookToleranceS
	}
	types := make([]string, 0, len(c.PaymentMethodTypes))
	for _, item := range c.PaymentMethodTypes {
		if trimmed := strings.ToLower(strings.TrimSpace(item)); trimmed != "" {
			types = append(types, trimmed)
		}
	}
	if len(types) == 0 {
		types = []string{"card"}
	}
	c.PaymentMethodTypes = types
}

// ValidateConfig 校验调用 API 所需配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.APIBaseURL)); err != nil {
		return fmt.Errorf("%w: api_base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

// CreateCheckoutSession 创建单行定金 Checkout Session，metadata 携带草稿 ID
func CreateCheckoutSession(ctx context.Context, cfg *Config, input CheckoutInput) (*CheckoutSession, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.DraftID == 0 {
		return nil, fmt.Errorf("%w: draft id is required", ErrConfigInvalid)
	}
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrConfigInvalid)
	}
	for _, raw := range []string{input.SuccessURL, input.CancelURL} {
		if _, err := url.ParseRequestURI(sanitizeURLForValidation(raw)); err != nil {
			return nil, fmt.Errorf("%w: redirect url is invalid", ErrConfigInvalid)
		}
	}
	minor, err := toMinorAmount(input.Amount)
	if err != nil {
		return nil, err
	}
	draftID := strconv.FormatUint(uint64(input.DraftID), 10)

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", strings.TrimSpace(input.SuccessURL))
	form.Set("cancel_url", strings.TrimSpace(input.CancelURL))
	form.Set("client_reference_id", draftID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(minor, 10))
	form.Set("line_items[0][price_data][product_data][name]", input.ProductName)
	if desc := strings.TrimSpace(input.Description); desc != "" {
		form.Set("line_items[0][price_data][product_data][description]", desc)
	}
	if email := strings.TrimSpace(input.CustomerEmail); email != "" {
		form.Set("customer_email", email)
	}
	form.Set("metadata["+MetadataDraftID+"]", draftID)
	form.Set("payment_intent_data[metadata]["+MetadataDraftID+"]", draftID)
	for _, pmType := range cfg.PaymentMethodTypes {
		form.Add("payment_method_types[]", pmType)
	}

	body, status, err := doRequest(ctx, cfg, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: create checkout session status %d", ErrResponseInvalid, status)
	}
	session, err := decodeSession(body)
	if err != nil {
		return nil, err
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("%w: missing session id or url", ErrResponseInvalid)
	}
	return session, nil
}

// GetCheckoutSession 查询会话并展开 payment_intent
func GetCheckoutSession(ctx context.Context, cfg *Config, sessionID string) (*CheckoutSession, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrConfigInvalid)
	}
	path := fmt.Sprintf("/v1/checkout/sessions/%s?expand[]=payment_intent", url.PathEscape(sessionID))
	body, status, err := doRequest(ctx, cfg, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: query checkout session status %d", ErrResponseInvalid, status)
	}
	session, err := decodeSession(body)
	if err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, fmt.Errorf("%w: missing checkout session id", ErrResponseInvalid)
	}
	return session, nil
}

// MapSessionStatus 将会话状态映射为内部支付状态
func MapSessionStatus(paymentStatus, sessionStatus string) string {
	paymentStatus = strings.ToLower(strings.TrimSpace(paymentStatus))
	sessionStatus = strings.ToLower(strings.TrimSpace(sessionStatus))
	switch {
	case paymentStatus == "paid":
		return "success"
	case sessionStatus == "expired":
		return "expired"
	case sessionStatus == "complete" && paymentStatus == "no_payment_required":
		return "success"
	default:
		return "pending"
	}
}

type sessionPayload struct {
	Object        string            `json:"object"`
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentIntent json.RawMessage   `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`
}

func decodeSession(body []byte) (*CheckoutSession, error) {
	var payload sessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return payload.toSession(), nil
}

func (p *sessionPayload) toSession() *CheckoutSession {
	session := &CheckoutSession{
		ID:              strings.TrimSpace(p.ID),
		URL:             strings.TrimSpace(p.URL),
		Status:          strings.TrimSpace(p.Status),
		PaymentStatus:   strings.TrimSpace(p.PaymentStatus),
		PaymentIntentID: paymentIntentID(p.PaymentIntent),
		Currency:        strings.ToLower(strings.TrimSpace(p.Currency)),
		CustomerEmail:   strings.TrimSpace(p.CustomerEmail),
	}
	if p.AmountTotal > 0 {
		session.Amount = fromMinorAmount(p.AmountTotal)
	}
	if raw := strings.TrimSpace(p.Metadata[MetadataDraftID]); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			session.DraftID = uint(id)
		}
	}
	return session
}

// paymentIntentID 兼容字符串 ID 与展开后的对象
func paymentIntentID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return strings.TrimSpace(id)
	}
	var object struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &object); err == nil {
		return strings.TrimSpace(object.ID)
	}
	return ""
}

func sanitizeURLForValidation(rawURL string) string {
	return strings.ReplaceAll(strings.TrimSpace(rawURL), "{CHECKOUT_SESSION_ID}", "cs_test_placeholder")
}

// toMinorAmount 欧元金额转为分
func toMinorAmount(amount decimal.Decimal) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrConfigInvalid)
	}
	return amount.Shift(2).Round(0).IntPart(), nil
}

func fromMinorAmount(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-2)
}

func doRequest(ctx context.Context, cfg *Config, method, path string, form url.Values) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/") + path
	var reader io.Reader
	if form != nil {
		reader = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.SecretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := (&http.Client{Timeout: defaultTimeout}).Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return body, resp.StatusCode, nil
}
