package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// EventCheckoutSessionCompleted 支付完成事件
const EventCheckoutSessionCompleted = "checkout.session.completed"

// WebhookEvent 校验通过的 webhook 事件
type WebhookEvent struct {
	ID      string
	Type    string
	Session *CheckoutSession
}

type eventPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object sessionPayload `json:"object"`
	} `json:"data"`
}

// VerifyAndParseWebhook 校验 Stripe-Signature 并解析事件
func VerifyAndParseWebhook(cfg *Config, signatureHeader string, body []byte, now time.Time) (*WebhookEvent, error) {
	if cfg == nil || strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrResponseInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}
	if strings.TrimSpace(signatureHeader) == "" {
		return nil, fmt.Errorf("%w: Stripe-Signature is required", ErrSignatureInvalid)
	}
	timestamp, signatures, err := parseSignatureHeader(signatureHeader)
	if err != nil {
		return nil, err
	}
	tolerance := cfg.WebhookToleranceSeconds
	if tolerance <= 0 {
		tolerance = defaultWebhookToleranceS
	}
	if math.Abs(float64(now.Unix()-timestamp)) > float64(tolerance) {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}

	expected := computeSignature(cfg.WebhookSecret, timestamp, body)
	matched := false
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			matched = true
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
	}

	var payload eventPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode event failed", ErrResponseInvalid)
	}
	if strings.TrimSpace(payload.Type) == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrResponseInvalid)
	}
	event := &WebhookEvent{
		ID:   strings.TrimSpace(payload.ID),
		Type: strings.TrimSpace(payload.Type),
	}
	if payload.Data.Object.Object == "checkout.session" {
		event.Session = payload.Data.Object.toSession()
	}
	return event, nil
}

func computeSignature(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(timestamp, 10) + "."))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// parseSignatureHeader 解析 "t=...,v1=...,v1=..." 形式的签名头
func parseSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64
	signatures := make([]string, 0, 1)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}
