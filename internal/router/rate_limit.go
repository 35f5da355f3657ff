package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/http/response"
	"github.com/chb-creations/internal/i18n"
	"github.com/chb-creations/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "chb"
	// 读取限流字段时最多缓冲的请求体大小
	maxKeyBodyBytes = 64 << 10
)

// RateLimitKeyFunc 从请求中提取限流维度
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则，窗口或上限为 0 时不限流
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

// NewRateLimitRule key 形如 {redisPrefix}:rate:{name}:{维度}
func NewRateLimitRule(redisPrefix, name string, cfg config.RateLimitConfig) RateLimitRule {
	if redisPrefix = strings.TrimSpace(redisPrefix); redisPrefix == "" {
		redisPrefix = defaultRedisPrefix
	}
	return RateLimitRule{
		Prefix:        redisPrefix + ":rate:" + name,
		WindowSeconds: cfg.WindowSeconds,
		MaxRequests:   cfg.MaxRequests,
		MessageKey:    "error.rate_limited",
	}
}

func (r RateLimitRule) active() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// RateLimitDecision 一次计数的结果
type RateLimitDecision struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// Limiter 基于 Redis INCR 的固定窗口计数器
type Limiter struct {
	client *redis.Client
	rule   RateLimitRule
}

// NewLimiter 创建计数器，client 为 nil 时放行所有请求
func NewLimiter(client *redis.Client, rule RateLimitRule) *Limiter {
	return &Limiter{client: client, rule: rule}
}

// Allow 计数并判断是否超限；窗口从第一次请求开始
func (l *Limiter) Allow(ctx context.Context, key string) (RateLimitDecision, error) {
	if l == nil || l.client == nil || !l.rule.active() {
		return RateLimitDecision{Allowed: true}, nil
	}
	fullKey := key
	if l.rule.Prefix != "" {
		fullKey = l.rule.Prefix + ":" + key
	}

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, fullKey)
		pipe.ExpireNX(ctx, fullKey, l.rule.window())
		ttl = pipe.TTL(ctx, fullKey)
		return nil
	})
	if err != nil {
		return RateLimitDecision{}, fmt.Errorf("rate limit %s: %w", fullKey, err)
	}

	decision := RateLimitDecision{Count: incr.Val(), Allowed: incr.Val() <= int64(l.rule.MaxRequests)}
	if !decision.Allowed {
		decision.RetryAfter = ttl.Val()
		if decision.RetryAfter <= 0 {
			decision.RetryAfter = l.rule.window()
		}
	}
	return decision, nil
}

// RateLimitMiddleware 超限返回 429 业务码；Redis 不可用时放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	limiter := NewLimiter(client, rule)
	return func(c *gin.Context) {
		if client == nil || !rule.active() {
			c.Next()
			return
		}
		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warnw("rate_limit_unavailable", "rule", rule.Prefix, "error", err)
			c.Next()
			return
		}
		if decision.Allowed {
			c.Next()
			return
		}
		respondRateLimited(c, rule, decision.RetryAfter)
	}
}

func respondRateLimited(c *gin.Context, rule RateLimitRule, retryAfter time.Duration) {
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	msgKey := rule.MessageKey
	if msgKey == "" {
		msgKey = "error.rate_limited"
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), msgKey, seconds))
	c.Abort()
}

// KeyByIP 按客户端 IP 限流
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 按 JSON 字段（小写）与 IP 组合限流，请求体会被还原
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(peekJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

func peekJSONField(c *gin.Context, field string) string {
	if c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxKeyBodyBytes))
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	var value string
	if json.Unmarshal(payload[field], &value) != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
