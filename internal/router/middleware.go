package router

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chb-creations/internal/config"
	publichandlers "github.com/chb-creations/internal/http/handlers/public"
	"github.com/chb-creations/internal/http/response"
	"github.com/chb-creations/internal/i18n"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// 外部传入的请求 ID 仅接受短的安全字符，否则重新生成
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

var (
	defaultCORSMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}
	defaultCORSHeaders = []string{
		"Content-Type",
		"Accept-Language",
		"Cache-Control",
		"X-Requested-With",
		"Stripe-Signature",
		requestIDHeader,
		publichandlers.CartTokenHeader,
	}
)

type corsPolicy struct {
	origins     []string
	credentials bool
	methods     string
	headers     string
	expose      string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		origins:     cfg.AllowedOrigins,
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:     strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
		expose:      publichandlers.CartTokenHeader + ", " + requestIDHeader,
	}
	if len(p.origins) == 0 {
		p.origins = []string{"*"}
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// CORSMiddleware 跨域中间件，前端需要读取 X-Cart-Token 响应头
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if origin := resolveAllowedOrigin(c.GetHeader("Origin"), policy.origins, policy.credentials); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
		}
		if policy.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Allow-Methods", policy.methods)
		h.Set("Access-Control-Allow-Headers", policy.headers)
		h.Set("Access-Control-Expose-Headers", policy.expose)
		if policy.maxAge != "" {
			h.Set("Access-Control-Max-Age", policy.maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// resolveAllowedOrigin 通配符且允许凭证时回显请求来源
func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	for _, allowed := range allowedOrigins {
		switch {
		case allowed == "*" && allowCredentials && origin != "":
			return origin
		case allowed == "*":
			return "*"
		case origin != "" && strings.EqualFold(allowed, origin):
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 透传或生成 X-Request-ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if !requestIDPattern.MatchString(requestID) {
			requestID = uuid.NewString()
		}
		c.Set(response.RequestIDKey, requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 访问日志，按路由模板记录，不记录购物车令牌本身
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		fields := []interface{}{
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
			"has_cart_token", c.GetHeader(publichandlers.CartTokenHeader) != "",
		}
		switch {
		case len(c.Errors) > 0:
			sugar.Errorw("request", append(fields, "errors", c.Errors.String())...)
		case c.Writer.Status() >= http.StatusInternalServerError:
			sugar.Warnw("request", fields...)
		default:
			sugar.Infow("request", fields...)
		}
	}
}

// RecoveryMiddleware 捕获 panic 并以统一结构返回内部错误
func RecoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("panic_recovered",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		response.Error(c, response.CodeInternal, i18n.T(i18n.ResolveLocale(c), "error.internal"))
		c.Abort()
	})
}

func getRequestID(c *gin.Context) string {
	return c.GetString(response.RequestIDKey)
}
