package router

import (
	"net/http"

	"github.com/chb-creations/internal/cache"
	"github.com/chb-creations/internal/config"
	publichandlers "github.com/chb-creations/internal/http/handlers/public"
	"github.com/chb-creations/internal/logger"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	h := publichandlers.New(c)
	redisClient := cache.Client()
	reservationRule := NewRateLimitRule(cfg.Redis.Prefix, "reservation", cfg.Security.ReservationRateLimit)
	contactRule := NewRateLimitRule(cfg.Redis.Prefix, "contact", cfg.Security.ContactRateLimit)
	deliveryRule := NewRateLimitRule(cfg.Redis.Prefix, "delivery", cfg.Security.DeliveryRateLimit)

	// 中间件
	r.Use(RecoveryMiddleware(log))
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 商品目录
		public := apiV1.Group("/public")
		{
			public.GET("/subcategories", h.GetSubcategories)
			public.GET("/products", h.GetProducts)
			public.GET("/products/:slug", h.GetProductBySlug)
			public.GET("/products/:slug/availability", h.GetProductAvailability)
			public.POST("/products/:slug/availability/check", h.CheckProductRange)
			public.POST("/products/:slug/quote", h.QuoteProduct)
		}

		// 购物车（X-Cart-Token）
		cart := apiV1.Group("/cart")
		{
			cart.GET("", h.GetCart)
			cart.DELETE("", h.ClearCart)
			cart.POST("/items", h.AddCartItem)
			cart.PATCH("/items/:id", h.UpdateCartItem)
			cart.DELETE("/items/:id", h.DeleteCartItem)
			cart.PUT("/delivery", h.SetCartDelivery)
			cart.POST("/delivery/quote", RateLimitMiddleware(redisClient, deliveryRule, KeyByIP), h.QuoteCartDelivery)
		}

		apiV1.POST("/delivery/estimate", RateLimitMiddleware(redisClient, deliveryRule, KeyByIP), h.EstimateDelivery)
		apiV1.GET("/address/autocomplete", h.AutocompleteAddress)

		// 预订与支付
		apiV1.POST("/reservations", RateLimitMiddleware(redisClient, reservationRule, KeyByIP), h.CreateReservation)
		apiV1.GET("/reservations/:id", h.GetReservation)
		apiV1.POST("/checkout/complete", h.CompleteCheckout)
		apiV1.POST("/webhooks/stripe", h.StripeWebhook)

		apiV1.GET("/reviews", h.GetReviews)
		apiV1.POST("/contact", RateLimitMiddleware(redisClient, contactRule, KeyByIPAndJSONField("email")), h.SubmitContact)

		apiV1.GET("/captcha/config", h.GetCaptchaConfig)
		apiV1.GET("/captcha/image", h.GetImageCaptcha)
	}

	// 健康检查
	r.GET("/health", func(ctx *gin.Context) {
		status := gin.H{"status": "ok"}
		if models.DB != nil {
			if sqlDB, err := models.DB.DB(); err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
				status["status"] = "degraded"
				status["database"] = "unreachable"
			}
		}
		if cache.Enabled() {
			if err := cache.Ping(ctx.Request.Context()); err != nil {
				status["redis"] = "unreachable"
			}
		}
		ctx.JSON(http.StatusOK, status)
	})

	return r
}
