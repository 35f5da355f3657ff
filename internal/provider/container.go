package provider

import (
	"github.com/chb-creations/internal/cache"
	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/google"
	"github.com/chb-creations/internal/logger"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/queue"
	"github.com/chb-creations/internal/repository"
	"github.com/chb-creations/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Google      *google.Client

	// Repositories
	ProductRepo       repository.ProductRepository
	ReservationRepo   repository.ReservationRepository
	CheckoutDraftRepo repository.CheckoutDraftRepository
	ContactRepo       repository.ContactRepository

	// Services
	AvailabilityPolicy  *service.AvailabilityPolicy
	EmailService        *service.EmailService
	CaptchaService      *service.CaptchaService
	ProductService      *service.ProductService
	DeliveryService     *service.DeliveryService
	CartService         *service.CartService
	NotificationService *service.NotificationService
	ReservationService  *service.ReservationService
	ReviewService       *service.ReviewService
	ContactService      *service.ContactService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Google:      google.NewClient(cfg.Google),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.ProductRepo = repository.NewProductRepository(db)
	c.ReservationRepo = repository.NewReservationRepository(db, c.Config.Shop.Location())
	c.CheckoutDraftRepo = repository.NewCheckoutDraftRepository(db)
	c.ContactRepo = repository.NewContactRepository(db)
}

func (c *Container) initServices() {
	cfg := c.Config
	if !c.Google.Configured() {
		logger.Warnw("provider_google_not_configured", "hint", "delivery quotes and reviews are unavailable")
	}

	c.AvailabilityPolicy = service.NewAvailabilityPolicy(cfg.Reservation, cfg.Shop.Location())
	c.EmailService = service.NewEmailService(cfg.Email)
	c.CaptchaService = service.NewCaptchaService(cfg.Captcha)
	c.ProductService = service.NewProductService(c.ProductRepo, c.AvailabilityPolicy)
	c.DeliveryService = service.NewDeliveryService(c.Google, c.Google, cfg.Shop, cfg.Delivery)
	c.CartService = service.NewCartService(c.ProductRepo, c.AvailabilityPolicy, c.DeliveryService, nil, cfg.Cart, cfg.Reservation)
	c.NotificationService = service.NewNotificationService(c.ReservationRepo, c.EmailService, c.QueueClient, cfg.Shop)
	c.ReservationService = service.NewReservationService(service.ReservationServiceOptions{
		ProductRepo:     c.ProductRepo,
		ReservationRepo: c.ReservationRepo,
		DraftRepo:       c.CheckoutDraftRepo,
		Policy:          c.AvailabilityPolicy,
		Delivery:        c.DeliveryService,
		Carts:           c.CartService,
		Payments:        service.NewStripeGateway(cfg.Stripe),
		Notifier:        c.NotificationService,
		Captcha:         c.CaptchaService,
		Shop:            cfg.Shop,
		Reservation:     cfg.Reservation,
		Currency:        cfg.Stripe.Currency,
	})
	c.ReviewService = service.NewReviewService(c.Google, cfg.Google, cfg.Shop)
	c.ContactService = service.NewContactService(c.ContactRepo, c.CaptchaService, c.EmailService, cfg.Shop)
}
