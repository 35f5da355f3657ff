package config

import (
	"fmt"
	"strings"

	"github.com/chb-creations/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Queue       QueueConfig       `mapstructure:"queue"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Security    SecurityConfig    `mapstructure:"security"`
	Shop        ShopConfig        `mapstructure:"shop"`
	Delivery    DeliveryConfig    `mapstructure:"delivery"`
	Reservation ReservationConfig `mapstructure:"reservation"`
	Cart        CartConfig        `mapstructure:"cart"`
	Stripe      StripeConfig      `mapstructure:"stripe"`
	Google      GoogleConfig      `mapstructure:"google"`
	Email       EmailConfig       `mapstructure:"email"`
	Captcha     CaptchaConfig     `mapstructure:"captcha"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Stdout     bool   `mapstructure:"stdout"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Stdout:     c.Stdout,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	ReservationRateLimit RateLimitConfig `mapstructure:"reservation_rate_limit"`
	ContactRateLimit     RateLimitConfig `mapstructure:"contact_rate_limit"`
	DeliveryRateLimit    RateLimitConfig `mapstructure:"delivery_rate_limit"`
}

// RateLimitConfig 固定窗口限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// ShopConfig 店铺信息
type ShopConfig struct {
	Name          string `mapstructure:"name"`
	City          string `mapstructure:"city"`
	Address       string `mapstructure:"address"`
	Timezone      string `mapstructure:"timezone"`
	ContactEmail  string `mapstructure:"contact_email"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// DeliveryConfig 配送费配置
type DeliveryConfig struct {
	CostPerKm float64 `mapstructure:"cost_per_km"`
}

// ReservationConfig 预订规则配置
type ReservationConfig struct {
	MaxRentalDays    int     `mapstructure:"max_rental_days"`
	CautionAmount    float64 `mapstructure:"caution_amount"`
	DefaultStartTime string  `mapstructure:"default_start_time"`
	DefaultEndTime   string  `mapstructure:"default_end_time"`
	CalendarDays     int     `mapstructure:"calendar_days"`
}

// CartConfig 购物车配置
type CartConfig struct {
	TTLHours int `mapstructure:"ttl_hours"`
}

// StripeConfig Stripe 支付配置
type StripeConfig struct {
	SecretKey               string   `mapstructure:"secret_key"`
	WebhookSecret           string   `mapstructure:"webhook_secret"`
	APIBaseURL              string   `mapstructure:"api_base_url"`
	Currency                string   `mapstructure:"currency"`
	WebhookToleranceSeconds int      `mapstructure:"webhook_tolerance_seconds"`
	PaymentMethodTypes      []string `mapstructure:"payment_method_types"`
}

// GoogleConfig Google Routes / Places 配置
type GoogleConfig struct {
	APIKey          string `mapstructure:"api_key"`
	PlaceID         string `mapstructure:"place_id"`
	RoutesBaseURL   string `mapstructure:"routes_base_url"`
	PlacesBaseURL   string `mapstructure:"places_base_url"`
	LanguageCode    string `mapstructure:"language_code"`
	RegionCode      string `mapstructure:"region_code"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	ReviewsCacheTTL int    `mapstructure:"reviews_cache_ttl_seconds"`
}

// EmailConfig 邮件服务配置
type EmailConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Provider string         `mapstructure:"provider"` // smtp / sendgrid
	From     string         `mapstructure:"from"`
	FromName string         `mapstructure:"from_name"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	SendGrid SendGridConfig `mapstructure:"sendgrid"`
}

// SMTPConfig SMTP 配置
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseTLS   bool   `mapstructure:"use_tls"`
	UseSSL   bool   `mapstructure:"use_ssl"`
}

// SendGridConfig SendGrid 配置
type SendGridConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// CaptchaConfig 验证码配置
type CaptchaConfig struct {
	Provider string             `mapstructure:"provider"` // none / image
	Scenes   CaptchaSceneConfig `mapstructure:"scenes"`
	Image    CaptchaImageConfig `mapstructure:"image"`
}

// CaptchaSceneConfig 验证码场景开关
type CaptchaSceneConfig struct {
	Contact     bool `mapstructure:"contact"`
	Reservation bool `mapstructure:"reservation"`
}

// CaptchaImageConfig 图片验证码配置
type CaptchaImageConfig struct {
	Length        int `mapstructure:"length"`
	Width         int `mapstructure:"width"`
	Height        int `mapstructure:"height"`
	NoiseCount    int `mapstructure:"noise_count"`
	ShowLine      int `mapstructure:"show_line"`
	ExpireSeconds int `mapstructure:"expire_seconds"`
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	CompleteReservations string `mapstructure:"complete_reservations"`
	RefreshReviews       string `mapstructure:"refresh_reviews"`
}

// Load 从 .env 与 config.yml 加载配置
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		logger.Infow("dotenv_loaded", "file", ".env")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")   // 从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // stripe.secret_key -> STRIPE_SECRET_KEY

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.level", "")
	viper.SetDefault("log.stdout", false)
	viper.SetDefault("log.dir", "logs")
	viper.SetDefault("log.filename", "chb-api.log")
	viper.SetDefault("log.max_size_mb", 50)
	viper.SetDefault("log.max_backups", 10)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/chb.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "chb")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 5)
	viper.SetDefault("queue.queues", map[string]int{
		"default": 10,
	})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Cache-Control",
		"X-Requested-With",
		"X-Cart-Token",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("security.reservation_rate_limit.window_seconds", 600)
	viper.SetDefault("security.reservation_rate_limit.max_requests", 10)
	viper.SetDefault("security.contact_rate_limit.window_seconds", 600)
	viper.SetDefault("security.contact_rate_limit.max_requests", 5)
	viper.SetDefault("security.delivery_rate_limit.window_seconds", 60)
	viper.SetDefault("security.delivery_rate_limit.max_requests", 20)
	viper.SetDefault("shop.name", "CHB Créations")
	viper.SetDefault("shop.city", "Marseille")
	viper.SetDefault("shop.address", "100 Boulevard de Saint-Loup, 13010 Marseille, France")
	viper.SetDefault("shop.timezone", "Europe/Paris")
	viper.SetDefault("shop.contact_email", "chaymaeb.creations@gmail.com")
	viper.SetDefault("shop.public_base_url", "http://localhost:3000")
	viper.SetDefault("delivery.cost_per_km", 1)
	viper.SetDefault("reservation.max_rental_days", 4)
	viper.SetDefault("reservation.caution_amount", 0)
	viper.SetDefault("reservation.default_start_time", "09:00")
	viper.SetDefault("reservation.default_end_time", "18:00")
	viper.SetDefault("reservation.calendar_days", 90)
	viper.SetDefault("cart.ttl_hours", 72)
	viper.SetDefault("stripe.secret_key", "")
	viper.SetDefault("stripe.webhook_secret", "")
	viper.SetDefault("stripe.api_base_url", "https://api.stripe.com")
	viper.SetDefault("stripe.currency", "eur")
	viper.SetDefault("stripe.webhook_tolerance_seconds", 300)
	viper.SetDefault("stripe.payment_method_types", []string{"card"})
	viper.SetDefault("google.api_key", "")
	viper.SetDefault("google.place_id", "")
	viper.SetDefault("google.routes_base_url", "https://routes.googleapis.com")
	viper.SetDefault("google.places_base_url", "https://places.googleapis.com")
	viper.SetDefault("google.language_code", "fr")
	viper.SetDefault("google.region_code", "FR")
	viper.SetDefault("google.timeout_seconds", 10)
	viper.SetDefault("google.reviews_cache_ttl_seconds", 3600)
	viper.SetDefault("email.enabled", false)
	viper.SetDefault("email.provider", "smtp")
	viper.SetDefault("email.from", "noreply@chb-creations.fr")
	viper.SetDefault("email.from_name", "CHB Créations")
	viper.SetDefault("email.smtp.host", "")
	viper.SetDefault("email.smtp.port", 587)
	viper.SetDefault("email.smtp.username", "")
	viper.SetDefault("email.smtp.password", "")
	viper.SetDefault("email.smtp.use_tls", true)
	viper.SetDefault("email.smtp.use_ssl", false)
	viper.SetDefault("email.sendgrid.api_key", "")
	viper.SetDefault("email.sendgrid.base_url", "https://api.sendgrid.com")
	viper.SetDefault("captcha.provider", "none")
	viper.SetDefault("captcha.scenes.contact", false)
	viper.SetDefault("captcha.scenes.reservation", false)
	viper.SetDefault("captcha.image.length", 5)
	viper.SetDefault("captcha.image.width", 240)
	viper.SetDefault("captcha.image.height", 80)
	viper.SetDefault("captcha.image.noise_count", 2)
	viper.SetDefault("captcha.image.show_line", 2)
	viper.SetDefault("captcha.image.expire_seconds", 300)
	viper.SetDefault("scheduler.enabled", true)
	viper.SetDefault("scheduler.complete_reservations", "0 30 3 * * *")
	viper.SetDefault("scheduler.refresh_reviews", "0 */50 * * * *")
}
