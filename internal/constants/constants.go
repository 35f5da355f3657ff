package constants

// 预订状态常量
const (
	ReservationStatusDone               = "DONE"
	ReservationStatusCancelled          = "CANCELLED"
	ReservationStatusConfirmed          = "CONFIRMED"
	ReservationStatusConfirmedNoDeposit = "CONFIRMED_NO_DEPOSIT"
)

// 配送方式常量
const (
	DeliveryOptionPickup   = "pickup"
	DeliveryOptionDelivery = "delivery"
)

// 支付方式常量
const (
	PaymentMethodOnline = "online"
	PaymentMethodCash   = "cash"
	PaymentMethodNone   = "none"
)

// 支付草稿状态常量
const (
	CheckoutDraftStatusPending   = "pending"
	CheckoutDraftStatusCompleted = "completed"
	CheckoutDraftStatusFailed    = "failed"
)

// 支付会话状态常量（由 Stripe 状态映射）
const (
	PaymentStatusSuccess = "success"
	PaymentStatusPending = "pending"
	PaymentStatusFailed  = "failed"
	PaymentStatusExpired = "expired"
)

// 商品大类常量
const (
	CategoryLocations   = "locations"
	CategoryAccessoires = "accessoires"
)

// 邮件服务提供方常量
const (
	EmailProviderSMTP     = "smtp"
	EmailProviderSendGrid = "sendgrid"
)

// 验证码提供方与场景常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"

	CaptchaSceneContact     = "contact"
	CaptchaSceneReservation = "reservation"
)

// 队列与任务常量
const (
	QueueDefault = "default"

	TaskReservationConfirmationEmail = "reservation:confirmation_email"
)

// 购物车存储 key
const CartStorageKey = "chb-cart"

// 日期与时间格式
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
