package service

import (
	"strings"
	"time"

	"github.com/chb-creations/internal/cache"
	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/constants"

	"github.com/mojocn/base64Captcha"
)

// 去掉易混淆的 0/O、1/l/I
const captchaCharset = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

var _ base64Captcha.Store = (*cache.CaptchaStore)(nil)

// CaptchaVerifyPayload 验证码校验请求载荷
type CaptchaVerifyPayload struct {
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// CaptchaImageChallenge 图片验证码挑战
type CaptchaImageChallenge struct {
	CaptchaID   string `json:"captcha_id"`
	ImageBase64 string `json:"image_base64"`
}

// CaptchaPublicConfig 下发给前端的验证码开关
type CaptchaPublicConfig struct {
	Provider string          `json:"provider"`
	Scenes   map[string]bool `json:"scenes"`
}

// CaptchaService 联系表单与预订提交的图片验证码
type CaptchaService struct {
	cfg     config.CaptchaConfig
	store   base64Captcha.Store
	captcha *base64Captcha.Captcha
}

// NewCaptchaService 创建验证码服务，非法配置回退为关闭
func NewCaptchaService(cfg config.CaptchaConfig) *CaptchaService {
	cfg = normalizeCaptchaConfig(cfg)
	s := &CaptchaService{cfg: cfg}
	if cfg.Provider != constants.CaptchaProviderImage {
		return s
	}
	img := cfg.Image
	s.store = cache.NewCaptchaStore(time.Duration(img.ExpireSeconds) * time.Second)
	driver := base64Captcha.NewDriverString(
		img.Height, img.Width, img.NoiseCount, img.ShowLine, img.Length,
		captchaCharset, nil, base64Captcha.DefaultEmbeddedFonts, nil,
	)
	s.captcha = base64Captcha.NewCaptcha(driver, s.store)
	return s
}

func normalizeCaptchaConfig(cfg config.CaptchaConfig) config.CaptchaConfig {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider != constants.CaptchaProviderImage {
		cfg.Provider = constants.CaptchaProviderNone
	}
	img := &cfg.Image
	img.Length = clampOr(img.Length, 4, 8, 5)
	img.Width = clampOr(img.Width, 100, 600, 240)
	img.Height = clampOr(img.Height, 40, 200, 80)
	img.NoiseCount = clampOr(img.NoiseCount, 0, 20, 2)
	img.ShowLine = clampOr(img.ShowLine, 0, 20, 2)
	img.ExpireSeconds = clampOr(img.ExpireSeconds, 30, 3600, 300)
	return cfg
}

func clampOr(value, min, max, fallback int) int {
	if value < min || value > max {
		return fallback
	}
	return value
}

// Enabled 指定场景是否要求验证码
func (s *CaptchaService) Enabled(scene string) bool {
	if s == nil || s.cfg.Provider == constants.CaptchaProviderNone {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scene)) {
	case constants.CaptchaSceneContact:
		return s.cfg.Scenes.Contact
	case constants.CaptchaSceneReservation:
		return s.cfg.Scenes.Reservation
	}
	return false
}

// GetPublicSetting 前端据此决定是否渲染验证码
func (s *CaptchaService) GetPublicSetting() CaptchaPublicConfig {
	provider := constants.CaptchaProviderNone
	if s != nil {
		provider = s.cfg.Provider
	}
	return CaptchaPublicConfig{
		Provider: provider,
		Scenes: map[string]bool{
			constants.CaptchaSceneContact:     s.Enabled(constants.CaptchaSceneContact),
			constants.CaptchaSceneReservation: s.Enabled(constants.CaptchaSceneReservation),
		},
	}
}

// GenerateImageChallenge 生成图片验证码
func (s *CaptchaService) GenerateImageChallenge() (*CaptchaImageChallenge, error) {
	if s == nil || s.captcha == nil {
		return nil, ErrCaptchaConfigInvalid
	}
	id, b64s, _, err := s.captcha.Generate()
	if err != nil {
		return nil, err
	}
	return &CaptchaImageChallenge{CaptchaID: id, ImageBase64: b64s}, nil
}

// Verify 场景未开启时直接通过；答案一次性有效
func (s *CaptchaService) Verify(scene string, payload CaptchaVerifyPayload, clientIP string) error {
	if !s.Enabled(scene) {
		return nil
	}
	if s.store == nil {
		return ErrCaptchaConfigInvalid
	}
	id := strings.TrimSpace(payload.CaptchaID)
	code := strings.TrimSpace(payload.CaptchaCode)
	if id == "" || code == "" {
		return ErrCaptchaRequired
	}
	if !s.store.Verify(id, code, true) {
		return ErrCaptchaInvalid
	}
	return nil
}
