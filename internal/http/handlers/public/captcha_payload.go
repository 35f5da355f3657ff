package public

import handlershared "github.com/chb-creations/internal/http/handlers/shared"

// CaptchaPayloadRequest 验证码请求载荷
// 图片模式下提交 captcha_id + captcha_code；
// 场景未启用时允许空载荷，由 service 层根据配置判定是否必填
type CaptchaPayloadRequest = handlershared.CaptchaPayloadRequest
