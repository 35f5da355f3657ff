package public

import (
	"github.com/chb-creations/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetCaptchaConfig 验证码开关，前端据此渲染表单
func (h *Handler) GetCaptchaConfig(c *gin.Context) {
	response.Success(c, h.CaptchaService.GetPublicSetting())
}

// GetImageCaptcha 生成一次性图片验证码
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		respondWithMappedError(c, err, captchaErrorRules, response.CodeInternal, "error.captcha_generate_failed")
		return
	}
	c.Header("Cache-Control", "no-store")
	response.Success(c, challenge)
}
