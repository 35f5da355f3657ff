package public

import (
	"github.com/chb-creations/internal/http/response"
	"github.com/chb-creations/internal/service"

	"github.com/gin-gonic/gin"
)

// ContactRequest 联系表单请求
type ContactRequest struct {
	Name           string                `json:"name"`
	Email          string                `json:"email"`
	Phone          string                `json:"phone"`
	Subject        string                `json:"subject"`
	Message        string                `json:"message"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// SubmitContact 提交联系表单
func (h *Handler) SubmitContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	message, err := h.ContactService.Submit(c.Request.Context(), service.ContactInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Subject:  req.Subject,
		Message:  req.Message,
		Captcha:  req.CaptchaPayload.ToServicePayload(),
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		respondContactError(c, err)
		return
	}
	response.Success(c, gin.H{"id": message.ID})
}
