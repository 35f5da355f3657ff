package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/logger"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/repository"
)

// ContactInput 联系表单
type ContactInput struct {
	Name     string               `json:"name"`
	Email    string               `json:"email"`
	Phone    string               `json:"phone"`
	Subject  string               `json:"subject"`
	Message  string               `json:"message"`
	Captcha  CaptchaVerifyPayload `json:"captcha_payload"`
	ClientIP string               `json:"-"`
}

// ContactService 联系表单服务
type ContactService struct {
	repo    repository.ContactRepository
	captcha *CaptchaService
	email   *EmailService
	shop    config.ShopConfig
	spawn   func(func())
}

// NewContactService 创建联系表单服务
func NewContactService(repo repository.ContactRepository, captcha *CaptchaService, email *EmailService, shop config.ShopConfig) *ContactService {
	return &ContactService{
		repo:    repo,
		captcha: captcha,
		email:   email,
		shop:    shop,
		spawn:   func(fn func()) { go fn() },
	}
}

// Submit 校验并保存留言，邮件启用时转发到店铺邮箱
func (s *ContactService) Submit(ctx context.Context, input ContactInput) (*models.ContactMessage, error) {
	message := &models.ContactMessage{
		Name:    strings.TrimSpace(input.Name),
		Email:   strings.TrimSpace(input.Email),
		Phone:   strings.TrimSpace(input.Phone),
		Subject: strings.TrimSpace(input.Subject),
		Message: strings.TrimSpace(input.Message),
	}
	if message.Name == "" || message.Email == "" || message.Subject == "" || message.Message == "" {
		return nil, ErrContactFieldsRequired
	}
	if !isValidEmail(message.Email) {
		return nil, ErrInvalidEmail
	}
	if s.captcha != nil {
		if err := s.captcha.Verify(constants.CaptchaSceneContact, input.Captcha, input.ClientIP); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, err
	}
	logger.Infow("contact_message_received",
		"contact_id", message.ID,
		"email", message.Email,
		"subject", message.Subject,
		"has_phone", message.Phone != "",
	)
	s.forward(ctx, message)
	return message, nil
}

func (s *ContactService) forward(ctx context.Context, message *models.ContactMessage) {
	to := strings.TrimSpace(s.shop.ContactEmail)
	if !s.email.Enabled() || to == "" {
		return
	}
	phone := message.Phone
	if phone == "" {
		phone = "Non fourni"
	}
	msg := EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("Nouveau message de %s - %s", message.Name, message.Subject),
		Body: fmt.Sprintf("Nouveau message de contact\n\nNom : %s\nEmail : %s\nTéléphone : %s\nSujet : %s\n\n%s\n",
			message.Name, message.Email, phone, message.Subject, message.Message),
	}
	sendCtx := context.WithoutCancel(ctx)
	s.spawn(func() {
		if err := s.email.Send(sendCtx, msg); err != nil {
			logger.Warnw("contact_message_forward_failed", "contact_id", message.ID, "error", err)
		}
	})
}
