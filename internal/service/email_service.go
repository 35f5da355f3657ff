package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/constants"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	defaultEmailFrom     = "noreply@chb-creations.fr"
	defaultEmailFromName = "CHB Créations"
	sendGridSendPath     = "/v3/mail/send"
)

// EmailAttachment 邮件附件
type EmailAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailMessage 单收件人纯文本邮件，可带一个附件
type EmailMessage struct {
	To         string
	ToName     string
	Subject    string
	Body       string
	Attachment *EmailAttachment
}

// EmailService 邮件发送服务
type EmailService struct {
	cfg config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg config.EmailConfig) *EmailService {
	if strings.TrimSpace(cfg.From) == "" {
		cfg.From = defaultEmailFrom
	}
	if strings.TrimSpace(cfg.FromName) == "" {
		cfg.FromName = defaultEmailFromName
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = constants.EmailProviderSMTP
	}
	return &EmailService{cfg: cfg}
}

// Enabled 是否启用邮件
func (s *EmailService) Enabled() bool {
	return s != nil && s.cfg.Enabled
}

// Send 按配置的通道发送邮件
func (s *EmailService) Send(ctx context.Context, msg EmailMessage) error {
	if !s.Enabled() {
		return ErrEmailServiceDisabled
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(msg.To)); err != nil {
		return ErrInvalidEmail
	}
	switch s.cfg.Provider {
	case constants.EmailProviderSendGrid:
		return s.sendWithSendGrid(ctx, msg)
	case constants.EmailProviderSMTP:
		return s.sendWithSMTP(msg)
	default:
		return ErrEmailServiceNotConfigured
	}
}

func (s *EmailService) sendWithSMTP(msg EmailMessage) error {
	smtpCfg := s.cfg.SMTP
	if smtpCfg.Host == "" || smtpCfg.Port == 0 {
		return ErrEmailServiceNotConfigured
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	raw, err := buildEmailMessage(from, msg)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", smtpCfg.Host, smtpCfg.Port)
	var auth smtp.Auth
	if smtpCfg.Username != "" || smtpCfg.Password != "" {
		auth = smtp.PlainAuth("", smtpCfg.Username, smtpCfg.Password, smtpCfg.Host)
	}

	to := []string{strings.TrimSpace(msg.To)}
	if smtpCfg.UseSSL {
		return normalizeEmailSendError(sendMailWithSSL(addr, auth, smtpCfg.Host, s.cfg.From, to, raw))
	}
	if smtpCfg.UseTLS {
		return normalizeEmailSendError(sendMailWithStartTLS(addr, auth, smtpCfg.Host, s.cfg.From, to, raw))
	}
	return normalizeEmailSendError(sendMailPlain(addr, auth, s.cfg.From, to, raw))
}

func (s *EmailService) sendWithSendGrid(ctx context.Context, msg EmailMessage) error {
	apiKey := strings.TrimSpace(s.cfg.SendGrid.APIKey)
	if apiKey == "" {
		return ErrEmailServiceNotConfigured
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgmail.NewEmail(s.cfg.FromName, s.cfg.From))
	m.Subject = msg.Subject
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(msg.ToName, strings.TrimSpace(msg.To)))
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Body))
	if msg.Attachment != nil {
		a := sgmail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(msg.Attachment.Data))
		a.SetType(attachmentContentType(msg.Attachment))
		a.SetFilename(msg.Attachment.Filename)
		a.SetDisposition("attachment")
		m.AddAttachment(a)
	}

	client := sendgrid.NewSendClient(apiKey)
	if baseURL := strings.TrimRight(strings.TrimSpace(s.cfg.SendGrid.BaseURL), "/"); baseURL != "" {
		client.Request.BaseURL = baseURL + sendGridSendPath
	}
	resp, err := client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
	}
	if resp.StatusCode >= 300 {
		if resp.StatusCode == 400 && isEmailRecipientRejected(fmt.Errorf("%s", resp.Body)) {
			return ErrEmailRecipientRejected
		}
		return fmt.Errorf("%w: sendgrid status %d", ErrEmailSendFailed, resp.StatusCode)
	}
	return nil
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

// buildEmailMessage 构建 MIME 邮件；有附件时使用 multipart/mixed
func buildEmailMessage(from string, msg EmailMessage) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", strings.TrimSpace(msg.To)))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if msg.Attachment == nil {
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
		buf.WriteString("\r\n")
		if err := writeQuotedPrintable(&buf, msg.Body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	writer := multipart.NewWriter(&buf)
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", writer.Boundary()))
	buf.WriteString("\r\n")

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=UTF-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	if err := writeQuotedPrintable(textPart, msg.Body); err != nil {
		return nil, err
	}

	filename := mime.QEncoding.Encode("UTF-8", msg.Attachment.Filename)
	attachmentPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {fmt.Sprintf("%s; name=%q", attachmentContentType(msg.Attachment), filename)},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", filename)},
	})
	if err != nil {
		return nil, err
	}
	if err := writeBase64Lines(attachmentPart, msg.Attachment.Data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeQuotedPrintable(w interface{ Write([]byte) (int, error) }, body string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

// writeBase64Lines 按 76 列换行写入 base64
func writeBase64Lines(w interface{ Write([]byte) (int, error) }, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	const lineLen = 76
	for len(encoded) > 0 {
		n := lineLen
		if len(encoded) < n {
			n = len(encoded)
		}
		if _, err := w.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}

func attachmentContentType(a *EmailAttachment) string {
	if ct := strings.TrimSpace(a.ContentType); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}
	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := authenticate(client, auth); err != nil {
		return err
	}
	return sendSMTPData(client, from, to, msg)
}

func authenticate(client *smtp.Client, auth smtp.Auth) error {
	if auth == nil {
		return nil
	}
	if ok, _ := client.Extension("AUTH"); ok {
		return client.Auth(auth)
	}
	return nil
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return fmt.Errorf("%w: %v", ErrEmailSendFailed, err)
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	keywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
		"does not contain a valid address",
	}
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	return false
}
