package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/queue"
	"github.com/chb-creations/internal/repository"
)

const (
	confirmationSubject     = "Confirmation de réservation #%d"
	confirmationPaidSuffix  = " - Paiement confirmé"
	confirmationFilename    = "reservation-%d.pdf"
	inlineConfirmationLimit = 30 * time.Second
)

// ReservationNotifier 预订创建后的确认通知
type ReservationNotifier interface {
	NotifyReservationConfirmed(ctx context.Context, reservationID uint)
}

// NotificationService 预订确认邮件：启用队列时入队，否则后台直接发送
type NotificationService struct {
	reservationRepo repository.ReservationRepository
	email           *EmailService
	queueClient     *queue.Client
	shop            config.ShopConfig
	spawn           func(func())
}

// NewNotificationService 创建通知服务
func NewNotificationService(reservationRepo repository.ReservationRepository, email *EmailService, queueClient *queue.Client, shop config.ShopConfig) *NotificationService {
	return &NotificationService{
		reservationRepo: reservationRepo,
		email:           email,
		queueClient:     queueClient,
		shop:            shop,
		spawn:           func(fn func()) { go fn() },
	}
}

// NotifyReservationConfirmed 投递确认邮件；任何失败仅记录日志
func (s *NotificationService) NotifyReservationConfirmed(ctx context.Context, reservationID uint) {
	if s == nil || reservationID == 0 {
		return
	}
	log := reservationLogger("reservation_id", reservationID)
	if s.queueClient.Enabled() {
		err := s.queueClient.EnqueueReservationConfirmationEmail(ctx, queue.ReservationConfirmationEmailPayload{
			ReservationID: reservationID,
		})
		if err == nil {
			log.Debugw("reservation_email_enqueued")
			return
		}
		log.Warnw("reservation_email_enqueue_failed", "error", err)
	}
	if !s.email.Enabled() {
		log.Debugw("reservation_email_skipped_disabled")
		return
	}

	sendCtx := context.WithoutCancel(ctx)
	s.spawn(func() {
		ctx, cancel := context.WithTimeout(sendCtx, inlineConfirmationLimit)
		defer cancel()
		if err := s.SendReservationConfirmation(ctx, reservationID); err != nil {
			log.Warnw("reservation_email_send_failed", "error", err)
		}
	})
}

// SendReservationConfirmation 组装并发送确认邮件（正文 + PDF 附件）
func (s *NotificationService) SendReservationConfirmation(ctx context.Context, reservationID uint) error {
	if !s.email.Enabled() {
		return ErrEmailServiceDisabled
	}
	reservation, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if reservation == nil {
		return ErrReservationNotFound
	}

	msg := BuildReservationConfirmationEmail(reservation, s.shop)
	document, err := RenderReservationPDF(reservation, s.shop)
	if err != nil {
		reservationLogger("reservation_id", reservationID).Errorw("reservation_pdf_render_failed", "error", err)
	} else {
		msg.Attachment = &EmailAttachment{
			Filename:    fmt.Sprintf(confirmationFilename, reservation.ID),
			ContentType: "application/pdf",
			Data:        document,
		}
	}

	if err := s.email.Send(ctx, msg); err != nil {
		return err
	}
	reservationLogger("reservation_id", reservationID).Infow("reservation_email_sent", "attachment", msg.Attachment != nil)
	return nil
}

// BuildReservationConfirmationEmail 生成确认邮件主题与正文
func BuildReservationConfirmationEmail(reservation *models.Reservation, shop config.ShopConfig) EmailMessage {
	customer := reservation.CustomerInfos
	paidOnline := reservation.PaymentMethod == constants.PaymentMethodOnline &&
		reservation.ReservationStatus == constants.ReservationStatusConfirmed

	subject := fmt.Sprintf(confirmationSubject, reservation.ID)
	if paidOnline {
		subject += confirmationPaidSuffix
	}

	var b strings.Builder
	b.WriteString("Réservation confirmée !\n\n")
	fmt.Fprintf(&b, "Bonjour %s %s,\n\n", customer.FirstName, customer.LastName)
	switch {
	case paidOnline:
		fmt.Fprintf(&b, "Votre réservation #%d a été confirmée et votre paiement a été reçu avec succès.\n\n", reservation.ID)
		fmt.Fprintf(&b, "Montant de l'acompte payé : %s\n", reservation.Deposit.Format())
	case reservation.Deposit.IsPositive():
		fmt.Fprintf(&b, "Votre réservation #%d a bien été enregistrée.\n\n", reservation.ID)
		fmt.Fprintf(&b, "Acompte à régler : %s\n", reservation.Deposit.Format())
	default:
		fmt.Fprintf(&b, "Votre réservation #%d a bien été enregistrée.\n\n", reservation.ID)
	}
	fmt.Fprintf(&b, "Solde restant : %s\n", reservation.Balance().Format())
	if reservation.Caution.IsPositive() {
		fmt.Fprintf(&b, "Caution : %s\n", reservation.Caution.Format())
	}
	fmt.Fprintf(&b, "\nLe solde sera à régler lors de la %s.\n", handoverLabel(reservation))
	b.WriteString("Vous trouverez tous les détails de votre réservation en pièce jointe.\n\n")
	b.WriteString("À très bientôt !\n\n")
	fmt.Fprintf(&b, "L'équipe %s\n", shop.DisplayName())

	return EmailMessage{
		To:      strings.TrimSpace(customer.Email),
		ToName:  customer.FullName(),
		Subject: subject,
		Body:    b.String(),
	}
}

// IsEmailSkippable 邮件未启用或预订已不存在时任务无需重试
func IsEmailSkippable(err error) bool {
	return errors.Is(err, ErrEmailServiceDisabled) ||
		errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrEmailRecipientRejected) ||
		errors.Is(err, ErrInvalidEmail)
}
