package worker

import (
	"context"

	"github.com/chb-creations/internal/logger"
	"github.com/chb-creations/internal/provider"
	"github.com/chb-creations/internal/queue"
	"github.com/chb-creations/internal/service"

	"github.com/hibiken/asynq"
)

// ConfirmationSender 发送预订确认邮件
type ConfirmationSender interface {
	SendReservationConfirmation(ctx context.Context, reservationID uint) error
}

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	confirmations ConfirmationSender
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	consumer := &Consumer{Container: c}
	if c != nil && c.NotificationService != nil {
		consumer.confirmations = c.NotificationService
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskReservationConfirmationEmail, c.handleReservationConfirmationEmail)
}

// handleReservationConfirmationEmail 发送确认邮件；不可重试的失败直接丢弃，其余交给 asynq 重试
func (c *Consumer) handleReservationConfirmationEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_reservation_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseReservationConfirmationEmailPayload(task)
	if err != nil {
		logger.Warnw("worker_reservation_email_payload_invalid", "error", err)
		return nil
	}
	if c.confirmations == nil {
		logger.Warnw("worker_reservation_email_skip_sender_nil", "reservation_id", payload.ReservationID)
		return nil
	}
	if err := c.confirmations.SendReservationConfirmation(ctx, payload.ReservationID); err != nil {
		if service.IsEmailSkippable(err) {
			logger.Debugw("worker_reservation_email_skipped", "reservation_id", payload.ReservationID, "reason", err)
			return nil
		}
		logger.Warnw("worker_reservation_email_send_failed", "reservation_id", payload.ReservationID, "error", err)
		return err
	}
	return nil
}
