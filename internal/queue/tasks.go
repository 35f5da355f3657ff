package queue

import (
	"encoding/json"
	"fmt"

	"github.com/chb-creations/internal/constants"

	"github.com/hibiken/asynq"
)

// TaskReservationConfirmationEmail 预订确认邮件任务
const TaskReservationConfirmationEmail = constants.TaskReservationConfirmationEmail

// ReservationConfirmationEmailPayload 预订确认邮件任务载荷
type ReservationConfirmationEmailPayload struct {
	ReservationID uint `json:"reservation_id"`
}

// NewReservationConfirmationEmailTask 创建预订确认邮件任务
func NewReservationConfirmationEmailTask(payload ReservationConfirmationEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReservationConfirmationEmail, body), nil
}

// ParseReservationConfirmationEmailPayload 解析任务载荷
func ParseReservationConfirmationEmailPayload(task *asynq.Task) (ReservationConfirmationEmailPayload, error) {
	var payload ReservationConfirmationEmailPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if payload.ReservationID == 0 {
		return payload, fmt.Errorf("reservation_id is required")
	}
	return payload, nil
}
