package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/constants"
	"github.com/chb-creations/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault

	confirmationMaxRetry  = 5
	confirmationTimeout   = time.Minute
	confirmationRetention = 24 * time.Hour
	serverShutdownTimeout = 8 * time.Second
)

// Client 投递异步任务；未启用时所有投递均为空操作
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{queue: DefaultQueue}, nil
	}
	return &Client{
		client: asynq.NewClient(redisOpt(cfg)),
		queue:  DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueReservationConfirmationEmail 投递预订确认邮件；同一预订在保留期内只投递一次
func (c *Client) EnqueueReservationConfirmationEmail(ctx context.Context, payload ReservationConfirmationEmailPayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewReservationConfirmationEmailTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID(ConfirmationTaskID(payload.ReservationID)),
		asynq.MaxRetry(confirmationMaxRetry),
		asynq.Timeout(confirmationTimeout),
		asynq.Retention(confirmationRetention),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// ConfirmationTaskID 预订确认邮件的任务 ID
func ConfirmationTaskID(reservationID uint) string {
	return fmt.Sprintf("reservation-confirmation-%d", reservationID)
}

// BuildServerConfig 生成消费端配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := 5
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return redisOpt(cfg), asynq.Config{
		Concurrency:     concurrency,
		Queues:          queues,
		ShutdownTimeout: serverShutdownTimeout,
		Logger:          logger.S(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logger.Warnw("queue_task_failed", "type", task.Type(), "retry", retried, "max_retry", maxRetry, "error", err)
		}),
	}
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host, port := "127.0.0.1", 6379
	opt := asynq.RedisClientOpt{}
	if cfg != nil {
		if h := strings.TrimSpace(cfg.Host); h != "" {
			host = h
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		opt.Password = cfg.Password
		opt.DB = cfg.DB
	}
	opt.Addr = fmt.Sprintf("%s:%d", host, port)
	return opt
}
