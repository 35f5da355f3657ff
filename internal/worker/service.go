package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/logger"
	"github.com/chb-creations/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 确认邮件消费服务
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewService 创建消费服务，队列未启用时返回错误
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server: asynq.NewServer(opt, serverCfg),
		mux:    mux,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	return "worker"
}

// Start 开始消费并阻塞至 ctx 结束
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}
	logger.Infow("worker_consuming", "queue", queue.DefaultQueue)
	<-ctx.Done()
	return nil
}

// Stop 停止拉取新任务并等待进行中的任务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.server.Shutdown()
		close(done)
	}()
	select {
	case <-done:
		logger.Infow("worker_stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
