package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/chb-creations/internal/cache"
	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/logger"
	"github.com/chb-creations/internal/models"
	"github.com/chb-creations/internal/provider"
	"github.com/chb-creations/internal/router"
	"github.com/chb-creations/internal/scheduler"
	"github.com/chb-creations/internal/service"
	"github.com/chb-creations/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !ValidMode(mode) {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	// 确认邮件消费者
	if mode == ModeAll || mode == ModeWorker {
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else if mode == ModeWorker {
			return nil, errors.New("worker mode requires queue.enabled")
		} else {
			logger.Warnw("worker_skipped", "reason", "queue disabled, confirmation emails are sent inline")
		}
	}

	// 定时任务
	if mode == ModeAll || mode == ModeScheduler {
		if cfg.Scheduler.Enabled {
			schedulerService, err := scheduler.NewService(cfg.Scheduler, cfg.Shop.Location(), container.ReservationService, reviewRefresher(container.ReviewService))
			if err != nil {
				return nil, err
			}
			services = append(services, schedulerService)
		} else if mode == ModeScheduler {
			return nil, errors.New("scheduler mode requires scheduler.enabled")
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.OnShutdown(models.CloseDB)
	runner.OnShutdown(cache.Close)
	runner.OnShutdown(container.QueueClient.Close)
	return runner, nil
}

// reviewRefresher 未配置 Google 评价时跳过刷新
func reviewRefresher(reviews *service.ReviewService) scheduler.ReviewRefresher {
	if reviews == nil {
		return nil
	}
	return scheduler.ReviewRefresherFunc(func(ctx context.Context) error {
		_, err := reviews.Refresh(ctx)
		if errors.Is(err, service.ErrReviewsNotConfigured) {
			return nil
		}
		return err
	})
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
