package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

const defaultStopTimeout = 10 * time.Second

// Service 可由 Runner 管理的长期运行服务
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Closer 服务全部停止后释放的资源（数据库、缓存连接）
type Closer func() error

// Runner 服务运行器
type Runner struct {
	services []Service
	closers  []Closer
}

// NewRunner 创建服务运行器，忽略 nil 服务
func NewRunner(services ...Service) *Runner {
	r := &Runner{}
	for _, svc := range services {
		if svc != nil {
			r.services = append(r.services, svc)
		}
	}
	return r
}

// OnShutdown 注册退出时按逆序执行的清理函数
func (r *Runner) OnShutdown(closer Closer) {
	if r == nil || closer == nil {
		return
	}
	r.closers = append(r.closers, closer)
}

// Services 已注册服务名称
func (r *Runner) Services() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.services))
	for _, svc := range r.services {
		names = append(names, svc.Name())
	}
	return names
}

// RunWithOptions 运行服务，收到系统信号后优雅退出
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

type serviceExit struct {
	name string
	err  error
}

// Run 并发启动全部服务；任一服务退出或 ctx 结束后停止其余服务
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exits := make(chan serviceExit, len(r.services))
	for _, svc := range r.services {
		go func(svc Service) {
			log.Infow("service_start", "service", svc.Name())
			err := svc.Start(ctx)
			log.Infow("service_exit", "service", svc.Name(), "error", err)
			exits <- serviceExit{name: svc.Name(), err: err}
		}(svc)
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Infow("shutdown_requested", "reason", context.Cause(ctx))
	case exit := <-exits:
		if exit.err != nil {
			runErr = fmt.Errorf("service %s: %w", exit.name, exit.err)
		}
	}
	cancel()

	if stopErr := r.stopAll(stopTimeout, log); stopErr != nil {
		runErr = errors.Join(runErr, stopErr)
	}
	return runErr
}

func (r *Runner) stopAll(timeout time.Duration, log *zap.SugaredLogger) error {
	if timeout <= 0 {
		timeout = defaultStopTimeout
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), timeout)
	defer stopCancel()

	var errs []error
	for _, svc := range r.services {
		if err := svc.Stop(stopCtx); err != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
			errs = append(errs, fmt.Errorf("stop %s: %w", svc.Name(), err))
		}
	}
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			log.Warnw("resource_close_failed", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
