package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chb-creations/internal/config"
	"github.com/chb-creations/internal/logger"

	"github.com/robfig/cron/v3"
)

const (
	JobCompleteReservations = "complete_finished_reservations"
	JobRefreshReviews       = "refresh_reviews_cache"

	jobTimeout = 2 * time.Minute
)

// ReservationCompleter 结束已过期的预订
type ReservationCompleter interface {
	CompleteFinished(ctx context.Context) (int64, error)
}

// ReviewRefresher 预热评价缓存
type ReviewRefresher interface {
	RefreshReviews(ctx context.Context) error
}

// ReviewRefresherFunc 适配函数为 ReviewRefresher
type ReviewRefresherFunc func(ctx context.Context) error

// RefreshReviews 调用自身
func (f ReviewRefresherFunc) RefreshReviews(ctx context.Context) error {
	return f(ctx)
}

// Service 定时任务服务
type Service struct {
	name     string
	cron     *cron.Cron
	location *time.Location
	entries  map[string]cron.EntryID
}

// NewService 创建定时任务服务，按配置注册任务
func NewService(cfg config.SchedulerConfig, location *time.Location, completer ReservationCompleter, refresher ReviewRefresher) (*Service, error) {
	if !cfg.Enabled {
		return nil, errors.New("scheduler disabled")
	}
	if location == nil {
		location = time.UTC
	}
	s := &Service{
		name:     "scheduler",
		cron:     cron.New(cron.WithLocation(location), cron.WithSeconds()),
		location: location,
		entries:  make(map[string]cron.EntryID),
	}

	if completer != nil {
		if err := s.register(JobCompleteReservations, cfg.CompleteReservations, func(ctx context.Context) error {
			_, err := completer.CompleteFinished(ctx)
			return err
		}); err != nil {
			return nil, err
		}
	}
	if refresher != nil {
		if err := s.register(JobRefreshReviews, cfg.RefreshReviews, refresher.RefreshReviews); err != nil {
			return nil, err
		}
	}
	if len(s.entries) == 0 {
		return nil, errors.New("no scheduled jobs registered")
	}
	return s, nil
}

func (s *Service) register(name, spec string, job func(ctx context.Context) error) error {
	if spec == "" {
		logger.Warnw("scheduler_job_skipped", "job", name, "reason", "empty spec")
		return nil
	}
	id, err := s.cron.AddFunc(spec, func() { runJob(name, job) })
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	s.entries[name] = id
	return nil
}

func runJob(name string, job func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("scheduler_job_panic", "job", name, "panic", r)
		}
	}()
	if err := job(ctx); err != nil {
		logger.Warnw("scheduler_job_failed", "job", name, "error", err, "elapsed", time.Since(started))
		return
	}
	logger.Debugw("scheduler_job_done", "job", name, "elapsed", time.Since(started))
}

// Jobs 已注册的任务名称
func (s *Service) Jobs() []string {
	names := make([]string, 0, len(s.entries))
	for _, name := range []string{JobCompleteReservations, JobRefreshReviews} {
		if _, ok := s.entries[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Next 指定任务的下一次执行时间
func (s *Service) Next(name string) (time.Time, bool) {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return time.Time{}, false
	}
	return entry.Schedule.Next(time.Now().In(s.location)), true
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "scheduler"
	}
	return s.name
}

// Start 启动调度并阻塞至 ctx 结束
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.cron == nil {
		return errors.New("scheduler not initialized")
	}
	logger.Infow("scheduler_start", "jobs", s.Jobs(), "location", s.location.String())
	s.cron.Start()
	<-ctx.Done()
	return nil
}

// Stop 停止调度，等待运行中的任务结束
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.cron == nil {
		return nil
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Infow("scheduler_stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
