package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"taste_match/config"
	"taste_match/logger"
	"taste_match/models"
	"taste_match/repository"
	"taste_match/services"
)

// 验证小时和分钟是否有效
func validateHourMinute(cfg *config.Config, hour, minute int) (int, int) {
	defaultHour := cfg.Scheduler.DefaultHour
	defaultMinute := cfg.Scheduler.DefaultMinute

	if hour < 0 || hour > 23 {
		logger.Warn("无效的小时值", "hour", hour, "default", defaultHour)
		hour = defaultHour
	}
	if minute < 0 || minute > 59 {
		logger.Warn("无效的分钟值", "minute", minute, "default", defaultMinute)
		minute = defaultMinute
	}
	return hour, minute
}

// 计算下一个指定时间点
func getNextTimePoint(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if next.Before(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// 任务类型
type TaskType int

const (
	TaskPrewarm TaskType = iota
)

// 任务状态
type TaskStatus struct {
	LastRun     time.Time
	NextRun     time.Time
	IsRunning   bool
	Description string
}

// PrewarmReport 一次预热的统计
type PrewarmReport struct {
	Users       int
	Restaurants int
	Failed      int
}

// Scheduler 缓存预热调度器：定时为活跃用户批量计算餐厅分数
type Scheduler struct {
	cfg         *config.Config
	entities    repository.EntityStore
	scores      services.ScoreProvider
	concurrency int
	tasks       map[TaskType]*TaskStatus
	mutex       sync.Mutex
}

// 创建新的调度器
func NewScheduler(cfg *config.Config, entities repository.EntityStore, scores services.ScoreProvider) *Scheduler {
	concurrency := cfg.Cron.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Scheduler{
		cfg:         cfg,
		entities:    entities,
		scores:      scores,
		concurrency: concurrency,
		tasks:       make(map[TaskType]*TaskStatus),
	}
}

// Start 启动调度器；prewarm 未开启时返回 nil。ctx 取消后主循环退出
func Start(ctx context.Context, cfg *config.Config, entities repository.EntityStore, scores services.ScoreProvider) *Scheduler {
	if !cfg.Prewarm.Enabled {
		logger.Info("缓存预热未开启，调度器不启动")
		return nil
	}
	s := NewScheduler(cfg, entities, scores)

	// 初始化任务
	s.initTasks(time.Now())

	// 启动主循环
	go s.run(ctx)

	logger.Info("调度器已启动", "check_interval_sec", cfg.Scheduler.CheckIntervalSec)
	return s
}

func (s *Scheduler) nextRun(now time.Time) (time.Time, string) {
	if s.cfg.Debug.Enabled {
		interval := time.Duration(s.cfg.Debug.IntervalSec) * time.Second
		return now.Add(interval), fmt.Sprintf("缓存预热 (Debug模式: 每%d秒)", s.cfg.Debug.IntervalSec)
	}
	hour, minute := validateHourMinute(s.cfg, s.cfg.Cron.Hour, s.cfg.Cron.Minute)
	return getNextTimePoint(now, hour, minute), fmt.Sprintf("缓存预热 (%02d:%02d)", hour, minute)
}

// 初始化任务
func (s *Scheduler) initTasks(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	next, desc := s.nextRun(now)
	s.tasks[TaskPrewarm] = &TaskStatus{
		NextRun:     next,
		Description: desc,
	}
	logger.Info("定时任务初始化完成", "task", desc, "next_run", next.Format("2006-01-02 15:04:05"))
}

// Status 返回任务状态的副本
func (s *Scheduler) Status(task TaskType) (TaskStatus, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	status, ok := s.tasks[task]
	if !ok {
		return TaskStatus{}, false
	}
	return *status, true
}

// 主循环
func (s *Scheduler) run(ctx context.Context) {
	checkInterval := s.cfg.Scheduler.CheckIntervalSec
	if checkInterval <= 0 {
		checkInterval = 60 // 默认值
	}
	ticker := time.NewTicker(time.Duration(checkInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("调度器已停止")
			return
		case now := <-ticker.C:
			s.checkTasks(ctx, now)
		}
	}
}

// 检查任务
func (s *Scheduler) checkTasks(ctx context.Context, now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for taskType, status := range s.tasks {
		if status.IsRunning || status.NextRun.IsZero() {
			continue
		}
		if !now.Before(status.NextRun) {
			status.IsRunning = true
			go s.runTask(ctx, taskType, now)
		}
	}
}

// 运行任务
func (s *Scheduler) runTask(ctx context.Context, taskType TaskType, now time.Time) {
	defer func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		status := s.tasks[taskType]
		status.IsRunning = false
		status.LastRun = now
		status.NextRun, _ = s.nextRun(now)

		logger.Info("任务执行完成", "task", status.Description, "next_run", status.NextRun.Format("2006-01-02 15:04:05"))
	}()

	switch taskType {
	case TaskPrewarm:
		if _, err := s.Prewarm(ctx); err != nil {
			logger.Error("缓存预热失败", "error", err)
		}
	}
}

// Prewarm 为前 max_users 个用户计算前 max_restaurants 家餐厅的分数，结果通过正常缓存路径写入
func (s *Scheduler) Prewarm(ctx context.Context) (PrewarmReport, error) {
	var report PrewarmReport

	users, err := s.entities.ListIDs(ctx, models.EntityUser, s.cfg.Prewarm.MaxUsers)
	if err != nil {
		return report, err
	}
	restaurants, err := s.entities.ListIDs(ctx, models.EntityRestaurant, s.cfg.Prewarm.MaxRestaurants)
	if err != nil {
		return report, err
	}
	report.Users, report.Restaurants = len(users), len(restaurants)
	if len(users) == 0 || len(restaurants) == 0 {
		return report, nil
	}

	logger.Info("开始缓存预热", "users", len(users), "restaurants", len(restaurants), "concurrency", s.concurrency)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(len(users), s.concurrency))
	for _, uid := range users {
		g.Go(func() error {
			if _, err := s.scores.BatchScore(gctx, models.PairingUserRestaurant, uid, restaurants); err != nil {
				logger.Warn("用户预热失败", "user_id", uid, "error", err)
				mu.Lock()
				report.Failed++
				mu.Unlock()
			}
			// 只有取消才中止整个预热
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	logger.Info("缓存预热完成", "users", report.Users, "failed", report.Failed)
	return report, nil
}
