package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/clock"
	"github.com/fastygo/planner/pkg/dateutil"
	"github.com/fastygo/planner/repository"
)

const reminderMessageFormat = "Recordatorio: %s - %s"

// ReminderConfig controls the reminder poll.
type ReminderConfig struct {
	Interval time.Duration
	// Window bounds how late after its reminder time a task may still fire.
	// Zero keeps the reminder eligible until the end of the day.
	Window   time.Duration
	Location *time.Location
}

// ReminderScanner turns armed task reminders into in-app notifications, at most once per task and day.
type ReminderScanner struct {
	tasks         repository.TaskRepository
	notifications repository.NotificationRepository
	clock         clock.Clock
	logger        *zap.Logger
	cfg           ReminderConfig
	cron          *cron.Cron

	mu    sync.Mutex
	fired map[int64]dateutil.Date
}

func NewReminderScanner(
	tasks repository.TaskRepository,
	notifications repository.NotificationRepository,
	clk clock.Clock,
	logger *zap.Logger,
	cfg ReminderConfig,
) *ReminderScanner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Window < 0 {
		cfg.Window = 0
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &ReminderScanner{
		tasks:         tasks,
		notifications: notifications,
		clock:         clk,
		logger:        logger,
		cfg:           cfg,
		fired:         make(map[int64]dateutil.Date),
		cron:          newCron(logger),
	}

	scheduleEvery(s.cron, logger, "reminder scan", cfg.Interval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := s.Scan(ctx, s.clock.Now()); err != nil {
			s.logger.Error("reminder scan failed", zap.Error(err))
		}
	})

	return s
}

func (s *ReminderScanner) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("reminder scanner started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("window", s.cfg.Window))
}

func (s *ReminderScanner) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("reminder scanner stopped")
}

// Run scans until ctx is cancelled and stops the schedule before returning.
func (s *ReminderScanner) Run(ctx context.Context) {
	s.Start()
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
	defer cancel()
	s.Stop(stopCtx)
}

// Scan emits a notification for every reminder eligible at now and returns them.
func (s *ReminderScanner) Scan(ctx context.Context, now time.Time) ([]domain.Notification, error) {
	local := now.In(s.cfg.Location)
	today := dateutil.DateOf(local)

	tasks, err := s.tasks.ListReminders(ctx, today)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(today)

	var emitted []domain.Notification
	for _, task := range tasks {
		if !task.ReminderDue(today) || !s.eligible(task, today, local) {
			continue
		}
		if last, ok := s.fired[task.ID]; ok && last.Equal(today) {
			continue
		}

		n := domain.Notification{
			ID:        uuid.NewString(),
			OwnerID:   task.OwnerID,
			TaskID:    task.ID,
			Message:   fmt.Sprintf(reminderMessageFormat, task.Title, task.Subject),
			CreatedAt: now,
		}
		if err := s.notifications.Append(ctx, n); err != nil {
			s.logger.Error("failed to store reminder", zap.Int64("task_id", task.ID), zap.Error(err))
			continue
		}
		s.fired[task.ID] = today
		emitted = append(emitted, n)
		s.logger.Info("reminder fired", zap.Int64("task_id", task.ID), zap.String("owner_id", task.OwnerID))
	}
	return emitted, nil
}

func (s *ReminderScanner) eligible(task domain.Task, today dateutil.Date, local time.Time) bool {
	fireAt := time.Date(today.Year, today.Month, today.Day,
		task.ReminderTime.Hour, task.ReminderTime.Minute, 0, 0, s.cfg.Location)
	if local.Before(fireAt) {
		return false
	}
	return s.cfg.Window == 0 || local.Before(fireAt.Add(s.cfg.Window))
}

func (s *ReminderScanner) pruneLocked(today dateutil.Date) {
	for id, day := range s.fired {
		if !day.Equal(today) {
			delete(s.fired, id)
		}
	}
}
