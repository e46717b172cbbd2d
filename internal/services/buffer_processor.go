package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/infrastructure/buffer"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// MaxAge drops writes that have waited longer than this. Zero keeps them.
	MaxAge time.Duration
}

// BufferProcessor replays task and profile writes that failed against Postgres.
type BufferProcessor struct {
	store    *buffer.Store
	monitor  ConnectionHealth
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	userRepo repository.UserRepository,
	taskRepo repository.TaskRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:    store,
		monitor:  monitor,
		userRepo: userRepo,
		taskRepo: taskRepo,
		logger:   logger,
		cfg:      cfg,
		cron:     newCron(logger),
	}

	scheduleEvery(bp.cron, logger, "buffer drain", cfg.Interval, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	})

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started")
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain processes buffered items synchronously.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	if bp.cfg.MaxAge > 0 {
		if removed, err := bp.store.Cleanup(time.Now().Add(-bp.cfg.MaxAge)); err != nil {
			bp.logger.Warn("failed to expire buffer items", zap.Error(err))
		} else if removed > 0 {
			bp.logger.Warn("expired buffered writes", zap.Int("count", removed))
		}
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	replayed := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := bp.processItem(ctx, item); err != nil {
			bp.settleFailure(item, err)
			continue
		}
		if err := bp.store.Remove(item); err != nil {
			bp.logger.Warn("failed to purge processed buffer item", zap.String("item_id", item.ID), zap.Error(err))
		}
		replayed++
	}
	if replayed > 0 {
		bp.logger.Info("buffered writes replayed", zap.Int("count", replayed), zap.Int("batch", len(items)))
	}
	return nil
}

// settleFailure retries the item later, or drops it once it has used up its retries.
func (bp *BufferProcessor) settleFailure(item buffer.Item, cause error) {
	item.Retries++
	fields := []zap.Field{
		zap.String("item_id", item.ID),
		zap.String("entity", item.Entity),
		zap.String("entity_id", item.EntityID),
		zap.String("operation", item.Operation),
		zap.Int("retries", item.Retries),
		zap.Error(cause),
	}
	if item.Retries >= bp.cfg.MaxRetries {
		bp.logger.Warn("dropping buffered write after max retries", fields...)
		if err := bp.store.Remove(item); err != nil {
			bp.logger.Warn("failed to drop buffer item", zap.String("item_id", item.ID), zap.Error(err))
		}
		return
	}
	bp.logger.Error("failed to replay buffered write", fields...)
	if err := bp.store.Retry(item); err != nil {
		bp.logger.Error("failed to requeue buffer item", zap.String("item_id", item.ID), zap.Error(err))
	}
}

// BufferOperation attempts to run the operation immediately and falls back to persisting it.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}

	if bp.monitor == nil || bp.monitor.IsOnline() {
		err := bp.processItem(ctx, item)
		if err == nil {
			return nil
		}
		bp.logger.Warn("immediate processing failed, buffering", zap.String("entity", item.Entity), zap.Error(err))
	}
	return bp.store.Enqueue(item)
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

// PendingFor returns how many buffered items belong to ownerID.
func (bp *BufferProcessor) PendingFor(ownerID string) (int, error) {
	if bp == nil || bp.store == nil {
		return 0, nil
	}
	return bp.store.PendingFor(ownerID)
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Entity {
	case buffer.EntityProfile:
		var user domain.User
		if err := json.Unmarshal(item.Data, &user); err != nil {
			return err
		}
		if user.ID == "" {
			user.ID = item.OwnerID
		}
		return bp.userRepo.Upsert(ctx, &user)

	case buffer.EntityTask:
		var task domain.Task
		if err := json.Unmarshal(item.Data, &task); err != nil {
			return err
		}
		task.OwnerID = item.OwnerID
		return bp.replayTask(ctx, item.Operation, &task)
	default:
		return fmt.Errorf("unsupported entity %s", item.Entity)
	}
}

// replayTask is idempotent: a create that already landed becomes an update and
// a delete of a missing row counts as done.
func (bp *BufferProcessor) replayTask(ctx context.Context, operation string, task *domain.Task) error {
	switch operation {
	case usecase.OperationCreate:
		_, err := bp.taskRepo.Create(ctx, task)
		if errors.Is(err, domain.ErrTaskExists) {
			return bp.taskRepo.Update(ctx, task)
		}
		return err
	case usecase.OperationUpdate:
		return bp.taskRepo.Update(ctx, task)
	case usecase.OperationDelete:
		err := bp.taskRepo.Delete(ctx, task.ID)
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unsupported operation %s", operation)
	}
}
