package task

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/validation"
	"github.com/fastygo/planner/pkg/clock"
	"github.com/fastygo/planner/pkg/dateutil"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/usecase"
)

// DefaultUpcomingDays is the dashboard's "due soon" horizon.
const DefaultUpcomingDays = 7

type UseCase struct {
	tasks     repository.TaskRepository
	buffer    usecase.OperationBuffer
	validator *validation.Validator
	clock     clock.Clock
	location  *time.Location
	ids       *repository.IDSequence
	logger    *zap.Logger
}

type Option func(*UseCase)

func WithClock(c clock.Clock) Option {
	return func(uc *UseCase) { uc.clock = c }
}

// WithLocation sets the timezone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(uc *UseCase) { uc.location = loc }
}

func WithValidator(v *validation.Validator) Option {
	return func(uc *UseCase) { uc.validator = v }
}

// WithIDSequence lets buffered creates receive their id before the repository sees them.
func WithIDSequence(ids *repository.IDSequence) Option {
	return func(uc *UseCase) { uc.ids = ids }
}

func New(tasks repository.TaskRepository, buffer usecase.OperationBuffer, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		tasks:  tasks,
		buffer: buffer,
		logger: logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	if uc.clock == nil {
		uc.clock = clock.Real{}
	}
	if uc.location == nil {
		uc.location = time.Local
	}
	if uc.validator == nil {
		uc.validator = validation.New()
	}
	return uc
}

// Today is the current calendar date in the planner's timezone.
func (uc *UseCase) Today() dateutil.Date {
	return dateutil.Today(uc.clock.Now(), uc.location)
}

func (uc *UseCase) Get(ctx context.Context, ownerID string, id int64) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (uc *UseCase) List(ctx context.Context, ownerID string) ([]domain.Task, error) {
	return uc.tasks.List(ctx, ownerID)
}

func (uc *UseCase) Filter(ctx context.Context, ownerID string, filter domain.TaskFilter) ([]domain.Task, error) {
	tasks, err := uc.tasks.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return domain.FilterTasks(tasks, filter), nil
}

func (uc *UseCase) Upcoming(ctx context.Context, ownerID string, withinDays int) ([]domain.Task, error) {
	if withinDays <= 0 {
		withinDays = DefaultUpcomingDays
	}
	tasks, err := uc.tasks.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return domain.UpcomingTasks(tasks, uc.Today(), withinDays), nil
}

// Stats aggregates over the filtered task set, as the planner dashboard shows it.
func (uc *UseCase) Stats(ctx context.Context, ownerID string, filter domain.TaskFilter) (domain.TaskStats, error) {
	tasks, err := uc.Filter(ctx, ownerID, filter)
	if err != nil {
		return domain.TaskStats{}, err
	}
	return domain.ComputeStats(tasks, uc.Today(), DefaultUpcomingDays), nil
}

// Add stores a new task submitted through the planner form.
func (uc *UseCase) Add(ctx context.Context, ownerID string, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	task.ID = 0
	task.OwnerID = ownerID
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	today := uc.Today()
	task.CreatedAt = today
	if err := uc.validator.Task(task); err != nil {
		return nil, err
	}
	task.SyncCompletion(today)
	return uc.create(ctx, task)
}

// Update replaces the task with the same id. Unknown or foreign ids are reported, never ignored.
func (uc *UseCase) Update(ctx context.Context, ownerID string, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	existing, err := uc.Get(ctx, ownerID, task.ID)
	if err != nil {
		return nil, err
	}
	task.OwnerID = ownerID
	if task.CreatedAt.IsZero() {
		task.CreatedAt = existing.CreatedAt
	}
	if err := uc.validator.Task(task); err != nil {
		return nil, err
	}
	task.SyncCompletion(uc.Today())

	if err := uc.tasks.Update(ctx, task); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationUpdate, task, err) {
			return task, nil
		}
		return nil, err
	}
	return task, nil
}

func (uc *UseCase) Remove(ctx context.Context, ownerID string, id int64) error {
	task, err := uc.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := uc.tasks.Delete(ctx, id); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationDelete, task, err) {
			return nil
		}
		return err
	}
	return nil
}

// Duplicate copies a task under a new id, resetting its progress.
func (uc *UseCase) Duplicate(ctx context.Context, ownerID string, id int64) (*domain.Task, error) {
	source, err := uc.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	dup := source.Clone()
	dup.ID = 0
	dup.Title = source.Title + domain.CopySuffix
	dup.Status = domain.StatusPending
	dup.CreatedAt = uc.Today()
	dup.CompletedAt = nil
	return uc.create(ctx, &dup)
}

// ToggleStatus flips between completed and pending. In-progress tasks become completed.
func (uc *UseCase) ToggleStatus(ctx context.Context, ownerID string, id int64) (*domain.Task, error) {
	task, err := uc.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if task.Status == domain.StatusCompleted {
		task.Status = domain.StatusPending
		task.CompletedAt = nil
	} else {
		task.Status = domain.StatusCompleted
		today := uc.Today()
		task.CompletedAt = &today
	}

	if err := uc.tasks.Update(ctx, task); err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationUpdate, task, err) {
			return task, nil
		}
		return nil, err
	}
	return task, nil
}

// PendingWrites reports the owner's task and profile writes still queued for replay.
// Without a buffer, or when it cannot be read, the count is zero.
func (uc *UseCase) PendingWrites(ctx context.Context, ownerID string) int {
	if uc.buffer == nil {
		return 0
	}
	n, err := uc.buffer.Pending(ctx, ownerID)
	if err != nil {
		uc.logger.Warn("failed to count buffered writes", zap.String("owner_id", ownerID), zap.Error(err))
		return 0
	}
	return n
}

func (uc *UseCase) create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, task, err) {
			return task, nil
		}
		return nil, err
	}
	return created, nil
}

// shouldBuffer only defers infrastructure failures; domain errors go back to the caller.
func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task, cause error) bool {
	if uc.buffer == nil {
		return false
	}
	var dErr *domain.Error
	if errors.As(cause, &dErr) {
		return false
	}
	if operation == usecase.OperationCreate && task.ID == 0 {
		if uc.ids == nil {
			return false
		}
		task.ID = uc.ids.Next()
	}
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		uc.logger.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("task operation buffered", zap.String("operation", operation), zap.Int64("task_id", task.ID), zap.Error(cause))
	return true
}
