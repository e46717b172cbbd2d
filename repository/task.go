package repository

import (
	"context"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/dateutil"
)

// TaskRepository stores planner tasks. Create assigns an id when the task has none
// and rejects explicit ids outside the assignable range with domain.ErrInvalidTaskID.
// Update and Delete return domain.ErrTaskNotFound for unknown ids.
type TaskRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	List(ctx context.Context, ownerID string) ([]domain.Task, error)
	ListReminders(ctx context.Context, day dateutil.Date) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// CreateMany stores the batch all or nothing, in order. One id already in use
	// fails the whole batch with domain.ErrTaskExists.
	CreateMany(ctx context.Context, tasks []domain.Task) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id int64) error
}
