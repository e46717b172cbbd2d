package memory

import (
	"context"
	"sync"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/dateutil"
	"github.com/fastygo/planner/repository"
)

type taskRepository struct {
	mu    sync.RWMutex
	tasks []domain.Task
	index map[int64]int
	ids   *repository.IDSequence
}

// NewTaskRepository returns a process-local TaskRepository that keeps insertion order.
func NewTaskRepository(ids *repository.IDSequence) repository.TaskRepository {
	if ids == nil {
		ids = repository.NewIDSequence(nil)
	}
	return &taskRepository{
		index: make(map[int64]int),
		ids:   ids,
	}
}

func (r *taskRepository) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, ok := r.index[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	task := r.tasks[pos].Clone()
	return &task, nil
}

func (r *taskRepository) List(_ context.Context, ownerID string) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Task, 0)
	for _, t := range r.tasks {
		if ownerID == "" || t.OwnerID == ownerID {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (r *taskRepository) ListReminders(_ context.Context, day dateutil.Date) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Task
	for _, t := range r.tasks {
		if t.ReminderDue(day) {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (r *taskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID != 0 {
		if err := r.checkExplicit(task.ID, nil); err != nil {
			return nil, err
		}
	}
	r.insert(task, nil)
	return task, nil
}

func (r *taskRepository) CreateMany(_ context.Context, tasks []domain.Task) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make(map[int64]struct{}, len(tasks))
	for _, task := range tasks {
		if task.ID == 0 {
			continue
		}
		if err := r.checkExplicit(task.ID, batch); err != nil {
			return nil, err
		}
		batch[task.ID] = struct{}{}
	}

	created := make([]domain.Task, len(tasks))
	for i := range tasks {
		created[i] = tasks[i].Clone()
		r.insert(&created[i], batch)
	}
	return created, nil
}

// checkExplicit validates a caller-chosen id against the store and the pending batch.
func (r *taskRepository) checkExplicit(id int64, batch map[int64]struct{}) error {
	if !repository.AssignableID(id) {
		return domain.ErrInvalidTaskID
	}
	if _, taken := r.index[id]; taken {
		return domain.ErrTaskExists
	}
	if _, taken := batch[id]; taken {
		return domain.ErrTaskExists
	}
	return nil
}

// insert expects the lock held and the id, when set, already checked.
// Generated ids avoid reserved ones.
func (r *taskRepository) insert(task *domain.Task, reserved map[int64]struct{}) {
	if task.ID == 0 {
		task.ID = r.nextFreeID(reserved)
	} else {
		r.ids.Observe(task.ID)
	}
	r.index[task.ID] = len(r.tasks)
	r.tasks = append(r.tasks, task.Clone())
}

func (r *taskRepository) Update(_ context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.index[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	r.tasks[pos] = task.Clone()
	return nil
}

func (r *taskRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.index[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	r.tasks = append(r.tasks[:pos], r.tasks[pos+1:]...)
	delete(r.index, id)
	for i := pos; i < len(r.tasks); i++ {
		r.index[r.tasks[i].ID] = i
	}
	return nil
}

func (r *taskRepository) nextFreeID(reserved map[int64]struct{}) int64 {
	for {
		id := r.ids.Next()
		_, taken := r.index[id]
		_, held := reserved[id]
		if !taken && !held {
			return id
		}
	}
}
