package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/dateutil"
	"github.com/fastygo/planner/repository"
)

const taskColumns = `id, owner_id, title, subject, description, due_date, estimated_hours,
	priority, status, reminder, reminder_time, created_on, completed_on`

const maxIDAttempts = 5

type taskRepository struct {
	pool *pgxpool.Pool
	ids  *repository.IDSequence
}

// NewTaskRepository returns a Postgres-backed TaskRepository. Rows keep insertion
// order through the position column.
func NewTaskRepository(pool *pgxpool.Pool, ids *repository.IDSequence) repository.TaskRepository {
	if ids == nil {
		ids = repository.NewIDSequence(nil)
	}
	return &taskRepository{pool: pool, ids: ids}
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, ownerID string) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + `
	FROM tasks
	WHERE ($1 = '' OR owner_id = $1)
	ORDER BY position`
	return r.query(ctx, query, ownerID)
}

func (r *taskRepository) ListReminders(ctx context.Context, day dateutil.Date) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + `
	FROM tasks
	WHERE due_date = $1
	  AND reminder
	  AND reminder_time IS NOT NULL
	  AND status <> 'completed'
	ORDER BY position`
	return r.query(ctx, query, dateArg(day))
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	if task.ID != 0 {
		if !repository.AssignableID(task.ID) {
			return nil, domain.ErrInvalidTaskID
		}
		if err := insertTask(ctx, r.pool, task); err != nil {
			if isUniqueViolation(err) {
				return nil, domain.ErrTaskExists
			}
			return nil, err
		}
		r.ids.Observe(task.ID)
		return task, nil
	}

	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		task.ID = r.ids.Next()
		if err = insertTask(ctx, r.pool, task); err == nil {
			return task, nil
		}
		if !isUniqueViolation(err) {
			break
		}
	}
	task.ID = 0
	return nil, err
}

// CreateMany inserts the batch in one transaction. Generated ids come from the
// sequence up front; a unique violation rolls everything back as ErrTaskExists.
func (r *taskRepository) CreateMany(ctx context.Context, tasks []domain.Task) ([]domain.Task, error) {
	created := make([]domain.Task, len(tasks))
	explicit := make([]int64, 0, len(tasks))
	for i := range tasks {
		created[i] = tasks[i].Clone()
		if created[i].ID == 0 {
			continue
		}
		if !repository.AssignableID(created[i].ID) {
			return nil, domain.ErrInvalidTaskID
		}
		explicit = append(explicit, created[i].ID)
	}
	for i := range created {
		if created[i].ID == 0 {
			created[i].ID = r.ids.Next()
		}
	}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for i := range created {
			if err := insertTask(ctx, tx, &created[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrTaskExists
		}
		return nil, err
	}
	for _, id := range explicit {
		r.ids.Observe(id)
	}
	return created, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		subject = $3,
		description = $4,
		due_date = $5,
		estimated_hours = $6,
		priority = $7,
		status = $8,
		reminder = $9,
		reminder_time = $10,
		created_on = $11,
		completed_on = $12,
		updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Subject,
		task.Description,
		dateArg(task.DueDate),
		task.EstimatedHours,
		string(task.Priority),
		string(task.Status),
		task.Reminder,
		nullClockArg(task.ReminderTime),
		dateArg(task.CreatedAt),
		nullDateArg(task.CompletedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func insertTask(ctx context.Context, db execer, task *domain.Task) error {
	const query = `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := db.Exec(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Subject,
		task.Description,
		dateArg(task.DueDate),
		task.EstimatedHours,
		string(task.Priority),
		string(task.Status),
		task.Reminder,
		nullClockArg(task.ReminderTime),
		dateArg(task.CreatedAt),
		nullDateArg(task.CompletedAt),
	)
	return err
}

func (r *taskRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task         domain.Task
		priority     string
		status       string
		due          time.Time
		reminderTime *string
		createdOn    *time.Time
		completedOn  *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Subject,
		&task.Description,
		&due,
		&task.EstimatedHours,
		&priority,
		&status,
		&task.Reminder,
		&reminderTime,
		&createdOn,
		&completedOn,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	task.Status = domain.Status(status)
	task.DueDate = dateutil.DateOf(due)
	if createdOn != nil {
		task.CreatedAt = dateutil.DateOf(*createdOn)
	}
	if completedOn != nil {
		done := dateutil.DateOf(*completedOn)
		task.CompletedAt = &done
	}
	if reminderTime != nil {
		if rt, err := dateutil.ParseClock(*reminderTime); err == nil {
			task.ReminderTime = &rt
		}
	}
	return &task, nil
}
