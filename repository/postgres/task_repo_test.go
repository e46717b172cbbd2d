package postgres

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/config"
	pginfra "github.com/fastygo/planner/internal/infrastructure/postgres"
	"github.com/fastygo/planner/pkg/dateutil"
	"github.com/fastygo/planner/repository"
)

// testPool connects to PLANNER_TEST_DATABASE_URL and applies the schema.
// Without it the Postgres tests are skipped.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("PLANNER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("PLANNER_TEST_DATABASE_URL not set")
	}
	cfg := &config.Config{
		Database:   config.DatabaseConfig{URL: url, Name: "planner"},
		Migrations: config.MigrationsConfig{Enabled: true},
	}
	require.NoError(t, pginfra.RunMigrations(cfg, nil))

	pool, err := pginfra.NewPool(context.Background(), cfg.Database, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func testOwner(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	owner := "test-" + uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM tasks WHERE owner_id = $1`, owner)
	})
	return owner
}

func storedTask(owner, title string) *domain.Task {
	return &domain.Task{
		OwnerID:        owner,
		Title:          title,
		Subject:        "Historia",
		DueDate:        dateutil.MustParseDate("2024-01-17"),
		EstimatedHours: 2,
		Priority:       domain.PriorityMedium,
		Status:         domain.StatusPending,
		CreatedAt:      dateutil.MustParseDate("2024-01-15"),
	}
}

func TestTaskRepository_RoundTrip(t *testing.T) {
	pool := testPool(t)
	owner := testOwner(t, pool)
	repo := NewTaskRepository(pool, repository.NewIDSequence(nil))
	ctx := context.Background()

	first, err := repo.Create(ctx, storedTask(owner, "primera"))
	require.NoError(t, err)
	second, err := repo.Create(ctx, storedTask(owner, "segunda"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	list, err := repo.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "primera", list[0].Title)
	assert.Equal(t, "segunda", list[1].Title)

	done := dateutil.MustParseDate("2024-01-16")
	second.Status = domain.StatusCompleted
	second.CompletedAt = &done
	require.NoError(t, repo.Update(ctx, second))

	got, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(done))

	require.NoError(t, repo.Delete(ctx, first.ID))
	_, err = repo.GetByID(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), domain.ErrTaskNotFound)
}

func TestTaskRepository_CreateRejectsOutOfRangeIDs(t *testing.T) {
	pool := testPool(t)
	owner := testOwner(t, pool)
	repo := NewTaskRepository(pool, repository.NewIDSequence(nil))

	for _, id := range []int64{-5, math.MaxInt64} {
		task := storedTask(owner, "fuera de rango")
		task.ID = id
		_, err := repo.Create(context.Background(), task)
		assert.ErrorIs(t, err, domain.ErrInvalidTaskID, "id %d", id)
	}
}

func TestTaskRepository_CreateManyRollsBack(t *testing.T) {
	pool := testPool(t)
	owner := testOwner(t, pool)
	repo := NewTaskRepository(pool, repository.NewIDSequence(nil))
	ctx := context.Background()

	taken, err := repo.Create(ctx, storedTask(owner, "existente"))
	require.NoError(t, err)

	clash := storedTask(owner, "choca")
	clash.ID = taken.ID
	_, err = repo.CreateMany(ctx, []domain.Task{*storedTask(owner, "nueva"), *clash})
	assert.ErrorIs(t, err, domain.ErrTaskExists)

	list, err := repo.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	created, err := repo.CreateMany(ctx, []domain.Task{*storedTask(owner, "a"), *storedTask(owner, "b")})
	require.NoError(t, err)
	require.Len(t, created, 2)

	list, err = repo.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestUserRepository_UpsertAndLookup(t *testing.T) {
	pool := testPool(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	id := uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	email := id + "@uni.edu"
	require.NoError(t, repo.Upsert(ctx, &domain.User{ID: id, Name: "María", Email: email, UserType: domain.UserTypeStudent}))
	require.NoError(t, repo.Upsert(ctx, &domain.User{ID: id, Name: "María José", Email: email, UserType: domain.UserTypeStudent}))

	got, err := repo.GetByEmail(ctx, id+"@UNI.edu")
	require.NoError(t, err)
	assert.Equal(t, "María José", got.Name)

	_, err = repo.GetByID(ctx, "missing-"+id)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
