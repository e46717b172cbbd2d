package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/config"
	redisinfra "github.com/fastygo/planner/internal/infrastructure/redis"
)

// testClient connects to PLANNER_TEST_REDIS_URL. Without it the Redis tests are skipped.
func testClient(t *testing.T) *redislib.Client {
	t.Helper()
	url := os.Getenv("PLANNER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PLANNER_TEST_REDIS_URL not set")
	}
	client, err := redisinfra.NewClient(context.Background(), config.RedisConfig{URL: url}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNotificationRepository_CapsAndClears(t *testing.T) {
	repo := NewNotificationRepository(testClient(t), time.Minute, 3)
	ctx := context.Background()
	owner := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = repo.Clear(context.Background(), owner) })

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Append(ctx, domain.Notification{ID: fmt.Sprint(i), OwnerID: owner, TaskID: int64(i)}))
	}

	list, err := repo.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "3", list[0].ID)
	assert.Equal(t, "5", list[2].ID)
	assert.Equal(t, owner, list[2].OwnerID)

	require.NoError(t, repo.Clear(ctx, owner))
	list, err = repo.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	repo := NewSessionRepository(testClient(t), time.Minute)
	ctx := context.Background()

	now := time.Now()
	session := &domain.Session{ID: uuid.NewString(), UserID: "u1", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	t.Cleanup(func() { _ = repo.Delete(context.Background(), session.ID) })
	require.NoError(t, repo.Save(ctx, session))

	got, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, repo.Extend(ctx, session.ID, 3600))
	extended, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, extended.ExpiresAt.After(got.ExpiresAt))

	require.NoError(t, repo.Delete(ctx, session.ID))
	_, err = repo.Get(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
