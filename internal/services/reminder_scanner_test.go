package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/clock"
	"github.com/fastygo/planner/pkg/dateutil"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/repository/memory"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 15, hour, minute, 0, 0, time.UTC)
}

func seedReminder(t *testing.T, repo repository.TaskRepository, task domain.Task) domain.Task {
	t.Helper()
	created, err := repo.Create(context.Background(), &task)
	require.NoError(t, err)
	return *created
}

func newScanner(t *testing.T, window time.Duration) (*ReminderScanner, repository.TaskRepository, repository.NotificationRepository) {
	t.Helper()
	tasks := memory.NewTaskRepository(nil)
	notes := memory.NewNotificationRepository(0)
	s := NewReminderScanner(tasks, notes, clock.NewFake(at(8, 0)), nil, ReminderConfig{
		Interval: time.Minute,
		Window:   window,
		Location: time.UTC,
	})
	return s, tasks, notes
}

func nineOClock(title string) domain.Task {
	nine := dateutil.Clock{Hour: 9}
	return domain.Task{
		OwnerID:      "u1",
		Title:        title,
		Subject:      "Historia",
		DueDate:      dateutil.MustParseDate("2024-01-15"),
		Status:       domain.StatusPending,
		Reminder:     true,
		ReminderTime: &nine,
	}
}

func TestScanFiresOnceAtReminderMinute(t *testing.T) {
	for _, window := range []time.Duration{0, time.Minute} {
		s, tasks, notes := newScanner(t, window)
		task := seedReminder(t, tasks, nineOClock("Ensayo"))
		ctx := context.Background()

		got, err := s.Scan(ctx, at(8, 59))
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = s.Scan(ctx, at(9, 0))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Recordatorio: Ensayo - Historia", got[0].Message)
		assert.Equal(t, task.ID, got[0].TaskID)

		got, err = s.Scan(ctx, at(9, 1))
		require.NoError(t, err)
		assert.Empty(t, got, "window %s", window)

		stored, err := notes.List(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, stored, 1)

		unchanged, err := tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, *unchanged)
	}
}

func TestScanCatchesUpLateChecks(t *testing.T) {
	ctx := context.Background()

	s, tasks, _ := newScanner(t, 0)
	seedReminder(t, tasks, nineOClock("tarde"))
	got, err := s.Scan(ctx, at(9, 7))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	strict, tasks, _ := newScanner(t, time.Minute)
	seedReminder(t, tasks, nineOClock("tarde"))
	got, err = strict.Scan(ctx, at(9, 7))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanSkipsCompletedAndOtherDays(t *testing.T) {
	s, tasks, _ := newScanner(t, 0)
	done := nineOClock("hecha")
	done.Status = domain.StatusCompleted
	seedReminder(t, tasks, done)
	tomorrow := nineOClock("mañana")
	tomorrow.DueDate = tomorrow.DueDate.AddDays(1)
	seedReminder(t, tasks, tomorrow)
	off := nineOClock("apagada")
	off.Reminder = false
	seedReminder(t, tasks, off)

	got, err := s.Scan(context.Background(), at(10, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanFiresAgainOnAnotherDay(t *testing.T) {
	s, tasks, _ := newScanner(t, 0)
	task := seedReminder(t, tasks, nineOClock("diaria"))
	ctx := context.Background()

	got, err := s.Scan(ctx, at(9, 0))
	require.NoError(t, err)
	require.Len(t, got, 1)

	task.DueDate = task.DueDate.AddDays(1)
	require.NoError(t, tasks.Update(ctx, &task))

	got, err = s.Scan(ctx, at(9, 0).Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

type failingNotifications struct {
	repository.NotificationRepository
	fail bool
}

func (f *failingNotifications) Append(ctx context.Context, n domain.Notification) error {
	if f.fail {
		return errors.New("redis down")
	}
	return f.NotificationRepository.Append(ctx, n)
}

func TestScanRetriesAfterStoreFailure(t *testing.T) {
	tasks := memory.NewTaskRepository(nil)
	notes := &failingNotifications{NotificationRepository: memory.NewNotificationRepository(0), fail: true}
	s := NewReminderScanner(tasks, notes, nil, nil, ReminderConfig{Location: time.UTC})
	seedReminder(t, tasks, nineOClock("reintento"))
	ctx := context.Background()

	got, err := s.Scan(ctx, at(9, 0))
	require.NoError(t, err)
	assert.Empty(t, got)

	notes.fail = false
	got, err = s.Scan(ctx, at(9, 1))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _, _ := newScanner(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type panickingTasks struct {
	repository.TaskRepository
}

func (panickingTasks) ListReminders(context.Context, dateutil.Date) ([]domain.Task, error) {
	panic("driver bug")
}

func TestScheduledScanSurvivesPanics(t *testing.T) {
	s := NewReminderScanner(panickingTasks{memory.NewTaskRepository(nil)}, memory.NewNotificationRepository(0),
		clock.NewFake(at(9, 0)), nil, ReminderConfig{Interval: time.Minute, Location: time.UTC})

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	assert.NotPanics(t, entries[0].WrappedJob.Run)
	assert.NotPanics(t, entries[0].WrappedJob.Run, "a second tick still runs")
}
