package calendar

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/clock"
	"github.com/fastygo/planner/pkg/dateutil"
)

// TaskSource is the slice of the task use case the calendar reads from.
type TaskSource interface {
	Filter(ctx context.Context, ownerID string, filter domain.TaskFilter) ([]domain.Task, error)
	Get(ctx context.Context, ownerID string, id int64) (*domain.Task, error)
}

// Publisher mirrors tasks into an external calendar.
type Publisher interface {
	Publish(ctx context.Context, tasks []domain.Task) (SyncResult, error)
}

type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

type ViewRequest struct {
	Mode   Mode
	Date   dateutil.Date
	Nav    Direction
	Filter domain.TaskFilter
}

type UseCase struct {
	tasks     TaskSource
	publisher Publisher
	clock     clock.Clock
	location  *time.Location
	logger    *zap.Logger
}

func New(tasks TaskSource, publisher Publisher, clk clock.Clock, loc *time.Location, logger *zap.Logger) *UseCase {
	if clk == nil {
		clk = clock.Real{}
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{tasks: tasks, publisher: publisher, clock: clk, location: loc, logger: logger}
}

// View renders the page containing req.Date (today when unset) after applying req.Nav.
// The task filter applies to the calendar as it does to the list.
func (uc *UseCase) View(ctx context.Context, ownerID string, req ViewRequest) (*Grid, error) {
	today := dateutil.Today(uc.clock.Now(), uc.location)
	ref := req.Date
	if ref.IsZero() {
		ref = today
	}
	if req.Mode == "" {
		req.Mode = ModeMonth
	}
	ref = Navigate(ref, today, req.Mode, req.Nav)

	tasks, err := uc.tasks.Filter(ctx, ownerID, req.Filter)
	if err != nil {
		return nil, err
	}

	var grid Grid
	if req.Mode == ModeWeek {
		grid = BuildWeek(ref, today, tasks)
	} else {
		grid = BuildMonth(ref, today, tasks)
	}
	return &grid, nil
}

func (uc *UseCase) TaskICS(ctx context.Context, ownerID string, id int64) (string, error) {
	task, err := uc.tasks.Get(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	return BuildTaskICS(*task, uc.clock.Now())
}

// Sync publishes the owner's open tasks. It fails with ErrFeatureDisabled when
// no external calendar is configured.
func (uc *UseCase) Sync(ctx context.Context, ownerID string) (SyncResult, error) {
	if uc.publisher == nil {
		return SyncResult{}, domain.ErrFeatureDisabled
	}
	tasks, err := uc.tasks.Filter(ctx, ownerID, domain.TaskFilter{})
	if err != nil {
		return SyncResult{}, err
	}
	result, err := uc.publisher.Publish(ctx, tasks)
	if err != nil {
		uc.logger.Error("calendar sync failed", zap.String("owner_id", ownerID), zap.Error(err))
		return result, domain.WrapError(domain.ErrCodeUnavailable, "calendar sync failed", err)
	}
	uc.logger.Info("calendar synced",
		zap.String("owner_id", ownerID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
	)
	return result, nil
}
