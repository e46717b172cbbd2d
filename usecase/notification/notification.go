package notification

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

// UseCase exposes the reminder notifications of a user.
type UseCase struct {
	repo   repository.NotificationRepository
	logger *zap.Logger
}

func New(repo repository.NotificationRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{repo: repo, logger: logger}
}

// List returns the newest notification first.
func (uc *UseCase) List(ctx context.Context, ownerID string) ([]domain.Notification, error) {
	items, err := uc.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// Clear dismisses every notification of the owner.
func (uc *UseCase) Clear(ctx context.Context, ownerID string) error {
	if err := uc.repo.Clear(ctx, ownerID); err != nil {
		return err
	}
	uc.logger.Debug("notifications cleared", zap.String("owner_id", ownerID))
	return nil
}
