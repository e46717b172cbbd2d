package repository

import (
	"context"

	"github.com/fastygo/planner/domain"
)

// DefaultNotificationMaxLen caps each owner's list; the oldest entries drop first.
const DefaultNotificationMaxLen = 200

// NotificationRepository keeps an append-only list of notifications per owner.
type NotificationRepository interface {
	Append(ctx context.Context, n domain.Notification) error
	List(ctx context.Context, ownerID string) ([]domain.Notification, error)
	Clear(ctx context.Context, ownerID string) error
}
