package memory

import (
	"context"
	"sync"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

type notificationRepository struct {
	mu     sync.RWMutex
	lists  map[string][]domain.Notification
	maxLen int
}

// NewNotificationRepository keeps the newest maxLen notifications per owner.
// A non-positive maxLen uses repository.DefaultNotificationMaxLen.
func NewNotificationRepository(maxLen int) repository.NotificationRepository {
	if maxLen <= 0 {
		maxLen = repository.DefaultNotificationMaxLen
	}
	return &notificationRepository{lists: make(map[string][]domain.Notification), maxLen: maxLen}
}

func (r *notificationRepository) Append(_ context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.lists[n.OwnerID], n)
	if over := len(list) - r.maxLen; over > 0 {
		list = append(list[:0:0], list[over:]...)
	}
	r.lists[n.OwnerID] = list
	return nil
}

func (r *notificationRepository) List(_ context.Context, ownerID string) ([]domain.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Notification, len(r.lists[ownerID]))
	copy(out, r.lists[ownerID])
	return out, nil
}

func (r *notificationRepository) Clear(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lists, ownerID)
	return nil
}
