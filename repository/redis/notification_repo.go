package redis

import (
	"context"
	"encoding/json"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/repository"
)

const notificationPrefix = "planner:notifications:"

type notificationRepository struct {
	client    *redislib.Client
	retention time.Duration
	maxLen    int64
}

// NewNotificationRepository keeps each owner's notifications in a capped Redis list.
// The list expires retention after its last append.
func NewNotificationRepository(client *redislib.Client, retention time.Duration, maxLen int64) repository.NotificationRepository {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if maxLen <= 0 {
		maxLen = repository.DefaultNotificationMaxLen
	}
	return &notificationRepository{client: client, retention: retention, maxLen: maxLen}
}

func (r *notificationRepository) Append(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(storedNotification{Notification: n, OwnerID: n.OwnerID})
	if err != nil {
		return err
	}
	key := notificationPrefix + n.OwnerID
	_, err = r.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.LTrim(ctx, key, -r.maxLen, -1)
		pipe.Expire(ctx, key, r.retention)
		return nil
	})
	return err
}

func (r *notificationRepository) List(ctx context.Context, ownerID string) ([]domain.Notification, error) {
	raw, err := r.client.LRange(ctx, notificationPrefix+ownerID, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(raw))
	for _, item := range raw {
		var stored storedNotification
		if err := json.Unmarshal([]byte(item), &stored); err != nil {
			continue
		}
		stored.Notification.OwnerID = stored.OwnerID
		out = append(out, stored.Notification)
	}
	return out, nil
}

func (r *notificationRepository) Clear(ctx context.Context, ownerID string) error {
	return r.client.Del(ctx, notificationPrefix+ownerID).Err()
}

type storedNotification struct {
	domain.Notification
	OwnerID string `json:"ownerId"`
}
