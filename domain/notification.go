package domain

import "time"

// Notification is an in-app message produced by the reminder scanner.
type Notification struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	TaskID    int64     `json:"taskId,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
