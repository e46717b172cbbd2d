package usecase

import (
	"context"

	"github.com/fastygo/planner/domain"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic.
type OperationBuffer interface {
	BufferProfile(ctx context.Context, operation string, user *domain.User) error
	BufferTask(ctx context.Context, operation string, task *domain.Task) error
	// Pending counts the owner's writes still waiting for replay.
	Pending(ctx context.Context, ownerID string) (int, error)
}
