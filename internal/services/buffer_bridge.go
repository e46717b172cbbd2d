package services

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/internal/infrastructure/buffer"
	"github.com/fastygo/planner/usecase"
)

// BufferBridge adapts the processor to usecase.OperationBuffer.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferProfile(ctx context.Context, operation string, user *domain.User) error {
	if b.processor == nil || user == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		OwnerID:   user.ID,
		EntityID:  user.ID,
		Entity:    buffer.EntityProfile,
		Operation: operation,
		Data:      payload,
		Priority:  buffer.PriorityProfile,
	})
}

// BufferTask carries the owner beside the payload since it is not part of the task's JSON form.
func (b *BufferBridge) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	if b.processor == nil || task == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return b.processor.BufferOperation(ctx, buffer.Item{
		OwnerID:   task.OwnerID,
		EntityID:  strconv.FormatInt(task.ID, 10),
		Entity:    buffer.EntityTask,
		Operation: operation,
		Data:      payload,
		Priority:  buffer.PriorityTask,
	})
}

func (b *BufferBridge) Pending(_ context.Context, ownerID string) (int, error) {
	return b.processor.PendingFor(ownerID)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
