package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/internal/infrastructure/buffer"
	"github.com/fastygo/todoboard/usecase"
)

type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	if b == nil || b.processor == nil || task == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	item := buffer.Item{
		EntityID:  task.ID,
		Entity:    buffer.EntityTask,
		Operation: operation,
		Data:      payload,
		Priority:  replayPriority(operation, task.Priority),
	}
	return b.processor.BufferOperation(ctx, item)
}

// replayPriority drains deletes and high-priority tasks first.
func replayPriority(operation string, priority domain.Priority) int {
	if operation == usecase.OperationDelete {
		return buffer.PriorityUrgent
	}
	switch priority {
	case domain.PriorityHigh:
		return buffer.PriorityUrgent
	case domain.PriorityLow:
		return buffer.PriorityLow
	default:
		return buffer.PriorityNormal
	}
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
