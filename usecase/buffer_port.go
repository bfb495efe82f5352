package usecase

import (
	"context"

	"github.com/fastygo/todoboard/domain"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationStatus = "status"
	OperationDelete = "delete"
)

// OperationBuffer abstracts the buffer processor so use cases stay storage-agnostic.
type OperationBuffer interface {
	BufferTask(ctx context.Context, operation string, task *domain.Task) error
}

// AnalyticsInvalidator drops cached analytics after task writes.
type AnalyticsInvalidator interface {
	Invalidate(ctx context.Context) error
}
