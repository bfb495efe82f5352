package repository

import (
	"context"

	"github.com/fastygo/todoboard/domain"
)

type EventFilter struct {
	TaskID string
	Limit  int
	Offset int
}

// EventRepository stores the append-only change history of tasks.
type EventRepository interface {
	Append(ctx context.Context, event *domain.TaskEvent) error
	ListByTask(ctx context.Context, filter EventFilter) ([]domain.TaskEvent, error)
}
