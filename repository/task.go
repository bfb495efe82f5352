package repository

import (
	"context"
	"time"

	"github.com/fastygo/todoboard/domain"
)

type TaskFilter struct {
	Status domain.TaskStatus
	Limit  int
	Offset int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error
	// UpdateIfStatus writes task only while the stored status still equals
	// expected, and returns domain.ErrTaskConflict otherwise.
	UpdateIfStatus(ctx context.Context, task *domain.Task, expected domain.TaskStatus) error
	// TransitionStatus moves id from one status to another. It reports false
	// when the row is gone or no longer holds from.
	TransitionStatus(ctx context.Context, id string, from, to domain.TaskStatus) (bool, error)
	Delete(ctx context.Context, id string) error
	// ListExpired returns ongoing tasks whose deadline is at or before now,
	// oldest deadline first.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.Task, error)
}
