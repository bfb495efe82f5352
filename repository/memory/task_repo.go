package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/repository"
)

type taskRepository struct {
	store *Store
}

func NewTaskRepository(store *Store) repository.TaskRepository {
	return &taskRepository{store: store}
}

func (r *taskRepository) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	task, ok := r.store.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	out := cloneTask(task)
	return &out, nil
}

func (r *taskRepository) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := r.filtered(filter.Status)
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return page(matched, filter.Offset, filter.Limit), nil
}

func (r *taskRepository) Count(_ context.Context, filter repository.TaskFilter) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.filtered(filter.Status)), nil
}

func (r *taskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if _, exists := r.store.tasks[task.ID]; exists {
		return nil, domain.NewError(domain.ErrCodeConflict, "todo already exists")
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = r.store.clock()
	}
	task.UpdatedAt = task.CreatedAt
	r.store.tasks[task.ID] = cloneTask(*task)
	return task, nil
}

func (r *taskRepository) Update(_ context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	task.CreatedAt = current.CreatedAt
	task.UpdatedAt = r.store.clock()
	r.store.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (r *taskRepository) UpdateIfStatus(_ context.Context, task *domain.Task, expected domain.TaskStatus) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if current.Status != expected {
		return domain.ErrTaskConflict
	}
	task.CreatedAt = current.CreatedAt
	task.UpdatedAt = r.store.clock()
	r.store.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (r *taskRepository) TransitionStatus(_ context.Context, id string, from, to domain.TaskStatus) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.tasks[id]
	if !ok || current.Status != from {
		return false, nil
	}
	current.Status = to
	current.UpdatedAt = r.store.clock()
	r.store.tasks[id] = current
	return true, nil
}

func (r *taskRepository) UpdateStatus(_ context.Context, id string, status domain.TaskStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	current.Status = status
	current.UpdatedAt = r.store.clock()
	r.store.tasks[id] = current
	return nil
}

func (r *taskRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.store.tasks, id)
	return nil
}

func (r *taskRepository) ListExpired(_ context.Context, now time.Time, limit int) ([]domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var expired []domain.Task
	for _, task := range r.store.tasks {
		if task.Status == domain.StatusOngoing && !task.Deadline.After(now) {
			expired = append(expired, cloneTask(task))
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		if !expired[i].Deadline.Equal(expired[j].Deadline) {
			return expired[i].Deadline.Before(expired[j].Deadline)
		}
		return expired[i].ID < expired[j].ID
	})
	return page(expired, 0, limit), nil
}

// filtered expects the read lock to be held.
func (r *taskRepository) filtered(status domain.TaskStatus) []domain.Task {
	out := make([]domain.Task, 0, len(r.store.tasks))
	for _, task := range r.store.tasks {
		if status != "" && task.Status != status {
			continue
		}
		out = append(out, cloneTask(task))
	}
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return make([]T, 0)
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
