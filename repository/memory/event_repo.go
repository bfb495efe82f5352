package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/repository"
)

type eventRepository struct {
	store *Store
}

func NewEventRepository(store *Store) repository.EventRepository {
	return &eventRepository{store: store}
}

func (r *eventRepository) Append(_ context.Context, event *domain.TaskEvent) error {
	if event == nil || event.TaskID == "" {
		return domain.ErrInvalidPayload
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.store.clock()
	}
	r.store.events = append(r.store.events, *event)
	return nil
}

func (r *eventRepository) ListByTask(_ context.Context, filter repository.EventFilter) ([]domain.TaskEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	events := make([]domain.TaskEvent, 0)
	for _, event := range r.store.events {
		if event.TaskID == filter.TaskID {
			events = append(events, event)
		}
	}
	return page(events, filter.Offset, filter.Limit), nil
}
