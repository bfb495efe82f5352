package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/repository"
)

type eventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a Postgres-backed EventRepository implementation.
func NewEventRepository(pool *pgxpool.Pool) repository.EventRepository {
	return &eventRepository{pool: pool}
}

func (r *eventRepository) Append(ctx context.Context, event *domain.TaskEvent) error {
	if event == nil || event.TaskID == "" {
		return domain.ErrInvalidPayload
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO todo_events (id, todo_id, name, payload, created_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
	RETURNING created_at
	`

	var payload interface{}
	if len(event.Payload) > 0 {
		payload = []byte(event.Payload)
	}

	return r.pool.QueryRow(ctx, query,
		event.ID,
		event.TaskID,
		event.Name,
		payload,
		nullTime(event.CreatedAt),
	).Scan(&event.CreatedAt)
}

func (r *eventRepository) ListByTask(ctx context.Context, filter repository.EventFilter) ([]domain.TaskEvent, error) {
	if _, err := uuid.Parse(filter.TaskID); err != nil {
		return []domain.TaskEvent{}, nil
	}

	const query = `
	SELECT id, todo_id, name, payload, created_at
	FROM todo_events
	WHERE todo_id = $1
	ORDER BY created_at, id
	LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, filter.TaskID, limitArg(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.TaskEvent, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func scanEvent(row rowScanner) (*domain.TaskEvent, error) {
	var event domain.TaskEvent
	var payload []byte

	if err := row.Scan(
		&event.ID,
		&event.TaskID,
		&event.Name,
		&payload,
		&event.CreatedAt,
	); err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		event.Payload = make([]byte, len(payload))
		copy(event.Payload, payload)
	}
	return &event, nil
}
