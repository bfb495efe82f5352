package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/repository"
)

type analyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository creates a Postgres-backed AnalyticsRepository.
func NewAnalyticsRepository(pool *pgxpool.Pool) repository.AnalyticsRepository {
	return &analyticsRepository{pool: pool}
}

func (r *analyticsRepository) StatusCounts(ctx context.Context) ([]domain.StatusCount, error) {
	const query = `
	SELECT status, COUNT(*)
	FROM todos
	GROUP BY status
	ORDER BY status
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]domain.StatusCount, 0, len(domain.Statuses))
	for rows.Next() {
		var item domain.StatusCount
		if err := rows.Scan(&item.Status, &item.Count); err != nil {
			return nil, err
		}
		counts = append(counts, item)
	}
	return counts, rows.Err()
}

func (r *analyticsRepository) CompletionWindow(ctx context.Context, from, to time.Time) (repository.WindowCount, error) {
	const query = `
	SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'success')
	FROM todos
	WHERE created_at >= $1 AND created_at < $2
	`
	var window repository.WindowCount
	if err := r.pool.QueryRow(ctx, query, from, to).Scan(&window.Total, &window.Completed); err != nil {
		return repository.WindowCount{}, err
	}
	return window, nil
}

func (r *analyticsRepository) CreationHours(ctx context.Context) ([]domain.HourlyCount, error) {
	const query = `
	SELECT EXTRACT(HOUR FROM created_at AT TIME ZONE 'UTC')::int AS hour, COUNT(*)
	FROM todos
	GROUP BY hour
	ORDER BY hour
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hours := make([]domain.HourlyCount, 0, 24)
	for rows.Next() {
		var item domain.HourlyCount
		if err := rows.Scan(&item.Hour, &item.Count); err != nil {
			return nil, err
		}
		hours = append(hours, item)
	}
	return hours, rows.Err()
}

func (r *analyticsRepository) CompletedSpans(ctx context.Context) ([]repository.TaskSpan, error) {
	const query = `
	SELECT id, title, status, deadline, created_at, updated_at
	FROM todos
	WHERE status = 'success'
	ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectSpans(rows)
}

func (r *analyticsRepository) PlannedSpans(ctx context.Context) ([]repository.TaskSpan, error) {
	const query = `
	SELECT id, title, status, deadline, created_at, updated_at
	FROM todos
	ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectSpans(rows)
}

func collectSpans(rows pgx.Rows) ([]repository.TaskSpan, error) {
	defer rows.Close()

	spans := make([]repository.TaskSpan, 0)
	for rows.Next() {
		var span repository.TaskSpan
		if err := rows.Scan(&span.ID, &span.Title, &span.Status, &span.Deadline, &span.CreatedAt, &span.UpdatedAt); err != nil {
			return nil, err
		}
		spans = append(spans, span)
	}
	return spans, rows.Err()
}
