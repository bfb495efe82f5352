package repository

import (
	"context"
	"time"

	"github.com/fastygo/todoboard/domain"
)

// WindowCount is the number of tasks created in [From, To) and how many of
// them are completed.
type WindowCount struct {
	Total     int
	Completed int
}

// TaskSpan is the slice of a task the duration analytics work on.
type TaskSpan struct {
	ID        string
	Title     string
	Status    domain.TaskStatus
	Deadline  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AnalyticsRepository answers the aggregate queries behind the analytics API.
type AnalyticsRepository interface {
	StatusCounts(ctx context.Context) ([]domain.StatusCount, error)
	CompletionWindow(ctx context.Context, from, to time.Time) (WindowCount, error)
	// CreationHours counts tasks per UTC creation hour. Hours without tasks
	// are omitted.
	CreationHours(ctx context.Context) ([]domain.HourlyCount, error)
	// CompletedSpans lists successful tasks.
	CompletedSpans(ctx context.Context) ([]TaskSpan, error)
	// PlannedSpans lists every task.
	PlannedSpans(ctx context.Context) ([]TaskSpan, error)
}
