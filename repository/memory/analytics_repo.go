package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/repository"
)

type analyticsRepository struct {
	store *Store
}

func NewAnalyticsRepository(store *Store) repository.AnalyticsRepository {
	return &analyticsRepository{store: store}
}

func (r *analyticsRepository) StatusCounts(_ context.Context) ([]domain.StatusCount, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	byStatus := make(map[domain.TaskStatus]int)
	for _, task := range r.store.tasks {
		byStatus[task.Status]++
	}

	counts := make([]domain.StatusCount, 0, len(byStatus))
	for status, count := range byStatus {
		counts = append(counts, domain.StatusCount{Status: status, Count: count})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Status < counts[j].Status })
	return counts, nil
}

func (r *analyticsRepository) CompletionWindow(_ context.Context, from, to time.Time) (repository.WindowCount, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var window repository.WindowCount
	for _, task := range r.store.tasks {
		if task.CreatedAt.Before(from) || !task.CreatedAt.Before(to) {
			continue
		}
		window.Total++
		if task.Status == domain.StatusSuccess {
			window.Completed++
		}
	}
	return window, nil
}

func (r *analyticsRepository) CreationHours(_ context.Context) ([]domain.HourlyCount, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var buckets [24]int
	for _, task := range r.store.tasks {
		buckets[task.CreatedAt.UTC().Hour()]++
	}

	hours := make([]domain.HourlyCount, 0, 24)
	for hour, count := range buckets {
		if count > 0 {
			hours = append(hours, domain.HourlyCount{Hour: hour, Count: count})
		}
	}
	return hours, nil
}

func (r *analyticsRepository) CompletedSpans(_ context.Context) ([]repository.TaskSpan, error) {
	return r.spans(func(task domain.Task) bool { return task.Status == domain.StatusSuccess }), nil
}

func (r *analyticsRepository) PlannedSpans(_ context.Context) ([]repository.TaskSpan, error) {
	return r.spans(func(domain.Task) bool { return true }), nil
}

func (r *analyticsRepository) spans(keep func(domain.Task) bool) []repository.TaskSpan {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	spans := make([]repository.TaskSpan, 0, len(r.store.tasks))
	for _, task := range r.store.tasks {
		if !keep(task) {
			continue
		}
		spans = append(spans, repository.TaskSpan{
			ID:        task.ID,
			Title:     task.Title,
			Status:    task.Status,
			Deadline:  task.Deadline,
			CreatedAt: task.CreatedAt,
			UpdatedAt: task.UpdatedAt,
		})
	}
	sort.Slice(spans, func(i, j int) bool {
		if !spans[i].CreatedAt.Equal(spans[j].CreatedAt) {
			return spans[i].CreatedAt.Before(spans[j].CreatedAt)
		}
		return spans[i].ID < spans[j].ID
	})
	return spans
}
