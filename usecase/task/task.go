package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/pkg/logger"
	"github.com/fastygo/todoboard/repository"
	"github.com/fastygo/todoboard/usecase"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000

	maxPatchAttempts = 3
)

// ListQuery selects tasks for ListTasks. NoPage returns every match in one page.
type ListQuery struct {
	Status   domain.TaskStatus
	Page     int
	PageSize int
	NoPage   bool
}

// Page is one slice of a task listing.
type Page struct {
	Tasks    []domain.Task
	Count    int
	Page     int
	PageSize int
	Paged    bool
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool {
	return p.Paged && p.Page*p.PageSize < p.Count
}

// HasPrevious reports whether an earlier page exists.
func (p Page) HasPrevious() bool {
	return p.Paged && p.Page > 1
}

type UseCase struct {
	tasks       repository.TaskRepository
	events      repository.EventRepository
	buffer      usecase.OperationBuffer
	invalidator usecase.AnalyticsInvalidator
	logger      *zap.Logger
	now         func() time.Time
}

func New(
	tasks repository.TaskRepository,
	events repository.EventRepository,
	buffer usecase.OperationBuffer,
	invalidator usecase.AnalyticsInvalidator,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:       tasks,
		events:      events,
		buffer:      buffer,
		invalidator: invalidator,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Intended for tests.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

func (uc *UseCase) ListTasks(ctx context.Context, query ListQuery) (*Page, error) {
	if query.Status != "" && !query.Status.Valid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "status must be one of ongoing, success, failure")
	}
	filter := repository.TaskFilter{Status: query.Status}

	if query.NoPage {
		tasks, err := uc.tasks.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return &Page{Tasks: tasks, Count: len(tasks), Page: 1, PageSize: len(tasks)}, nil
	}

	page, size := normalizePage(query.Page, query.PageSize)
	count, err := uc.tasks.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	if page > 1 && (page-1)*size >= count {
		return nil, domain.NewError(domain.ErrCodeNotFound, "invalid page")
	}

	filter.Limit = size
	filter.Offset = (page - 1) * size
	tasks, err := uc.tasks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page{Tasks: tasks, Count: count, Page: page, PageSize: size, Paged: true}, nil
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return uc.tasks.GetByID(ctx, id)
}

// CreateTask validates input, fills defaults and applies the deadline rule
// before persisting, so a task created past its deadline starts as failure.
func (uc *UseCase) CreateTask(ctx context.Context, input *domain.Task) (*domain.Task, error) {
	if input == nil {
		return nil, domain.ErrInvalidPayload
	}
	task := *input
	task.Normalize()
	if err := task.Validate(); err != nil {
		return nil, err
	}

	now := uc.now()
	task.Refresh(now)
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}

	created, err := uc.tasks.Create(ctx, &task)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, &task) {
			task.UpdatedAt = task.CreatedAt
			return &task, nil
		}
		return nil, err
	}

	uc.afterWrite(ctx, created.ID, domain.EventCreated, created)
	return created, nil
}

// UpdateTask replaces every client-controlled field. An empty status keeps
// the current one and an empty priority resets to medium.
func (uc *UseCase) UpdateTask(ctx context.Context, id string, replacement *domain.Task) (*domain.Task, error) {
	if replacement == nil {
		return nil, domain.ErrInvalidPayload
	}
	priority := replacement.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	patch := domain.TaskPatch{
		Title:       &replacement.Title,
		Description: &replacement.Description,
		Deadline:    &replacement.Deadline,
		Priority:    &priority,
		Tags:        replacement.Tags,
		SetTags:     true,
	}
	if replacement.Status != "" {
		status := replacement.Status
		patch.Status = &status
	}
	return uc.PatchTask(ctx, id, patch)
}

// PatchTask applies a partial update. Moving a failed task's deadline into
// the future without naming a status reopens it.
//
// The write only lands while the stored status is still the one the patch was
// applied to. When a completion or a sweep changes it in between, the patch is
// re-applied to the fresh row, up to maxPatchAttempts times.
func (uc *UseCase) PatchTask(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	for attempt := 1; ; attempt++ {
		task, previous, buffered, err := uc.patchOnce(ctx, id, patch)
		if errors.Is(err, domain.ErrTaskConflict) && attempt < maxPatchAttempts {
			logger.WithRequestID(ctx, uc.logger).Debug("todo changed during patch, retrying",
				zap.String("todo_id", id),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return nil, err
		}
		if buffered {
			return task, nil
		}

		uc.afterWrite(ctx, task.ID, domain.EventUpdated, task)
		if previous != task.Status {
			uc.recordEvent(ctx, task.ID, domain.EventStatusChanged, domain.StatusChange{From: previous, To: task.Status})
		}
		return task, nil
	}
}

// patchOnce reports buffered when the store rejected the write and the
// operation was queued for replay instead.
func (uc *UseCase) patchOnce(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, domain.TaskStatus, bool, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, "", false, err
	}

	previous := task.Status
	task.Apply(patch, uc.now())
	if err := task.Validate(); err != nil {
		return nil, previous, false, err
	}

	if err := uc.tasks.UpdateIfStatus(ctx, task, previous); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) || errors.Is(err, domain.ErrTaskConflict) {
			return nil, previous, false, err
		}
		if uc.shouldBuffer(ctx, usecase.OperationUpdate, task) {
			return task, previous, true, nil
		}
		return nil, previous, false, err
	}
	return task, previous, false, nil
}

// MarkComplete sets the task to success regardless of its deadline.
func (uc *UseCase) MarkComplete(ctx context.Context, id string) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.IsCompleted() {
		return task, nil
	}

	previous := task.Status
	task.Status = domain.StatusSuccess
	if err := uc.tasks.UpdateStatus(ctx, task.ID, task.Status); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, err
		}
		if uc.shouldBuffer(ctx, usecase.OperationStatus, task) {
			return task, nil
		}
		return nil, err
	}
	task.UpdatedAt = uc.now()

	uc.afterWrite(ctx, task.ID, domain.EventCompleted, domain.StatusChange{From: previous, To: task.Status})
	return task, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	if err := uc.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return err
		}
		task := &domain.Task{ID: id}
		if uc.shouldBuffer(ctx, usecase.OperationDelete, task) {
			return nil
		}
		return err
	}

	uc.afterWrite(ctx, id, domain.EventDeleted, nil)
	return nil
}

// History returns the recorded events of a task, oldest first. Deleted
// tasks keep their history.
func (uc *UseCase) History(ctx context.Context, id string) ([]domain.TaskEvent, error) {
	if uc.events == nil {
		return []domain.TaskEvent{}, nil
	}
	events, err := uc.events.ListByTask(ctx, repository.EventFilter{TaskID: id})
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		if _, err := uc.tasks.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (uc *UseCase) afterWrite(ctx context.Context, taskID string, name domain.EventName, payload interface{}) {
	uc.recordEvent(ctx, taskID, name, payload)
	if uc.invalidator == nil {
		return
	}
	if err := uc.invalidator.Invalidate(ctx); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("analytics cache invalidation failed", zap.Error(err))
	}
}

func (uc *UseCase) recordEvent(ctx context.Context, taskID string, name domain.EventName, payload interface{}) {
	if uc.events == nil {
		return
	}
	event := domain.NewTaskEvent(taskID, name, payload)
	if err := uc.events.Append(ctx, &event); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("failed to record task event",
			zap.String("todo_id", taskID),
			zap.String("event", string(name)),
			zap.Error(err))
	}
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task) bool {
	if uc.buffer == nil {
		return false
	}
	log := logger.WithRequestID(ctx, uc.logger)
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		log.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	log.Warn("task operation buffered", zap.String("operation", operation), zap.String("todo_id", task.ID))
	return true
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
