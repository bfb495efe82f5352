package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/repository"
	"github.com/fastygo/todoboard/repository/memory"
)

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

// flakyTasks fails status writes for one id.
type flakyTasks struct {
	repository.TaskRepository
	failID string
}

func (f *flakyTasks) TransitionStatus(ctx context.Context, id string, from, to domain.TaskStatus) (bool, error) {
	if id == f.failID {
		return false, errors.New("connection reset")
	}
	return f.TaskRepository.TransitionStatus(ctx, id, from, to)
}

// interleavedTasks runs afterList once the expired batch has been read.
type interleavedTasks struct {
	repository.TaskRepository
	afterList func()
}

func (i *interleavedTasks) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.Task, error) {
	batch, err := i.TaskRepository.ListExpired(ctx, now, limit)
	if i.afterList != nil {
		i.afterList()
		i.afterList = nil
	}
	return batch, err
}

func seedTask(t *testing.T, repo repository.TaskRepository, title string, status domain.TaskStatus, deadline time.Time) *domain.Task {
	t.Helper()
	task, err := repo.Create(context.Background(), &domain.Task{
		Title:    title,
		Status:   status,
		Priority: domain.PriorityMedium,
		Deadline: deadline,
	})
	require.NoError(t, err)
	return task
}

func TestSweepMarksExpiredTasks(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	tasks := memory.NewTaskRepository(store)
	events := memory.NewEventRepository(store)
	inv := &countingInvalidator{}

	late := seedTask(t, tasks, "late", domain.StatusOngoing, now.Add(-24*time.Hour))
	dueNow := seedTask(t, tasks, "due now", domain.StatusOngoing, now)
	future := seedTask(t, tasks, "future", domain.StatusOngoing, now.Add(time.Hour))
	done := seedTask(t, tasks, "done", domain.StatusSuccess, now.Add(-time.Hour))
	failed := seedTask(t, tasks, "failed", domain.StatusFailure, now.Add(24*time.Hour))

	sweeper := NewStatusSweeper(tasks, events, inv, nil, SweeperConfig{BatchSize: 1}).
		WithClock(func() time.Time { return now })

	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 1, inv.calls)

	expectStatus := map[string]domain.TaskStatus{
		late.ID:   domain.StatusFailure,
		dueNow.ID: domain.StatusFailure,
		future.ID: domain.StatusOngoing,
		done.ID:   domain.StatusSuccess,
		failed.ID: domain.StatusFailure,
	}
	for id, want := range expectStatus {
		got, err := tasks.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, got.Title)
	}

	history, err := events.ListByTask(ctx, repository.EventFilter{TaskID: late.ID})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.EventStatusChanged, history[0].Name)
	assert.JSONEq(t, `{"from":"ongoing","to":"failure"}`, string(history[0].Payload))

	again, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Updated)
	assert.Equal(t, 1, inv.calls)
}

func TestSweepSkipsFailedWrites(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	base := memory.NewTaskRepository(store)

	stuck := seedTask(t, base, "stuck", domain.StatusOngoing, now.Add(-2*time.Hour))
	fine := seedTask(t, base, "fine", domain.StatusOngoing, now.Add(-time.Hour))
	tasks := &flakyTasks{TaskRepository: base, failID: stuck.ID}

	sweeper := NewStatusSweeper(tasks, nil, nil, nil, SweeperConfig{BatchSize: 10}).
		WithClock(func() time.Time { return now })

	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Failed)

	got, err := base.GetByID(ctx, fine.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, got.Status)

	got, err = base.GetByID(ctx, stuck.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOngoing, got.Status)
}

func TestSweepKeepsTaskCompletedMidPass(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	base := memory.NewTaskRepository(store)
	events := memory.NewEventRepository(store)

	late := seedTask(t, base, "late", domain.StatusOngoing, now.Add(-time.Hour))
	other := seedTask(t, base, "other", domain.StatusOngoing, now.Add(-2*time.Hour))
	tasks := &interleavedTasks{TaskRepository: base, afterList: func() {
		require.NoError(t, base.UpdateStatus(ctx, late.ID, domain.StatusSuccess))
	}}

	sweeper := NewStatusSweeper(tasks, events, nil, nil, SweeperConfig{BatchSize: 10}).
		WithClock(func() time.Time { return now })

	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Stale)
	assert.Zero(t, result.Failed)

	got, err := base.GetByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, got.Status)

	got, err = base.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailure, got.Status)

	history, err := events.ListByTask(ctx, repository.EventFilter{TaskID: late.ID})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSweepSkipsWhenAlreadyRunning(t *testing.T) {
	sweeper := NewStatusSweeper(memory.NewTaskRepository(memory.NewStore()), nil, nil, nil, SweeperConfig{})
	sweeper.running <- struct{}{}
	defer func() { <-sweeper.running }()

	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestWaitBlocksUntilSweepFinishes(t *testing.T) {
	sweeper := NewStatusSweeper(memory.NewTaskRepository(memory.NewStore()), nil, nil, nil, SweeperConfig{})
	require.NoError(t, sweeper.Wait(context.Background()))

	sweeper.running <- struct{}{}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sweeper.Wait(ctx), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() { done <- sweeper.Wait(context.Background()) }()
	<-sweeper.running
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the sweep finished")
	}
}

func TestSweepHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sweeper := NewStatusSweeper(memory.NewTaskRepository(memory.NewStore()), nil, nil, nil, SweeperConfig{})
	_, err := sweeper.Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEverySchedule(t *testing.T) {
	assert.Equal(t, "@every 10s", everySchedule(10*time.Second))
	assert.Equal(t, "@every 1s", everySchedule(200*time.Millisecond))
}
