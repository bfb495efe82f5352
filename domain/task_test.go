package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestDeriveStatusScenarios(t *testing.T) {
	now := mustTime(t, "2025-01-02T00:00:00Z")

	tests := []struct {
		name     string
		current  TaskStatus
		deadline string
		want     TaskStatus
	}{
		{"ongoing past deadline fails", StatusOngoing, "2025-01-01T00:00:00Z", StatusFailure},
		{"failure stays failure with future deadline", StatusFailure, "2099-01-01T00:00:00Z", StatusFailure},
		{"ongoing before deadline", StatusOngoing, "2025-01-03T00:00:00Z", StatusOngoing},
		{"deadline equal to now is expired", StatusOngoing, "2025-01-02T00:00:00Z", StatusFailure},
		{"success past deadline", StatusSuccess, "2024-01-01T00:00:00Z", StatusSuccess},
		{"success future deadline", StatusSuccess, "2099-01-01T00:00:00Z", StatusSuccess},
		{"empty status treated as ongoing", "", "2099-01-01T00:00:00Z", StatusOngoing},
		{"unknown status past deadline", "archived", "2024-01-01T00:00:00Z", StatusFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.current, mustTime(t, tt.deadline), now))
		})
	}
}

func TestDeriveStatusProperties(t *testing.T) {
	now := mustTime(t, "2025-06-15T12:00:00Z")
	offsets := []time.Duration{-720 * time.Hour, -time.Second, 0, time.Second, 720 * time.Hour}

	for _, status := range Statuses {
		for _, offset := range offsets {
			deadline := now.Add(offset)
			got := DeriveStatus(status, deadline, now)

			switch {
			case status == StatusSuccess:
				assert.Equal(t, StatusSuccess, got)
			case !deadline.After(now):
				assert.Equal(t, StatusFailure, got)
			case status == StatusFailure:
				assert.Equal(t, StatusFailure, got)
			default:
				assert.Equal(t, StatusOngoing, got)
			}

			assert.Equal(t, got, DeriveStatus(got, deadline, now), "derivation must be idempotent")
		}
	}
}

func TestTaskRefresh(t *testing.T) {
	now := mustTime(t, "2025-01-02T00:00:00Z")
	task := &Task{Status: StatusOngoing, Deadline: now.Add(-time.Hour)}

	assert.True(t, task.Refresh(now))
	assert.Equal(t, StatusFailure, task.Status)
	assert.False(t, task.Refresh(now))

	var nilTask *Task
	assert.False(t, nilTask.Refresh(now))
}

func TestTaskApplyReopensOnDeadlineEdit(t *testing.T) {
	now := mustTime(t, "2025-01-02T00:00:00Z")
	future := now.Add(48 * time.Hour)

	task := &Task{Title: "ship", Status: StatusFailure, Priority: PriorityHigh, Deadline: now.Add(-time.Hour)}
	task.Apply(TaskPatch{Deadline: &future}, now)
	assert.Equal(t, StatusOngoing, task.Status)
	assert.Equal(t, future, task.Deadline)
}

func TestTaskApplyKeepsExplicitStatus(t *testing.T) {
	now := mustTime(t, "2025-01-02T00:00:00Z")
	future := now.Add(48 * time.Hour)
	failure := StatusFailure

	task := &Task{Title: "ship", Status: StatusFailure, Priority: PriorityLow, Deadline: now.Add(-time.Hour)}
	task.Apply(TaskPatch{Deadline: &future, Status: &failure}, now)
	assert.Equal(t, StatusFailure, task.Status)
}

func TestTaskApplyPastDeadlineFails(t *testing.T) {
	now := mustTime(t, "2025-01-02T00:00:00Z")
	past := now.Add(-time.Minute)
	title := "  renamed  "

	task := &Task{Title: "ship", Status: StatusOngoing, Priority: PriorityLow, Deadline: now.Add(time.Hour)}
	task.Apply(TaskPatch{Deadline: &past, Title: &title, Tags: []string{"a", " a ", "b"}, SetTags: true}, now)

	assert.Equal(t, StatusFailure, task.Status)
	assert.Equal(t, "renamed", task.Title)
	assert.Equal(t, []string{"a", "b"}, task.Tags)
}

func TestTaskNormalizeAndValidate(t *testing.T) {
	task := &Task{Title: " write report ", Deadline: time.Now().Add(time.Hour)}
	task.Normalize()
	require.NoError(t, task.Validate())
	assert.Equal(t, StatusOngoing, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Equal(t, []string{}, task.Tags)

	tests := []struct {
		name string
		task Task
	}{
		{"missing title", Task{Deadline: time.Now(), Status: StatusOngoing, Priority: PriorityLow}},
		{"long title", Task{Title: strings.Repeat("x", MaxTitleLength+1), Deadline: time.Now(), Status: StatusOngoing, Priority: PriorityLow}},
		{"missing deadline", Task{Title: "a", Status: StatusOngoing, Priority: PriorityLow}},
		{"bad status", Task{Title: "a", Deadline: time.Now(), Status: "done", Priority: PriorityLow}},
		{"bad priority", Task{Title: "a", Deadline: time.Now(), Status: StatusOngoing, Priority: "urgent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			require.Error(t, err)
			assert.True(t, IsDomainError(err, ErrCodeInvalid))
		})
	}
}

func TestNewTaskEvent(t *testing.T) {
	event := NewTaskEvent("task-1", EventStatusChanged, StatusChange{From: StatusOngoing, To: StatusFailure})
	assert.Equal(t, "task-1", event.TaskID)
	assert.JSONEq(t, `{"from":"ongoing","to":"failure"}`, string(event.Payload))
	assert.False(t, event.CreatedAt.IsZero())
}
