package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusOngoing TaskStatus = "ongoing"
	StatusSuccess TaskStatus = "success"
	StatusFailure TaskStatus = "failure"
)

// Statuses lists every status in display order.
var Statuses = []TaskStatus{StatusOngoing, StatusSuccess, StatusFailure}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusOngoing, StatusSuccess, StatusFailure:
		return true
	}
	return false
}

// Priority ranks how urgent a task is for its owner.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

const MaxTitleLength = 200

// Task represents a deadline-bound to-do item.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    time.Time  `json:"deadline"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// DeriveStatus returns the status a task should have at now.
//
// Success is terminal. Otherwise a deadline at or before now means failure,
// and a failure stays a failure even if the deadline lies in the future:
// only an explicit edit (see Apply) brings a failed task back.
func DeriveStatus(current TaskStatus, deadline, now time.Time) TaskStatus {
	if current == StatusSuccess {
		return StatusSuccess
	}
	if !deadline.After(now) {
		return StatusFailure
	}
	if current == StatusFailure {
		return StatusFailure
	}
	return StatusOngoing
}

// IsExpired reports whether the deadline has been reached at now.
func (t *Task) IsExpired(now time.Time) bool {
	return t != nil && !t.Deadline.After(now)
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusSuccess
}

// Refresh applies DeriveStatus in place and reports whether the status changed.
func (t *Task) Refresh(now time.Time) bool {
	if t == nil {
		return false
	}
	next := DeriveStatus(t.Status, t.Deadline, now)
	if next == t.Status {
		return false
	}
	t.Status = next
	return true
}

// Normalize fills defaults for optional fields.
func (t *Task) Normalize() {
	if t == nil {
		return
	}
	t.Title = strings.TrimSpace(t.Title)
	if t.Status == "" {
		t.Status = StatusOngoing
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	t.Tags = NormalizeTags(t.Tags)
}

// Validate checks the fields a client controls.
func (t *Task) Validate() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if strings.TrimSpace(t.Title) == "" {
		return NewError(ErrCodeInvalid, "title is required")
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return NewError(ErrCodeInvalid, "title must be at most 200 characters")
	}
	if t.Deadline.IsZero() {
		return NewError(ErrCodeInvalid, "deadline is required")
	}
	if !t.Status.Valid() {
		return NewError(ErrCodeInvalid, "status must be one of ongoing, success, failure")
	}
	if !t.Priority.Valid() {
		return NewError(ErrCodeInvalid, "priority must be one of low, medium, high")
	}
	return nil
}

// NormalizeTags trims labels and drops empties and duplicates, keeping the
// first occurrence order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Deadline    *time.Time
	Status      *TaskStatus
	Priority    *Priority
	Tags        []string
	SetTags     bool
}

// Apply merges the patch into the task and re-derives its status.
//
// Moving the deadline of a failed task into the future without naming a
// status is treated as the user reopening it.
func (t *Task) Apply(patch TaskPatch, now time.Time) {
	if t == nil {
		return
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.SetTags {
		t.Tags = patch.Tags
	}
	if patch.Deadline != nil {
		t.Deadline = *patch.Deadline
		if patch.Status == nil && t.Status == StatusFailure && t.Deadline.After(now) {
			t.Status = StatusOngoing
		}
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	t.Normalize()
	if t.Status.Valid() {
		t.Refresh(now)
	}
}
