package transport

import (
	"strings"
	"time"

	"github.com/fastygo/todoboard/domain"
)

// TaskRequest is the body of POST and PUT on /api/todos/.
type TaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Deadline    string   `json:"deadline"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
}

// ToTask converts the request into a domain task. The deadline accepts
// RFC 3339 with or without fractional seconds.
func (r TaskRequest) ToTask() (*domain.Task, error) {
	deadline, err := ParseDeadline(r.Deadline)
	if err != nil {
		return nil, err
	}
	return &domain.Task{
		Title:       r.Title,
		Description: r.Description,
		Deadline:    deadline,
		Status:      domain.TaskStatus(strings.ToLower(r.Status)),
		Priority:    domain.Priority(strings.ToLower(r.Priority)),
		Tags:        r.Tags,
	}, nil
}

// TaskPatchRequest is the body of PATCH on /api/todos/{id}/. Absent fields
// are left unchanged.
type TaskPatchRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Deadline    *string   `json:"deadline"`
	Status      *string   `json:"status"`
	Priority    *string   `json:"priority"`
	Tags        *[]string `json:"tags"`
}

func (r TaskPatchRequest) ToPatch() (domain.TaskPatch, error) {
	patch := domain.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.Deadline != nil {
		deadline, err := ParseDeadline(*r.Deadline)
		if err != nil {
			return domain.TaskPatch{}, err
		}
		patch.Deadline = &deadline
	}
	if r.Status != nil {
		status := domain.TaskStatus(strings.ToLower(*r.Status))
		if !status.Valid() {
			return domain.TaskPatch{}, domain.NewError(domain.ErrCodeInvalid, "status must be one of ongoing, success, failure")
		}
		patch.Status = &status
	}
	if r.Priority != nil {
		priority := domain.Priority(strings.ToLower(*r.Priority))
		patch.Priority = &priority
	}
	if r.Tags != nil {
		patch.Tags = *r.Tags
		patch.SetTags = true
	}
	return patch, nil
}

// ParseDeadline reads an RFC 3339 timestamp and normalizes it to UTC.
func ParseDeadline(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, domain.NewError(domain.ErrCodeInvalid, "deadline is required")
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, domain.WrapError(domain.ErrCodeInvalid, "deadline must be an RFC 3339 timestamp", err)
	}
	return parsed.UTC(), nil
}
