package domain

import (
	"encoding/json"
	"time"
)

// EventName identifies what happened to a task.
type EventName string

const (
	EventCreated       EventName = "created"
	EventUpdated       EventName = "updated"
	EventCompleted     EventName = "completed"
	EventStatusChanged EventName = "status_changed"
	EventDeleted       EventName = "deleted"
)

// TaskEvent is one entry of a task's change history.
type TaskEvent struct {
	ID        string          `json:"id"`
	TaskID    string          `json:"todo_id"`
	Name      EventName       `json:"name"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// StatusChange is the payload recorded for status_changed events.
type StatusChange struct {
	From TaskStatus `json:"from"`
	To   TaskStatus `json:"to"`
}

// NewTaskEvent snapshots payload as JSON. Marshal failures leave the payload empty.
func NewTaskEvent(taskID string, name EventName, payload interface{}) TaskEvent {
	event := TaskEvent{
		TaskID:    taskID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			event.Payload = raw
		}
	}
	return event
}
