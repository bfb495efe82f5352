package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityTask  = "task"
	EntityEvent = "task_event"

	OperationCreate = "create"
	OperationUpdate = "update"
	OperationStatus = "status"
	OperationDelete = "delete"
)

// Replay priorities; lower keys drain first.
const (
	PriorityUrgent = 1
	PriorityNormal = 3
	PriorityLow    = 5
)

// Item is a task write that failed against the primary store and waits for replay.
type Item struct {
	ID        string          `json:"id"`
	EntityID  string          `json:"entity_id"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority < PriorityUrgent || i.Priority > PriorityLow {
		i.Priority = PriorityNormal
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
