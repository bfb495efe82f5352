// Package memory holds mutex-guarded in-process repositories. They back the
// STORAGE=memory development mode and the usecase tests.
package memory

import (
	"sync"
	"time"

	"github.com/fastygo/todoboard/domain"
)

// Store is the shared state behind the memory repositories.
type Store struct {
	mu     sync.RWMutex
	tasks  map[string]domain.Task
	events []domain.TaskEvent
	clock  func() time.Time
}

func NewStore() *Store {
	return &Store{
		tasks: make(map[string]domain.Task),
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source used for createdAt/updatedAt.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

func cloneTask(task domain.Task) domain.Task {
	if task.Tags != nil {
		task.Tags = append([]string(nil), task.Tags...)
	} else {
		task.Tags = []string{}
	}
	return task
}
