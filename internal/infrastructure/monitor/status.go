package monitor

import "time"

type Status struct {
	Store      bool      `json:"store"`
	Cache      bool      `json:"cache"`
	Buffer     bool      `json:"buffer"`
	BufferSize int       `json:"buffer_size"`
	LastCheck  time.Time `json:"last_check"`
}
