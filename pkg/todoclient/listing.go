package todoclient

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fastygo/todoboard/domain"
)

// ListingKind tells which shape the server answered a listing with.
type ListingKind int

const (
	KindFlat ListingKind = iota + 1
	KindPaged
)

func (k ListingKind) String() string {
	switch k {
	case KindFlat:
		return "flat"
	case KindPaged:
		return "paged"
	}
	return "unknown"
}

// TaskListing is a task listing in either shape. Tasks is always set;
// Count, Next and Previous are only meaningful for KindPaged.
type TaskListing struct {
	Kind     ListingKind
	Tasks    []domain.Task
	Count    int
	Next     string
	Previous string
}

// HasNext reports whether another page can be fetched.
func (l TaskListing) HasNext() bool {
	return l.Kind == KindPaged && l.Next != ""
}

type pagedWire struct {
	Count    int           `json:"count"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous"`
	Results  []domain.Task `json:"results"`
}

// DecodeListing accepts a bare JSON array or a paged object.
func DecodeListing(raw []byte) (TaskListing, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return TaskListing{}, fmt.Errorf("todoclient: empty listing")
	}

	switch trimmed[0] {
	case '[':
		var tasks []domain.Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return TaskListing{}, fmt.Errorf("todoclient: decode flat listing: %w", err)
		}
		if tasks == nil {
			tasks = []domain.Task{}
		}
		return TaskListing{Kind: KindFlat, Tasks: tasks, Count: len(tasks)}, nil
	case '{':
		var page pagedWire
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return TaskListing{}, fmt.Errorf("todoclient: decode paged listing: %w", err)
		}
		listing := TaskListing{Kind: KindPaged, Tasks: page.Results, Count: page.Count}
		if listing.Tasks == nil {
			listing.Tasks = []domain.Task{}
		}
		if page.Next != nil {
			listing.Next = *page.Next
		}
		if page.Previous != nil {
			listing.Previous = *page.Previous
		}
		return listing, nil
	}
	return TaskListing{}, fmt.Errorf("todoclient: unexpected listing shape %q", trimmed[:1])
}
