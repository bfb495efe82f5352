package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/pkg/todoclient"
)

// Fixture is the seed file layout.
type Fixture struct {
	Todos []FixtureTodo `yaml:"todos"`
}

// FixtureTodo describes one task. In is relative to the seeding time
// ("3d", "-2h", "90m"); Deadline is an absolute RFC 3339 timestamp and wins
// when both are set.
type FixtureTodo struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	In          string   `yaml:"in"`
	Deadline    string   `yaml:"deadline"`
	Status      string   `yaml:"status"`
	Priority    string   `yaml:"priority"`
	Tags        []string `yaml:"tags"`
}

func loadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixture Fixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, todo := range fixture.Todos {
		if strings.TrimSpace(todo.Title) == "" {
			return nil, fmt.Errorf("%s: todo #%d has no title", path, i+1)
		}
		if todo.In == "" && todo.Deadline == "" {
			return nil, fmt.Errorf("%s: todo %q needs in or deadline", path, todo.Title)
		}
	}
	return &fixture, nil
}

// Input resolves the fixture entry against now.
func (f FixtureTodo) Input(now time.Time) (todoclient.CreateInput, error) {
	var deadline time.Time
	if f.Deadline != "" {
		parsed, err := time.Parse(time.RFC3339, f.Deadline)
		if err != nil {
			return todoclient.CreateInput{}, fmt.Errorf("todo %q: %w", f.Title, err)
		}
		deadline = parsed
	} else {
		offset, err := parseOffset(f.In)
		if err != nil {
			return todoclient.CreateInput{}, fmt.Errorf("todo %q: %w", f.Title, err)
		}
		deadline = now.Add(offset)
	}

	return todoclient.CreateInput{
		Title:       f.Title,
		Description: f.Description,
		Deadline:    deadline.UTC(),
		Status:      domain.TaskStatus(strings.ToLower(f.Status)),
		Priority:    domain.Priority(strings.ToLower(f.Priority)),
		Tags:        f.Tags,
	}, nil
}

// parseOffset extends time.ParseDuration with a day unit ("3d", "-1d12h").
func parseOffset(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty offset")
	}

	sign := time.Duration(1)
	switch value[0] {
	case '-':
		sign = -1
		value = value[1:]
	case '+':
		value = value[1:]
	}

	var days time.Duration
	if idx := strings.IndexByte(value, 'd'); idx >= 0 {
		n, err := strconv.Atoi(value[:idx])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day count in %q", value)
		}
		days = time.Duration(n) * 24 * time.Hour
		value = value[idx+1:]
	}

	var rest time.Duration
	if value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return 0, err
		}
		if parsed < 0 {
			return 0, fmt.Errorf("sign must lead the offset")
		}
		rest = parsed
	}
	return sign * (days + rest), nil
}
