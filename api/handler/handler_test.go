package handler_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/todoboard/api/handler"
	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/internal/infrastructure/monitor"
	"github.com/fastygo/todoboard/internal/router"
	"github.com/fastygo/todoboard/pkg/heatmap"
	"github.com/fastygo/todoboard/pkg/httpcontext"
	"github.com/fastygo/todoboard/repository/memory"
	analyticsUC "github.com/fastygo/todoboard/usecase/analytics"
	taskUC "github.com/fastygo/todoboard/usecase/task"
)

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status { return monitor.Status(s) }

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type pagedBody struct {
	Count    int           `json:"count"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous"`
	Results  []domain.Task `json:"results"`
}

func newServer(t *testing.T, health monitor.Status) fasthttp.RequestHandler {
	t.Helper()
	store := memory.NewStore()
	analytics := analyticsUC.New(memory.NewAnalyticsRepository(store), memory.NewCacheRepository(), heatmap.NewMemo(0), analyticsUC.Config{}, nil)
	tasks := taskUC.New(memory.NewTaskRepository(store), memory.NewEventRepository(store), nil, analytics, nil)
	adapter := httpcontext.NewAdapter(time.Second)

	r := router.New(router.Handlers{
		Task:      apiHandler.NewTaskHandler(tasks, adapter, nil),
		Analytics: apiHandler.NewAnalyticsHandler(analytics, adapter, nil),
		Health:    apiHandler.NewHealthHandler(staticStatus(health), adapter, nil),
	})
	return r.Handler
}

func call(t *testing.T, h fasthttp.RequestHandler, method, uri, body string) (int, envelope, *fasthttp.Response) {
	t.Helper()
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI("http://todoboard.test" + uri)
	if body != "" {
		req.Header.SetContentType("application/json")
		req.SetBodyString(body)
	}

	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	h(&ctx)

	var env envelope
	if raw := ctx.Response.Body(); len(raw) > 0 && ctx.Response.StatusCode() != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	resp := &fasthttp.Response{}
	ctx.Response.CopyTo(resp)
	return ctx.Response.StatusCode(), env, resp
}

func deadline(d time.Duration) string {
	return time.Now().UTC().Add(d).Format(time.RFC3339)
}

func createTask(t *testing.T, h fasthttp.RequestHandler, title string, in time.Duration) domain.Task {
	t.Helper()
	status, env, _ := call(t, h, "POST", "/api/todos/",
		`{"title":"`+title+`","deadline":"`+deadline(in)+`","tags":["work"," work ",""]}`)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var task domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &task))
	return task
}

func TestCreateTask(t *testing.T) {
	h := newServer(t, monitor.Status{Store: true})

	task := createTask(t, h, "write report", 48*time.Hour)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, domain.StatusOngoing, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, []string{"work"}, task.Tags)

	overdue := createTask(t, h, "already late", -time.Hour)
	assert.Equal(t, domain.StatusFailure, overdue.Status)
}

func TestCreateTaskValidation(t *testing.T) {
	h := newServer(t, monitor.Status{Store: true})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"title":`},
		{"missing title", `{"title":"  ","deadline":"` + deadline(time.Hour) + `"}`},
		{"missing deadline", `{"title":"x"}`},
		{"bad deadline", `{"title":"x","deadline":"tomorrow"}`},
		{"bad priority", `{"title":"x","deadline":"` + deadline(time.Hour) + `","priority":"urgent"}`},
		{"long title", `{"title":"` + strings.Repeat("a", 201) + `","deadline":"` + deadline(time.Hour) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env, _ := call(t, h, "POST", "/api/todos/", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "error", env.Status)
			assert.Equal(t, string(domain.ErrCodeInvalid), env.Code)
		})
	}
}

func TestListTasksPagination(t *testing.T) {
	h := newServer(t, monitor.Status{Store: true})
	for _, title := range []string{"a", "b", "c"} {
		createTask(t, h, title, time.Hour)
	}

	status, env, _ := call(t, h, "GET", "/api/todos/?page_size=2", "")
	require.Equal(t, http.StatusOK, status)
	var first pagedBody
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Equal(t, 3, first.Count)
	assert.Len(t, first.Results, 2)
	require.NotNil(t, first.Next)
	assert.Contains(t, *first.Next, "page=2")
	assert.Nil(t, first.Previous)

	status, env, _ = call(t, h, "GET", "/api/todos/?page=2&page_size=2", "")
	require.Equal(t, http.StatusOK, status)
	var second pagedBody
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.Len(t, second.Results, 1)
	assert.Nil(t, second.Next)
	assert.NotNil(t, second.Previous)

	status, _, _ = call(t, h, "GET", "/api/todos/?page=9&page_size=2", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, env, _ = call(t, h, "GET", "/api/todos/?no_page=true", "")
	require.Equal(t, http.StatusOK, status)
	var flat []domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &flat))
	assert.Len(t, flat, 3)
}

func TestListTasksStatusFilter(t *testing.T) {
	h := newServer(t, monitor.Status{Store: true})
	createTask(t, h, "open", time.Hour)
	createTask(t, h, "late", -time.Hour)

	status, env, _ := call(t, h, "GET", "/api/todos/?status=failure&no_page=1", "")
	require.Equal(t, http.StatusOK, status)
	var flat []domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &flat))
	require.Len(t, flat, 1)
	assert.Equal(t, "late", flat[0].Title)

	status, _, _ = call(t, h, "GET", "/api/todos/?status=done", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestTaskLifecycle(t *testing.T) {
	h := newServer(t, monitor.Status{Store: true})
	task := createTask(t, h, "late", -time.Hour)
	path := "/api/todos/" + task.ID + "/"

	status, env, _ := call(t, h, "PATCH", path, `{"deadline":"`+deadline(24*time.Hour)+`"}`)
	require.Equal(t, http.StatusOK, status, env.Message)
	var patched domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &patched))
	assert.Equal(t, domain.StatusOngoing, patched.Status)

	status, _, _ = call(t, h, "PATCH", path, `{"status":"paused"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env, _ = call(t, h, "PUT", path,
		`{"title":"renamed","description":"d","deadline":"`+deadline(time.Hour)+`","priority":"high"}`)
	require.Equal(t, http.StatusOK, status, env.Message)
	var replaced domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &replaced))
	assert.Equal(t, "renamed", replaced.Title)
	assert.Equal(t, domain.PriorityHigh, replaced.Priority)
	assert.Empty(t, replaced.Tags)

	status, env, _ = call(t, h, "PATCH", path+"mark_complete/", "")
	require.Equal(t, http.StatusOK, status)
	var done domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, domain.StatusSuccess, done.Status)

	status, _, _ = call(t, h, "DELETE", path, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, env, _ = call(t, h, "GET", path, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, string(domain.ErrCodeNotFound), env.Code)

	status, env, _ = call(t, h, "GET", path+"history/", "")
	require.Equal(t, http.StatusOK, status)
	var events []domain.TaskEvent
	require.NoError(t, json.Unmarshal(env.Data, &events))
	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventCreated, events[0].Name)
	assert.Equal(t, domain.EventDeleted, events[len(events)-1].Name)
}

func TestUnknownTask(t *testing.T) {
	h := newServer(t, monitor.Status{Store: true})
	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/todos/missing/"},
		{"DELETE", "/api/todos/missing/"},
		{"PATCH", "/api/todos/missing/mark_complete/"},
		{"GET", "/api/todos/missing/history/"},
	} {
		status, _, _ := call(t, h, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, status, tc.method+" "+tc.path)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	h := newServer(t, monitor.Status{Store: true})
	_, _, resp := call(t, h, "GET", "/api/todos/", "")
	assert.NotEmpty(t, resp.Header.Peek(httpcontext.RequestIDHeader))
}

func TestAnalyticsEndpoints(t *testing.T) {
	h := newServer(t, monitor.Status{Store: true})

	status, env, _ := call(t, h, "GET", "/api/analytics/activity-heatmap/", "")
	require.Equal(t, http.StatusOK, status)
	var empty domain.ActivityHeatmap
	require.NoError(t, json.Unmarshal(env.Data, &empty))
	assert.True(t, empty.Synthetic)
	assert.Len(t, empty.Days, heatmap.DefaultFallbackDays)

	task := createTask(t, h, "ship", time.Hour)
	call(t, h, "PATCH", "/api/todos/"+task.ID+"/mark_complete/", "")

	status, env, _ = call(t, h, "GET", "/api/analytics/completion-stats/", "")
	require.Equal(t, http.StatusOK, status)
	var stats domain.CompletionStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, []domain.StatusCount{{Status: domain.StatusSuccess, Count: 1}}, stats.StatusDistribution)
	assert.NotEmpty(t, stats.WeeklyCompletion)

	status, env, _ = call(t, h, "GET", "/api/analytics/activity-heatmap/", "")
	require.Equal(t, http.StatusOK, status)
	var filled domain.ActivityHeatmap
	require.NoError(t, json.Unmarshal(env.Data, &filled))
	assert.False(t, filled.Synthetic)

	for _, path := range []string{"/api/analytics/productivity-patterns/", "/api/analytics/duration-analysis/"} {
		status, env, _ = call(t, h, "GET", path, "")
		assert.Equal(t, http.StatusOK, status, path)
		assert.Equal(t, "success", env.Status)
	}
}

func TestHealth(t *testing.T) {
	status, env, _ := call(t, newServer(t, monitor.Status{Store: true, Buffer: true}), "GET", "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", env.Status)

	status, env, _ = call(t, newServer(t, monitor.Status{Cache: true}), "GET", "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "DEGRADED", env.Code)
}
