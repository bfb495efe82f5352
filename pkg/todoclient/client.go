// Package todoclient talks to the todoboard HTTP API.
package todoclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/todoboard/domain"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("todoclient: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// NotFound reports whether the server answered 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == fasthttp.StatusNotFound
}

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Doer is satisfied by *fasthttp.Client and *fasthttp.HostClient.
type Doer interface {
	DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error
}

type Client struct {
	baseURL string
	http    Doer
	timeout time.Duration
}

type Option func(*Client)

// WithDoer swaps the transport, e.g. for an in-memory listener.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.http = d }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &fasthttp.Client{Name: "todoboard-client"},
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListOptions mirror the list endpoint's query string.
type ListOptions struct {
	Status   domain.TaskStatus
	Page     int
	PageSize int
	NoPage   bool
}

func (o ListOptions) query() string {
	values := url.Values{}
	if o.Status != "" {
		values.Set("status", string(o.Status))
	}
	if o.Page > 0 {
		values.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(o.PageSize))
	}
	if o.NoPage {
		values.Set("no_page", "true")
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

// ListTasks fetches one listing, flat or paged depending on opts and the server.
func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (TaskListing, error) {
	raw, err := c.do(ctx, fasthttp.MethodGet, "/api/todos/"+opts.query(), nil)
	if err != nil {
		return TaskListing{}, err
	}
	return DecodeListing(raw)
}

// ListAll walks every page and returns the concatenated tasks.
func (c *Client) ListAll(ctx context.Context, status domain.TaskStatus) ([]domain.Task, error) {
	var all []domain.Task
	opts := ListOptions{Status: status, Page: 1}
	for {
		listing, err := c.ListTasks(ctx, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, listing.Tasks...)
		if !listing.HasNext() {
			return all, nil
		}
		opts.Page++
	}
}

func (c *Client) Get(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := c.call(ctx, fasthttp.MethodGet, taskPath(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateInput is the create payload.
type CreateInput struct {
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Deadline    time.Time         `json:"deadline"`
	Status      domain.TaskStatus `json:"status,omitempty"`
	Priority    domain.Priority   `json:"priority,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
}

func (c *Client) Create(ctx context.Context, in CreateInput) (*domain.Task, error) {
	var task domain.Task
	if err := c.call(ctx, fasthttp.MethodPost, "/api/todos/", in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// PatchInput sends only non-nil fields.
type PatchInput struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Deadline    *time.Time         `json:"deadline,omitempty"`
	Status      *domain.TaskStatus `json:"status,omitempty"`
	Priority    *domain.Priority   `json:"priority,omitempty"`
	Tags        *[]string          `json:"tags,omitempty"`
}

func (c *Client) Patch(ctx context.Context, id string, in PatchInput) (*domain.Task, error) {
	var task domain.Task
	if err := c.call(ctx, fasthttp.MethodPatch, taskPath(id), in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, fasthttp.MethodDelete, taskPath(id), nil)
	return err
}

func (c *Client) MarkComplete(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := c.call(ctx, fasthttp.MethodPatch, taskPath(id)+"mark_complete/", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) CompletionStats(ctx context.Context) (*domain.CompletionStats, error) {
	var stats domain.CompletionStats
	if err := c.call(ctx, fasthttp.MethodGet, "/api/analytics/completion-stats/", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) ActivityHeatmap(ctx context.Context) (*domain.ActivityHeatmap, error) {
	var heat domain.ActivityHeatmap
	if err := c.call(ctx, fasthttp.MethodGet, "/api/analytics/activity-heatmap/", nil, &heat); err != nil {
		return nil, err
	}
	return &heat, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, dest interface{}) error {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if dest == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("todoclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

// do performs the request and returns the envelope's data field.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("todoclient: encode body: %w", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(payload)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("todoclient: %s %s: %w", method, path, err)
	}

	status := resp.StatusCode()
	if status == fasthttp.StatusNoContent {
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		if status >= 300 {
			return nil, &APIError{StatusCode: status, Message: string(resp.Body())}
		}
		return nil, fmt.Errorf("todoclient: decode envelope: %w", err)
	}
	if status >= 300 || env.Status == "error" {
		return nil, &APIError{StatusCode: status, Code: env.Code, Message: env.Message}
	}
	return env.Data, nil
}

func taskPath(id string) string {
	return "/api/todos/" + url.PathEscape(id) + "/"
}
