package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todoboard/api/transport"
	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/pkg/httpcontext"
	taskUC "github.com/fastygo/todoboard/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List todos
// @Tags todos
// @Router /api/todos/ [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	query := taskUC.ListQuery{
		Status:   domain.TaskStatus(args.Peek("status")),
		Page:     parseInt(string(args.Peek("page")), 1),
		PageSize: parseInt(string(args.Peek("page_size")), taskUC.DefaultPageSize),
		NoPage:   args.GetBool("no_page"),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	page, err := h.uc.ListTasks(stdCtx, query)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	if !page.Paged {
		h.respondSuccess(ctx, http.StatusOK, page.Tasks)
		return
	}

	list := transport.TaskList{Count: page.Count, Results: page.Tasks}
	if page.HasNext() {
		next := pageURL(ctx, page.Page+1)
		list.Next = &next
	}
	if page.HasPrevious() {
		previous := pageURL(ctx, page.Page-1)
		list.Previous = &previous
	}
	h.respondSuccess(ctx, http.StatusOK, list)
}

// @Summary Create todo
// @Tags todos
// @Router /api/todos/ [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := req.ToTask()
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	created, err := h.uc.CreateTask(stdCtx, task)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get todo
// @Tags todos
// @Router /api/todos/{id}/ [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, pathID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Replace todo
// @Tags todos
// @Router /api/todos/{id}/ [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := req.ToTask()
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	updated, err := h.uc.UpdateTask(stdCtx, pathID(ctx), task)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Patch todo
// @Tags todos
// @Router /api/todos/{id}/ [patch]
func (h *TaskHandler) PatchTask(ctx *fasthttp.RequestCtx) {
	var req transport.TaskPatchRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patch, err := req.ToPatch()
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	updated, err := h.uc.PatchTask(stdCtx, pathID(ctx), patch)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Mark todo complete
// @Tags todos
// @Router /api/todos/{id}/mark_complete/ [patch]
func (h *TaskHandler) MarkComplete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.MarkComplete(stdCtx, pathID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Delete todo
// @Tags todos
// @Router /api/todos/{id}/ [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, pathID(ctx)); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Todo history
// @Tags todos
// @Router /api/todos/{id}/history/ [get]
func (h *TaskHandler) History(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	events, err := h.uc.History(stdCtx, pathID(ctx))
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, events)
}

// pageURL rebuilds the request URI with page replaced.
func pageURL(ctx *fasthttp.RequestCtx, page int) string {
	var uri fasthttp.URI
	ctx.URI().CopyTo(&uri)
	uri.QueryArgs().Set("page", strconv.Itoa(page))
	return string(uri.FullURI())
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
