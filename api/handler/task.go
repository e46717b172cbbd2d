package handler

import (
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/httpcontext"
	taskUC "github.com/fastygo/planner/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc           *taskUC.UseCase
	upcomingDays int
}

func NewTaskHandler(uc *taskUC.UseCase, upcomingDays int, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler:  newBaseHandler(adapter, logger),
		uc:           uc,
		upcomingDays: upcomingDays,
	}
}

// @Summary List tasks matching the planner filter
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.Filter(stdCtx, owner, transport.TaskFilterFromQuery(ctx.QueryArgs()))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if pending := h.uc.PendingWrites(stdCtx, owner); pending > 0 {
		h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(tasks, transport.ListMeta{PendingWrites: pending}))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	var task domain.Task
	if !h.decode(ctx, &task) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Add(stdCtx, owner, &task)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Get(stdCtx, owner, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Replace task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var task domain.Task
	if !h.decode(ctx, &task) {
		return
	}
	if task.ID != 0 && task.ID != id {
		h.invalid(ctx, "task id does not match path")
		return
	}
	task.ID = id

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, owner, &task)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Remove(stdCtx, owner, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Duplicate task
// @Tags tasks
// @Router /api/v1/tasks/{id}/duplicate [post]
func (h *TaskHandler) Duplicate(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	dup, err := h.uc.Duplicate(stdCtx, owner, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, dup)
}

// @Summary Toggle completion
// @Tags tasks
// @Router /api/v1/tasks/{id}/toggle [post]
func (h *TaskHandler) Toggle(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.ToggleStatus(stdCtx, owner, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Tasks due soon
// @Tags tasks
// @Router /api/v1/tasks/upcoming [get]
func (h *TaskHandler) Upcoming(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	days := transport.IntArg(ctx.QueryArgs(), "days", h.upcomingDays)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.Upcoming(stdCtx, owner, days)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Dashboard statistics over the filtered tasks
// @Tags tasks
// @Router /api/v1/tasks/stats [get]
func (h *TaskHandler) Stats(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stats, err := h.uc.Stats(stdCtx, owner, transport.TaskFilterFromQuery(ctx.QueryArgs()))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, stats)
}

// @Summary Download all tasks as a JSON document
// @Tags tasks
// @Router /api/v1/tasks/export [get]
func (h *TaskHandler) Export(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	doc, err := h.uc.Export(stdCtx, owner)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Response.Header.SetContentType("application/json; charset=utf-8")
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBody(doc.Body)
}

// @Summary Import a task document
// @Tags tasks
// @Router /api/v1/tasks/import [post]
func (h *TaskHandler) Import(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	report, err := h.uc.Import(stdCtx, owner, ctx.PostBody())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.logWith(stdCtx).Info("tasks imported",
		zap.Int("imported", len(report.Imported)),
		zap.Int("rejected", len(report.Rejected)),
	)
	h.respondSuccess(ctx, http.StatusOK, report)
}
