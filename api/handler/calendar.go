package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/pkg/httpcontext"
	calendarUC "github.com/fastygo/planner/usecase/calendar"
)

const syncTimeout = time.Minute

type CalendarHandler struct {
	baseHandler
	uc *calendarUC.UseCase
}

func NewCalendarHandler(uc *calendarUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Month or week grid of filtered tasks
// @Tags calendar
// @Router /api/v1/calendar [get]
func (h *CalendarHandler) View(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	query, err := transport.CalendarQueryFromArgs(ctx.QueryArgs())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	mode, err := calendarUC.ParseMode(query.Mode)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	nav, err := calendarUC.ParseDirection(query.Nav)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	grid, err := h.uc.View(stdCtx, owner, calendarUC.ViewRequest{
		Mode:   mode,
		Date:   query.Date,
		Nav:    nav,
		Filter: query.Filter,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, grid)
}

// @Summary Download a task as an iCalendar event
// @Tags calendar
// @Router /api/v1/tasks/{id}/calendar.ics [get]
func (h *CalendarHandler) TaskICS(ctx *fasthttp.RequestCtx) {
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

	ics, err := h.uc.TaskICS(stdCtx, owner, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Response.Header.SetContentType("text/calendar; charset=utf-8")
	ctx.Response.Header.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tarea_%d.ics"`, id))
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBodyString(ics)
}

// @Summary Publish open tasks to Google Calendar
// @Tags calendar
// @Router /api/v1/calendar/sync [post]
func (h *CalendarHandler) Sync(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	stdCtx, cancel := h.longRequestContext(ctx, syncTimeout)
	defer cancel()

	result, err := h.uc.Sync(stdCtx, owner)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}
