package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/pkg/httpcontext"
	forumUC "github.com/fastygo/planner/usecase/forum"
)

type ForumHandler struct {
	baseHandler
	uc *forumUC.UseCase
}

func NewForumHandler(uc *forumUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ForumHandler {
	return &ForumHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List forum topics
// @Tags forum
// @Router /api/v1/forum/topics [get]
func (h *ForumHandler) List(ctx *fasthttp.RequestCtx) {
	if h.ownerID(ctx) == "" {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondSuccess(ctx, http.StatusOK, h.uc.List(stdCtx, string(ctx.QueryArgs().Peek("subject"))))
}

// @Summary Open a topic
// @Tags forum
// @Router /api/v1/forum/topics/{id} [get]
func (h *ForumHandler) Get(ctx *fasthttp.RequestCtx) {
	if h.ownerID(ctx) == "" {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	topic, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, topic)
}

// @Summary Create a topic
// @Tags forum
// @Router /api/v1/forum/topics [post]
func (h *ForumHandler) Create(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	var req forumUC.TopicInput
	if !h.decode(ctx, &req) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	topic, err := h.uc.Create(stdCtx, owner, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, topic)
}

// @Summary Reply to a topic
// @Tags forum
// @Router /api/v1/forum/topics/{id}/replies [post]
func (h *ForumHandler) Reply(ctx *fasthttp.RequestCtx) {
	owner := h.ownerID(ctx)
	if owner == "" {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var req forumUC.ReplyInput
	if !h.decode(ctx, &req) {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	topic, err := h.uc.Reply(stdCtx, owner, id, req)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, topic)
}

// @Summary Like a topic
// @Tags forum
// @Router /api/v1/forum/topics/{id}/like [post]
func (h *ForumHandler) Like(ctx *fasthttp.RequestCtx) {
	if h.ownerID(ctx) == "" {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	topic, err := h.uc.Like(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, topic)
}
