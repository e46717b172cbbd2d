package handler

import (
	"bufio"
	"errors"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/httpcontext"
	chatUC "github.com/fastygo/planner/usecase/chat"
)

const codeUpstream = "UPSTREAM"

type ChatHandler struct {
	baseHandler
	relay   *chatUC.Relay
	timeout time.Duration
}

// NewChatHandler serves the assistant stream. timeout bounds the whole reply.
func NewChatHandler(relay *chatUC.Relay, timeout time.Duration, adapter *httpcontext.Adapter, logger *zap.Logger) *ChatHandler {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &ChatHandler{
		baseHandler: newBaseHandler(adapter, logger),
		relay:       relay,
		timeout:     timeout,
	}
}

// @Summary Stream an assistant reply as plain text
// @Tags chat
// @Router /api/chat [post]
func (h *ChatHandler) Chat(ctx *fasthttp.RequestCtx) {
	var req transport.ChatRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.longRequestContext(ctx, h.timeout)
	reply, err := h.relay.Open(stdCtx, req.Messages)
	if err != nil {
		cancel()
		switch {
		case errors.Is(err, domain.ErrFeatureDisabled):
			h.respondError(ctx, err)
		case domain.IsDomainError(err, domain.ErrCodeUnavailable):
			h.respondErrorStatus(ctx, http.StatusBadGateway, codeUpstream, err)
		default:
			h.respondError(ctx, err)
		}
		return
	}

	logger := h.logWith(stdCtx)
	ctx.Response.Header.SetContentType("text/plain; charset=utf-8")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("X-Accel-Buffering", "no")
	ctx.SetStatusCode(http.StatusOK)
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer reply.Close()

		err := reply.Pipe(func(text string) error {
			if _, err := w.WriteString(text); err != nil {
				return err
			}
			return w.Flush()
		})
		if err != nil {
			logger.Warn("assistant stream ended early", zap.Error(err))
			return
		}
		logger.Debug("assistant stream completed")
	})
}
