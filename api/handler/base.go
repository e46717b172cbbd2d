package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/httpcontext"
	appLogger "github.com/fastygo/planner/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

// longRequestContext is requestContext for routes that outlive the default deadline.
func (h baseHandler) longRequestContext(ctx *fasthttp.RequestCtx, timeout time.Duration) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.AttachWithTimeout(ctx, timeout)
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	h.respondErrorStatus(ctx, status, code, err)
}

func (h baseHandler) respondErrorStatus(ctx *fasthttp.RequestCtx, status int, code string, err error) {
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.log(ctx).Error("request failed", zap.Int("status", status), zap.Error(err))
		if code == string(domain.ErrCodeInternal) {
			message = "internal error"
		}
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		h.respondJSON(ctx, status, transport.NewFieldError(code, message, vErr.FieldMap()))
		return
	}
	h.respondJSON(ctx, status, transport.NewError(code, message, nil))
}

func (h baseHandler) invalid(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), message, nil))
}

// decode reads the JSON body into v and answers 400 on failure.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, v interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		h.invalid(ctx, "invalid payload")
		return false
	}
	return true
}

// ownerID answers 401 when the route was reached without an authenticated user.
func (h baseHandler) ownerID(ctx *fasthttp.RequestCtx) string {
	owner := httpcontext.OwnerID(ctx)
	if owner == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing user", nil))
	}
	return owner
}

func (h baseHandler) pathID(ctx *fasthttp.RequestCtx) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.invalid(ctx, "invalid id")
		return 0, false
	}
	return id, true
}

func (h baseHandler) log(ctx *fasthttp.RequestCtx) *zap.Logger {
	logger := h.logger
	if reqID := string(ctx.Response.Header.Peek("X-Request-ID")); reqID != "" {
		logger = logger.With(zap.String("request_id", reqID))
	}
	if owner := httpcontext.OwnerID(ctx); owner != "" {
		logger = logger.With(zap.String("owner_id", owner))
	}
	return logger
}

func (h baseHandler) logWith(stdCtx context.Context) *zap.Logger {
	return appLogger.FromContext(stdCtx, h.logger)
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	case domain.IsDomainError(err, domain.ErrCodeUnavailable):
		return http.StatusServiceUnavailable, string(domain.ErrCodeUnavailable)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}
