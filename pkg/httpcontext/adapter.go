package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/planner/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
)

// UserValueOwnerID is the fasthttp user value set by the auth middleware.
const UserValueOwnerID = "owner_id"

// UserValueSessionID carries the session backing the access token.
const UserValueSessionID = "session_id"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach derives a context bounded by the adapter's default timeout.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return a.AttachWithTimeout(ctx, a.timeout)
}

// AttachWithTimeout is Attach with a per-route deadline, used by long-lived streams.
func (a *Adapter) AttachWithTimeout(ctx *fasthttp.RequestCtx, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = a.timeout
	}
	stdCtx, cancel := context.WithTimeout(context.Background(), timeout)

	reqID := getRequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set("X-Request-ID", reqID)

	if owner := OwnerID(ctx); owner != "" {
		stdCtx = appLogger.ContextWithOwnerID(stdCtx, owner)
	}
	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	return stdCtx, cancel
}

// OwnerID returns the authenticated user id, or "" on public routes.
func OwnerID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(UserValueOwnerID).(string)
	return id
}

func SessionID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(UserValueSessionID).(string)
	return id
}

func getRequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if header := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID"))); header != "" {
		return header
	}
	return uuid.NewString()
}
