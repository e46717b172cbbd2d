package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/planner/pkg/logger"
)

func TestAttachPropagatesRequestMetadata(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set("X-Request-ID", "abc")
	rc.Request.Header.SetUserAgent("planner-test")
	rc.SetUserValue(UserValueOwnerID, "user-1")

	ctx, cancel := NewAdapter(time.Second).Attach(&rc)
	defer cancel()

	assert.Equal(t, "abc", string(rc.Response.Header.Peek("X-Request-ID")))
	assert.Equal(t, "user-1", appLogger.OwnerIDFrom(ctx))
	assert.Equal(t, "planner-test", ctx.Value(KeyUserAgent))
	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 200*time.Millisecond)
}

func TestAttachGeneratesRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx
	ctx, cancel := NewAdapter(0).AttachWithTimeout(&rc, time.Minute)
	defer cancel()

	assert.NotEmpty(t, rc.Response.Header.Peek("X-Request-ID"))
	assert.Empty(t, OwnerID(&rc))
	deadline, _ := ctx.Deadline()
	assert.True(t, time.Until(deadline) > 30*time.Second)
}
