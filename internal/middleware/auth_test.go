package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/httpcontext"
)

type stubAuth struct {
	err   error
	token string
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (string, string, error) {
	s.token = token
	if s.err != nil {
		return "", "", s.err
	}
	return "u1", "s1", nil
}

func serve(auth Authenticator, header string) (*fasthttp.RequestCtx, bool) {
	ctx := &fasthttp.RequestCtx{}
	if header != "" {
		ctx.Request.Header.Set("Authorization", header)
	}
	called := false
	JWTAuth(auth, nil)(func(ctx *fasthttp.RequestCtx) {
		called = true
		ctx.SetStatusCode(fasthttp.StatusOK)
	})(ctx)
	return ctx, called
}

func envelope(t *testing.T, ctx *fasthttp.RequestCtx) transport.Envelope {
	t.Helper()
	var env transport.Envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func TestJWTAuthSetsOwner(t *testing.T) {
	auth := &stubAuth{}
	ctx, called := serve(auth, "Bearer abc.def")

	require.True(t, called)
	assert.Equal(t, "abc.def", auth.token)
	assert.Equal(t, "u1", httpcontext.OwnerID(ctx))
	assert.Equal(t, "s1", httpcontext.SessionID(ctx))
}

func TestJWTAuthMissingToken(t *testing.T) {
	ctx, called := serve(&stubAuth{}, "")

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Equal(t, string(domain.ErrCodeUnauthorized), envelope(t, ctx).Code)
}

func TestJWTAuthRevokedSession(t *testing.T) {
	ctx, called := serve(&stubAuth{err: domain.WrapError(domain.ErrCodeUnauthorized, "session revoked or expired", domain.ErrSessionNotFound)}, "Bearer x")

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Equal(t, "error", envelope(t, ctx).Status)
}

func TestJWTAuthStoreFailure(t *testing.T) {
	ctx, called := serve(&stubAuth{err: errors.New("redis down")}, "Bearer x")

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())
}
