package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/api/transport"
	"github.com/fastygo/planner/domain"
	"github.com/fastygo/planner/pkg/httpcontext"
)

const authTimeout = 3 * time.Second

// Authenticator resolves a bearer token into its user and session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (userID, sessionID string, err error)
}

// JWTAuth rejects requests without a valid token whose session is still live.
func JWTAuth(auth Authenticator, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			stdCtx, cancel := context.WithTimeout(context.Background(), authTimeout)
			userID, sessionID, err := auth.Authenticate(stdCtx, tokenString)
			cancel()
			if err != nil {
				if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					logger.Error("token verification failed", zap.Error(err))
					respond(ctx, fasthttp.StatusServiceUnavailable,
						transport.NewError(string(domain.ErrCodeUnavailable), "session store unavailable", nil))
					return
				}
				logger.Debug("rejected token", zap.Error(err))
				unauthorized(ctx, err.Error())
				return
			}

			ctx.SetUserValue(httpcontext.UserValueOwnerID, userID)
			ctx.SetUserValue(httpcontext.UserValueSessionID, sessionID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	ctx.Response.Header.Set("WWW-Authenticate", "Bearer")
	respond(ctx, fasthttp.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), message, nil))
}

func respond(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	body, _ := json.Marshal(payload)
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
