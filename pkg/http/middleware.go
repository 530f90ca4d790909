package xhttp

import (
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/leasedesk/leasedesk/pkg/logger"
	"github.com/leasedesk/leasedesk/pkg/prom"
	"github.com/valyala/fasthttp"
)

const slowThreshold = 500 * time.Millisecond

const requestIDKey = "request_id"

var skipPaths = []string{"/health", "/metrics", "/api/v1/health"}

type MiddlewareFunc func(next RequestHandler) RequestHandler
type RequestCtx = fasthttp.RequestCtx
type RequestHandler = fasthttp.RequestHandler

func TimeoutMiddleware(timeout time.Duration) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return fasthttp.TimeoutWithCodeHandler(next, timeout, StatusText(StatusRequestTimeout), StatusRequestTimeout)
	}
}

func CompressMiddleware(level int) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return fasthttp.CompressHandlerBrotliLevel(next, level, level)
	}
}

func RecoverMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		defer func() {
			if err := recover(); err != nil {
				ctx.Error(StatusText(StatusInternalServerError), StatusInternalServerError)
				logger.Error("[xhttp] panic recovered", "error", err, "path", string(ctx.Path()), "request_id", RequestID(ctx))
			}
		}()
		next(ctx)
	}
}

// RequestIDMiddleware propagates X-Request-Id or mints one.
func RequestIDMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		rid := string(ctx.Request.Header.Peek("X-Request-Id"))
		if rid == "" {
			rid = uuid.NewString()
		}
		ctx.SetUserValue(requestIDKey, rid)
		ctx.Response.Header.Set("X-Request-Id", rid)
		next(ctx)
	}
}

// MetricsMiddleware records request counts and latency per matched route.
func MetricsMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		start := time.Now()
		next(ctx)
		route := routePath(ctx)
		prom.ObserveHTTPRequest(string(ctx.Method()), route, strconv.Itoa(ctx.Response.StatusCode()), time.Since(start).Seconds())
	}
}

func RequestLoggerMiddleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		if shouldSkip(path) {
			next(ctx)
			return
		}

		start := time.Now()
		next(ctx)

		latency := time.Since(start)
		status := ctx.Response.StatusCode()
		fields := []any{
			"status", status,
			"method", string(ctx.Method()),
			"path", path,
			"latency", latency.String(),
			"bytes_in", len(ctx.PostBody()),
			"bytes_out", len(ctx.Response.Body()),
			"ip", ctx.RemoteIP().String(),
			"request_id", RequestID(ctx),
		}

		lg := logger.GetLogger()
		switch {
		case status >= 500:
			lg.Error("http_request", fields...)
		case status >= 400 || latency > slowThreshold:
			lg.Warn("http_request", fields...)
		default:
			lg.Info("http_request", fields...)
		}
	}
}

func RequestID(ctx *fasthttp.RequestCtx) string {
	if v, ok := ctx.UserValue(requestIDKey).(string); ok {
		return v
	}
	return string(ctx.Request.Header.Peek("X-Request-Id"))
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(ctx *fasthttp.RequestCtx) string {
	h := string(ctx.Request.Header.Peek("Authorization"))
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func routePath(ctx *fasthttp.RequestCtx) string {
	if v, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok {
		return v
	}
	return "unmatched"
}

func shouldSkip(p string) bool {
	for _, sp := range skipPaths {
		if strings.HasPrefix(p, sp) {
			return true
		}
	}
	return false
}
