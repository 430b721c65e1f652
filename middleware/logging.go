// Package middleware provides request/response hooks built on top of the
// hook.Registry signatures: structured access logging, Prometheus request
// metrics, request-ID correlation, and per-key rate limiting.
//
// Grounded on the teacher's highlevel/server.go built-ins (LoggingMiddleware,
// RecoveryMiddleware, MetricsMiddleware), generalized from its
// func(next func(*Conn)) func(*Conn) chain shape to this framework's
// independently-registered, priority-ordered RequestMiddleware/
// ResponseMiddleware hooks, and on rivaas-dev-rivaas's requestid and
// ratelimit middleware packages for the two built-ins the teacher has no
// counterpart for.
package middleware

import (
	"time"

	"github.com/kestrelhttp/kestrel/logging"
	"github.com/kestrelhttp/kestrel/reqctx"
)

const attrRequestStart = "kestrel.request_start"

// RequestTimer is a RequestMiddleware that records the arrival time so
// Logging and Metrics (or any later hook) can compute handling duration.
func RequestTimer(ctx *reqctx.Context) {
	reqctx.SetAttribute(ctx, attrRequestStart, time.Now())
}

// Logging returns a ResponseMiddleware that logs one line per request:
// method, path, status, and elapsed time since RequestTimer ran (elapsed is
// omitted if RequestTimer was never registered).
//
// Grounded on the teacher's LoggingMiddleware ("[LOG] ... started"/"...
// ended" around the handler call), adapted from a wrapped-handler shape to
// a single post-handler hook since this framework logs once per request
// rather than once per long-lived connection.
func Logging(logger *logging.Logger) func(ctx *reqctx.Context) {
	if logger == nil {
		logger = logging.Default
	}
	return func(ctx *reqctx.Context) {
		req := ctx.Request()
		resp := ctx.Response()
		if req == nil {
			return
		}
		fields := []any{"method", req.Method, "path", req.Path, "status", resp.StatusCode, "remote_addr", ctx.RemoteAddr()}
		if start, ok := reqctx.GetAttribute[time.Time](ctx, attrRequestStart); ok {
			fields = append(fields, "elapsed", time.Since(start))
		}
		logger.Info("request", fields...)
	}
}
