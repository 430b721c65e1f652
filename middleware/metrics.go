package middleware

import (
	"time"

	"github.com/kestrelhttp/kestrel/metrics"
	"github.com/kestrelhttp/kestrel/reqctx"
)

// Metrics returns a ResponseMiddleware that feeds rec.ObserveRequest with
// each request's status code and the elapsed time since RequestTimer ran.
// Register RequestTimer as a request middleware before this for duration
// tracking; without it, duration is reported as zero.
//
// Grounded on the teacher's MetricsMiddleware (atomic active-connection
// counter logged around the handler call), generalized to Prometheus
// collectors via metrics.Recorder instead of a package-level atomic int64.
func Metrics(rec *metrics.Recorder) func(ctx *reqctx.Context) {
	return func(ctx *reqctx.Context) {
		resp := ctx.Response()
		var elapsed time.Duration
		if start, ok := reqctx.GetAttribute[time.Time](ctx, attrRequestStart); ok {
			elapsed = time.Since(start)
		}
		rec.ObserveRequest(resp.StatusCode, elapsed)
	}
}
