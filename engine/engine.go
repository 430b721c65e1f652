// Package engine implements the per-connection lifecycle loop described in
// spec §4.5: accept -> parse -> request middleware -> route -> response
// middleware -> send -> keep-alive-or-close, with panics at any step routed
// through the panic bridge.
//
// Grounded on the teacher's lowlevel/server/run.go accept-and-dispatch loop
// and handler_chain.go middleware composition, generalized from a
// reactor/poller event model to the spec's synchronous per-connection
// state machine.
package engine

import (
	"time"

	"github.com/kestrelhttp/kestrel/api"
	"github.com/kestrelhttp/kestrel/hook"
	"github.com/kestrelhttp/kestrel/panicbridge"
	"github.com/kestrelhttp/kestrel/reqctx"
	"github.com/kestrelhttp/kestrel/route"
)

// RouteHandler is the signature route handlers are registered with.
type RouteHandler func(ctx *reqctx.Context)

// Resolver looks up a route handler for a path. *route.Matcher satisfies
// this; it is narrowed to an interface so the engine does not need to know
// about Matcher's registration-time API.
type Resolver interface {
	Resolve(path string) (handler any, params route.Params, ok bool)
}

// Config bounds the per-connection loop. The loop applies HTTPBufferSize (to
// the external parser) and HTTPReadTimeout (as a read deadline before each
// request); WSBufferSize and WSReadTimeout are carried but not applied, so
// reads after a WebSocket upgrade have no deadline set by the engine.
type Config struct {
	HTTPBufferSize int
	WSBufferSize   int
	HTTPReadTimeout time.Duration
	WSReadTimeout   time.Duration
}

// Collaborators bundles the external, out-of-scope collaborators the
// engine drives but does not implement (spec §6).
type Collaborators struct {
	Parser       api.RequestParser
	Encoder      api.ResponseEncoder
	FrameEncoder api.FrameEncoder
	AcceptKeyGen api.AcceptKeyGenerator
}

// NotFoundHandler builds the engine's default "no route matched" response.
// Overridable by response middleware, which runs after this default is
// installed.
var NotFoundHandler = func(ctx *reqctx.Context) {
	resp := ctx.Response()
	resp.StatusCode = 404
	resp.Headers.Set("Content-Type", "text/plain; charset=utf-8")
	resp.Body = []byte("404 Not Found")
}

// Engine drives one connection's request/response loop.
type Engine struct {
	matcher Resolver
	hooks   *hook.Registry
	cfg     Config
	collab  Collaborators
}

// New constructs an Engine bound to a route resolver, a hook registry, and
// the external collaborators needed to parse requests and encode
// responses.
func New(matcher Resolver, hooks *hook.Registry, cfg Config, collab Collaborators) *Engine {
	panicbridge.EnsureInitialized()
	panicbridge.SetHandler(func(info reqctx.PanicInfo, ctx *reqctx.Context) {
		if h, ok := hooks.PanicHandler(); ok {
			h(ctx)
			return
		}
		panicbridge.DefaultHandler(info, ctx)
	})
	return &Engine{matcher: matcher, hooks: hooks, cfg: cfg, collab: collab}
}

// ServeConnection runs the full request/response loop over stream until the
// connection closes, whether by keep-alive exhaustion, an explicit
// ctx.Close(), a WebSocket handler that owns the stream until it returns,
// or a panic.
func (e *Engine) ServeConnection(stream api.Stream) {
	ctx := reqctx.New(stream, e.collab.Encoder, e.collab.FrameEncoder, e.collab.AcceptKeyGen)
	defer stream.Close()

	for {
		keepAlive := e.serveOneRequest(ctx)
		if !keepAlive {
			return
		}
		ctx.Reset(true) // attribute survival policy: see spec §9 Open Questions
	}
}

// serveOneRequest runs steps 2-6 of the lifecycle for a single request and
// reports whether the connection should be kept alive for another
// iteration. A panic during any step is caught here and routed through the
// panic bridge; it never escapes serveOneRequest.
func (e *Engine) serveOneRequest(ctx *reqctx.Context) (keepAlive bool) {
	defer func() {
		if r := recover(); r != nil {
			_, done := panicbridge.Capture(r, ctx)
			<-done // the dispatched handler may still use the stream; outlive it before ServeConnection closes it
			ctx.Abort()
			ctx.Close()
			keepAlive = false
		}
	}()

	lifecycle := reqctx.Lifecycle{Abort: false, KeepAlive: true}

	req, err := e.parseRequest(ctx)
	if err != nil {
		e.runRequestErrorHooks(ctx, err)
		ctx.Close()
		e.runResponseMiddleware(ctx)
		return false
	}
	ctx.SetRequest(req)
	lifecycle.KeepAlive = req.KeepAlive()

	lifecycle = e.runRequestMiddleware(ctx, lifecycle)
	if !lifecycle.Abort {
		e.resolveAndRun(ctx, req.Path)
		lifecycle = ctx.ShouldAbort(lifecycle)
	}

	e.runResponseMiddleware(ctx)
	lifecycle = ctx.ShouldAbort(lifecycle)

	resp := ctx.Response()
	if resp.MandatesClose() {
		lifecycle.KeepAlive = false
	}
	if ctx.Upgraded() {
		// The handler owns the stream from here; the engine's keep-alive
		// bookkeeping does not apply once it has looped internally and
		// returned (the connection is then done).
		return false
	}
	// An aborted pipeline does not by itself mandate closing the connection:
	// per spec §4.5 step 6 and original_source's lifecycle::is_keep_alive,
	// Abort(true) is still keep-alive. lifecycle.KeepAlive already folds in
	// the request's advertised preference, resp.MandatesClose, and ctx's
	// closed flag via ShouldAbort above.
	return lifecycle.KeepAlive
}

func (e *Engine) parseRequest(ctx *reqctx.Context) (*api.Request, error) {
	bufSize := e.cfg.HTTPBufferSize
	if bufSize <= 0 {
		bufSize = 4096
	}
	stream := ctx.Stream()
	if e.cfg.HTTPReadTimeout > 0 {
		_ = stream.SetReadDeadline(time.Now().Add(e.cfg.HTTPReadTimeout))
	}
	return e.collab.Parser.ParseRequest(stream, bufSize)
}

func (e *Engine) runRequestErrorHooks(ctx *reqctx.Context, err error) {
	for _, h := range e.hooks.RequestErrorHooks() {
		h(ctx, err)
	}
}

func (e *Engine) runRequestMiddleware(ctx *reqctx.Context, lifecycle reqctx.Lifecycle) reqctx.Lifecycle {
	for _, mw := range e.hooks.RequestMiddleware() {
		mw(ctx)
		lifecycle = ctx.ShouldAbort(lifecycle)
		if lifecycle.Abort {
			break
		}
	}
	return lifecycle
}

func (e *Engine) resolveAndRun(ctx *reqctx.Context, path string) {
	handlerAny, params, ok := e.matcher.Resolve(path)
	if !ok {
		NotFoundHandler(ctx)
		return
	}
	ctx.SetRouteParams(params)
	handler, ok := handlerAny.(RouteHandler)
	if !ok {
		NotFoundHandler(ctx)
		return
	}
	handler(ctx)
}

func (e *Engine) runResponseMiddleware(ctx *reqctx.Context) {
	mws := e.hooks.ResponseMiddleware()
	for _, mw := range mws {
		mw(ctx)
	}
	if !ctx.Sent() {
		_ = ctx.Send()
	}
}
