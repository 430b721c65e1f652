// Package hook implements the ordered hook registries the lifecycle engine
// consults at each pipeline stage: request middleware, response middleware,
// request-error hooks, and the panic hook. Route handlers are registered
// through the route package's Matcher instead (see spec §4.4).
//
// Grounded on the original Rust source's hook/struct.rs (priority field,
// stable-sort-by-priority-descending) generalized to Go's sort.SliceStable.
package hook

import (
	"sort"

	"github.com/kestrelhttp/kestrel/reqctx"
)

// RequestMiddleware runs before route resolution.
type RequestMiddleware func(ctx *reqctx.Context)

// ResponseMiddleware runs after the route handler (or the not-found
// default). The framework's default response middleware calls ctx.Send.
type ResponseMiddleware func(ctx *reqctx.Context)

// RequestErrorHandler runs when the external request parser fails to
// produce a Request.
type RequestErrorHandler func(ctx *reqctx.Context, err error)

// PanicHandler runs on a context seeded with the captured panic record.
type PanicHandler func(ctx *reqctx.Context)

type entry[F any] struct {
	handler  F
	priority int
	seq      int
}

// orderedList is an append-only, priority-sorted collection of hooks of one
// kind. Absent priority sorts as zero; ties are broken by registration
// order (stable).
type orderedList[F any] struct {
	entries []entry[F]
	nextSeq int
}

func (l *orderedList[F]) register(h F, priority int) {
	l.entries = append(l.entries, entry[F]{handler: h, priority: priority, seq: l.nextSeq})
	l.nextSeq++
	sort.SliceStable(l.entries, func(i, j int) bool {
		return l.entries[i].priority > l.entries[j].priority
	})
}

func (l *orderedList[F]) ordered() []F {
	out := make([]F, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.handler
	}
	return out
}

// Registry holds the non-route hook collections for one server.
type Registry struct {
	requestMiddleware  orderedList[RequestMiddleware]
	responseMiddleware orderedList[ResponseMiddleware]
	requestError       orderedList[RequestErrorHandler]
	panicHandler       PanicHandler // at most one user handler; nil means "use default"
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterRequestMiddleware adds a request-middleware hook at the given
// priority (sort stable, descending).
func (r *Registry) RegisterRequestMiddleware(h RequestMiddleware, priority int) {
	r.requestMiddleware.register(h, priority)
}

// RegisterResponseMiddleware adds a response-middleware hook.
func (r *Registry) RegisterResponseMiddleware(h ResponseMiddleware, priority int) {
	r.responseMiddleware.register(h, priority)
}

// RegisterRequestError adds a request-error hook, invoked when the request
// parser fails.
func (r *Registry) RegisterRequestError(h RequestErrorHandler, priority int) {
	r.requestError.register(h, priority)
}

// SetPanicHandler installs the single global user panic handler. Passing
// nil reverts to the framework default.
func (r *Registry) SetPanicHandler(h PanicHandler) {
	r.panicHandler = h
}

// RequestMiddleware returns the registered request-middleware hooks in
// priority-descending, insertion-stable order.
func (r *Registry) RequestMiddleware() []RequestMiddleware {
	return r.requestMiddleware.ordered()
}

// ResponseMiddleware returns the registered response-middleware hooks in
// order.
func (r *Registry) ResponseMiddleware() []ResponseMiddleware {
	return r.responseMiddleware.ordered()
}

// RequestErrorHooks returns the registered request-error hooks in order.
func (r *Registry) RequestErrorHooks() []RequestErrorHandler {
	return r.requestError.ordered()
}

// PanicHandler returns the user panic handler, or (nil, false) if none was
// registered.
func (r *Registry) PanicHandler() (PanicHandler, bool) {
	if r.panicHandler == nil {
		return nil, false
	}
	return r.panicHandler, true
}
