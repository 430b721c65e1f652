// Package panicbridge implements the process-global panic interceptor
// described in spec §4.6: a single, atomically-replaceable handler pointer
// guarded by a three-state initializer (uninitialized -> initializing ->
// initialized), because — like the Rust std::panic::set_hook the original
// hyperlane source wraps (original_source/src/panic/impl.rs) — a process
// hosts exactly one panic interceptor regardless of how many servers run
// inside it.
package panicbridge

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync/atomic"

	"github.com/kestrelhttp/kestrel/reqctx"
)

const (
	stateUninitialized int32 = iota
	stateInitializing
	stateInitialized
)

var (
	state      atomic.Int32
	handlerPtr atomic.Pointer[func(reqctx.PanicInfo, *reqctx.Context)]
)

// SetHandler atomically replaces the process-wide panic handler. A nil
// handler restores the framework default (write to stderr, 500 response).
// Replacing releases the previously installed handler for GC, mirroring
// the original's Drop impl that frees the boxed handler exactly once.
func SetHandler(h func(info reqctx.PanicInfo, ctx *reqctx.Context)) {
	if h == nil {
		handlerPtr.Store(nil)
		return
	}
	handlerPtr.Store(&h)
}

// EnsureInitialized performs the one-time setup every server Run() needs
// before accepting connections: callers racing to initialize spin on the
// "initializing" state until the winner finishes, so a slow first caller
// never lets a second caller observe a half-initialized bridge.
func EnsureInitialized() {
	if state.CompareAndSwap(stateUninitialized, stateInitializing) {
		// Nothing allocates here beyond the state transition itself: the
		// bridge must not allocate under lock nor block the panicking
		// task later, so initialization is kept to this flag flip.
		state.Store(stateInitialized)
		return
	}
	for state.Load() != stateInitialized {
		runtime.Gosched()
	}
}

// Capture recovers a panic value already obtained from recover(), builds a
// PanicInfo from it, and dispatches it to the registered handler on a
// freshly scheduled goroutine (so the bridge never re-enters the task that
// panicked). If no handler is registered, the default handler runs instead.
// The returned channel closes once the dispatched handler has returned;
// callers that own the connection's stream (the engine) must wait on it
// before closing the stream out from under the handler.
//
// ctx is the context of the connection that panicked; it is marked
// Aborted and Closed by the caller (the engine), not by Capture itself.
func Capture(recovered any, ctx *reqctx.Context) (reqctx.PanicInfo, <-chan struct{}) {
	info := fromRecovered(recovered)
	ctx.SetPanicInfo(info)

	done := make(chan struct{})
	handler := DefaultHandler
	if hp := handlerPtr.Load(); hp != nil {
		handler = *hp
	}
	go func() {
		defer close(done)
		handler(info, ctx)
	}()
	return info, done
}

func fromRecovered(recovered any) reqctx.PanicInfo {
	_, file, line, ok := runtime.Caller(3)
	location := ""
	if ok {
		location = fmt.Sprintf("%s:%d", file, line)
	}

	var message string
	switch v := recovered.(type) {
	case string:
		message = v
	case error:
		message = v.Error()
	case fmt.Stringer:
		message = v.String()
	default:
		message = fmt.Sprintf("%v", v)
	}

	return reqctx.PanicInfo{
		Message:  message,
		Location: location,
		Payload:  fmt.Sprintf("%v\n%s", recovered, debug.Stack()),
	}
}

// DefaultHandler is the framework's built-in panic handler: it writes the
// panic record to stderr and sends a 500 response, mirroring
// original_source's default_panic_hook.
var DefaultHandler = func(info reqctx.PanicInfo, ctx *reqctx.Context) {
	defaultStderrPanicHandler(info, ctx)
}
