// Package reqctx implements the per-request shared context: the single
// reader-writer-locked bundle of stream, request, response, route params,
// attribute bag, and lifecycle flags that every hook and handler observes
// and mutates in lock-step.
//
// Grounded on the original Rust source's context/impl.rs (one Context per
// connection, async accessors under a shared lock) and, for the attribute
// bag's type-erased retrieval, context/struct.rs's keyed storage design.
package reqctx

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/kestrelhttp/kestrel/api"
)

// Errors returned by Context methods, matching the ResponseError taxonomy
// in spec §7.
var (
	ErrConnectionClosed    = errors.New("reqctx: connection closed")
	ErrMethodNotSupported  = errors.New("reqctx: method not supported on upgraded connection")
	ErrNoStream            = errors.New("reqctx: no stream")
	ErrWebSocketHandshake  = errors.New("reqctx: missing or invalid Sec-WebSocket-Key")
)

// PanicInfo is the captured payload of a panic encountered while processing
// a connection.
type PanicInfo struct {
	Message  string
	Location string
	Payload  string
}

func (p PanicInfo) String() string {
	if p.Location == "" {
		return p.Message
	}
	return fmt.Sprintf("%s (at %s)", p.Message, p.Location)
}

// attrKey makes attribute storage type-aware: the same string key holding
// values of two different static types never collides, and a lookup under
// the wrong type yields absent rather than a dangerous cast.
type attrKey struct {
	name string
	typ  reflect.Type
}

// Context is the per-request shared state. One Context is created per
// accepted connection and is reused, with selective resets, across
// keep-alive iterations (see Reset).
type Context struct {
	mu sync.RWMutex

	stream     api.Stream
	request    *api.Request
	response   *api.Response
	routeParam map[string]string

	attributes map[attrKey]any

	aborted    bool
	closed     bool
	upgraded   bool
	sent       bool
	panicInfo  *PanicInfo

	encoder      api.ResponseEncoder
	frameEncoder api.FrameEncoder
	acceptKeyGen api.AcceptKeyGenerator
}

// New constructs a Context bound to a connection's stream and the
// collaborators it needs to serialize responses and perform the WebSocket
// handshake.
func New(stream api.Stream, encoder api.ResponseEncoder, frameEncoder api.FrameEncoder, acceptKeyGen api.AcceptKeyGenerator) *Context {
	return &Context{
		stream:       stream,
		response:     api.NewResponse(),
		attributes:   make(map[attrKey]any),
		encoder:      encoder,
		frameEncoder: frameEncoder,
		acceptKeyGen: acceptKeyGen,
	}
}

// SetRequest installs the request parsed for the current iteration.
func (c *Context) SetRequest(r *api.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.request = r
}

// Request returns the current request, or nil before one has been parsed.
func (c *Context) Request() *api.Request {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.request
}

// Response returns the response under construction.
func (c *Context) Response() *api.Response {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.response
}

// SetRouteParams installs the parameter bindings captured during route
// resolution.
func (c *Context) SetRouteParams(p map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.routeParam = p
}

// RouteParam returns a single bound route parameter.
func (c *Context) RouteParam(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.routeParam[name]
	return v, ok
}

// Stream returns the connection's byte stream, used by the engine to parse
// each request.
func (c *Context) Stream() api.Stream {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stream
}

// RemoteAddr returns the connection's peer address, or "" if there is no
// stream (e.g. a context seeded purely for panic dispatch).
func (c *Context) RemoteAddr() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stream == nil {
		return ""
	}
	return c.stream.PeerAddr()
}

// SetAttribute stores v under k. Retrieval by the original static type via
// GetAttribute succeeds; retrieval under any other type yields absent.
func SetAttribute[T any](c *Context, k string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := attrKey{name: k, typ: reflect.TypeOf(v)}
	c.attributes[key] = v
}

// GetAttribute retrieves the value stored under k for type T. It returns
// (zero, false) if nothing was stored under k with exactly this type.
func GetAttribute[T any](c *Context, k string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var zero T
	key := attrKey{name: k, typ: reflect.TypeOf(zero)}
	raw, ok := c.attributes[key]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Abort sets the aborted flag, causing the lifecycle engine to skip any
// remaining request middleware and the route handler. Idempotent.
func (c *Context) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aborted = true
}

// Aborted reports the current aborted flag.
func (c *Context) Aborted() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aborted
}

// Close sets the closed flag, signaling that the connection must not be
// kept alive for another iteration. Idempotent.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports the current closed flag.
func (c *Context) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// SetPanicInfo records a captured panic on this context.
func (c *Context) SetPanicInfo(p PanicInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.panicInfo = &p
}

// PanicInfo returns the recorded panic, if any.
func (c *Context) PanicInfo() (PanicInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.panicInfo == nil {
		return PanicInfo{}, false
	}
	return *c.panicInfo, true
}

// Lifecycle is the {Continue, Abort} x keep_alive state described in
// spec §3.
type Lifecycle struct {
	Abort     bool
	KeepAlive bool
}

// ShouldAbort folds the context's current flags into lifecycle: keep_alive
// is retained only if the connection was not explicitly closed; the
// aborted flag switches the variant to Abort.
func (c *Context) ShouldAbort(current Lifecycle) Lifecycle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	next := Lifecycle{Abort: current.Abort || c.aborted, KeepAlive: current.KeepAlive && !c.closed}
	return next
}

// Send serializes the current response and writes it to the stream.
func (c *Context) Send() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	if c.stream == nil {
		return ErrNoStream
	}
	if c.upgraded && !isUpgradeResponse(c.response) {
		return ErrMethodNotSupported
	}
	c.sent = true
	return c.encoder.EncodeResponse(c.stream, c.response)
}

// Sent reports whether Send has already transmitted a response for the
// current iteration. The engine's built-in final response middleware uses
// this to avoid double-sending when a user response-middleware already
// called Send explicitly.
func (c *Context) Sent() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sent
}

// SendBody writes only the response body. On an upgraded WebSocket
// connection the body is framed as a text/binary message sequence via the
// configured FrameEncoder instead of being sent as a raw HTTP body.
func (c *Context) SendBody(opcode byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	if c.stream == nil {
		return ErrNoStream
	}
	if c.upgraded {
		frames, err := c.frameEncoder.CreateFrameList(c.response.Body, opcode)
		if err != nil {
			return err
		}
		for _, frame := range frames {
			if err := c.stream.SendBodyConditional(frame, true); err != nil {
				return err
			}
		}
		return nil
	}
	return c.stream.SendBodyConditional(c.response.Body, false)
}

// Flush flushes the underlying stream.
func (c *Context) Flush() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stream == nil {
		return ErrNoStream
	}
	return c.stream.Flush()
}

// UpgradeToWS performs the WebSocket handshake response: it requires the
// Sec-WebSocket-Key header on the current request, computes the accept key,
// and leaves the response set to a 101 Switching Protocols so the caller's
// next Send transmits it.
func (c *Context) UpgradeToWS() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.request == nil {
		return ErrWebSocketHandshake
	}
	key := c.request.Headers.Get("Sec-WebSocket-Key")
	if key == "" {
		return ErrWebSocketHandshake
	}
	accept := c.acceptKeyGen.GenerateAcceptKey(key)

	c.response.StatusCode = 101
	c.response.Headers.Set("Upgrade", "websocket")
	c.response.Headers.Set("Connection", "Upgrade")
	c.response.Headers.Set("Sec-WebSocket-Accept", accept)
	c.upgraded = true
	return nil
}

// Upgraded reports whether this connection completed a WebSocket handshake.
func (c *Context) Upgraded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.upgraded
}

func isUpgradeResponse(r *api.Response) bool {
	return r.StatusCode == 101
}

// Reset prepares the context for the next keep-alive iteration: the
// response, route params, aborted and closed flags are cleared; the stream
// is retained. Whether attributes survive is governed by keepAttributes,
// resolving the open policy question in spec §9.
func (c *Context) Reset(keepAttributes bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.request = nil
	c.response = api.NewResponse()
	c.routeParam = nil
	c.aborted = false
	c.closed = false
	c.sent = false
	c.panicInfo = nil
	if !keepAttributes {
		c.attributes = make(map[attrKey]any)
	}
}
