package api

import "strings"

// Request is the parsed form of one HTTP/1.1 request line plus headers and
// body. The wire-level parser (an external collaborator) is the only thing
// that constructs these.
type Request struct {
	Method     string
	Path       string
	RawQuery   string
	Version    string // "HTTP/1.1" or "HTTP/1.0"
	Headers    Header
	Body       []byte
}

// Header is a case-insensitive header multimap, keyed by canonical form.
type Header map[string][]string

// Get returns the first value for a header name, case-insensitively.
func (h Header) Get(name string) string {
	vs := h[canonicalHeader(name)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Set replaces all values for a header name.
func (h Header) Set(name, value string) {
	h[canonicalHeader(name)] = []string{value}
}

// Add appends a value for a header name.
func (h Header) Add(name, value string) {
	key := canonicalHeader(name)
	h[key] = append(h[key], value)
}

func canonicalHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// KeepAlive reports whether the request advertises HTTP keep-alive, per
// Connection header and HTTP version defaults: HTTP/1.1 defaults to
// keep-alive unless Connection: close is present; HTTP/1.0 defaults to
// close unless Connection: keep-alive is present.
func (r *Request) KeepAlive() bool {
	conn := strings.ToLower(strings.TrimSpace(r.Headers.Get("Connection")))
	switch conn {
	case "close":
		return false
	case "keep-alive":
		return true
	}
	return r.Version != "HTTP/1.0"
}

// IsWebSocketUpgrade reports whether this request asked to switch protocols
// to WebSocket.
func (r *Request) IsWebSocketUpgrade() bool {
	return strings.EqualFold(r.Headers.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Headers.Get("Connection")), "upgrade")
}

// Response is the mutable, per-request response under construction. The
// lifecycle engine creates one per request; middleware and handlers mutate
// it; a response-middleware hook (usually the framework default) serializes
// it via the ResponseEncoder.
type Response struct {
	StatusCode int
	Headers    Header
	Body       []byte

	// forceClose is set by middleware/handlers that must mandate a
	// connection close regardless of the request's keep-alive preference
	// (e.g. an error path).
	forceClose bool
}

// NewResponse returns a 200 OK response with an empty header set.
func NewResponse() *Response {
	return &Response{StatusCode: 200, Headers: Header{}}
}

// MandatesClose reports whether this response requires the connection to
// close after being sent.
func (r *Response) MandatesClose() bool {
	if r.forceClose {
		return true
	}
	return strings.EqualFold(r.Headers.Get("Connection"), "close")
}

// SetClose marks this response as mandating connection close.
func (r *Response) SetClose() {
	r.forceClose = true
	r.Headers.Set("Connection", "close")
}
