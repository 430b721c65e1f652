package reqctx

import (
	"errors"
	"testing"
	"time"

	"github.com/kestrelhttp/kestrel/api"
)

// fakeStream is a minimal in-memory api.Stream double for exercising Context
// without a real connection.
type fakeStream struct {
	written []byte
	closed  bool
}

func (s *fakeStream) Read(p []byte) (int, error)  { return 0, errors.New("unused") }
func (s *fakeStream) Write(p []byte) (int, error) { s.written = append(s.written, p...); return len(p), nil }
func (s *fakeStream) PeerAddr() string            { return "10.0.0.1:1234" }
func (s *fakeStream) SendBodyConditional(body []byte, isWS bool) error {
	s.written = append(s.written, body...)
	return nil
}
func (s *fakeStream) Flush() error                          { return nil }
func (s *fakeStream) SetReadDeadline(t time.Time) error      { return nil }
func (s *fakeStream) Close() error                           { s.closed = true; return nil }

type fakeEncoder struct{ calls int }

func (e *fakeEncoder) EncodeResponse(api.Stream, *api.Response) error {
	e.calls++
	return nil
}

type fakeFrameEncoder struct{}

func (fakeFrameEncoder) CreateFrameList(body []byte, opcode byte) ([][]byte, error) {
	return [][]byte{body}, nil
}

type fakeAcceptKeyGen struct{}

func (fakeAcceptKeyGen) GenerateAcceptKey(clientKey string) string {
	return "accepted-" + clientKey
}

func TestAttributeRetrievalByTypeOnly(t *testing.T) {
	ctx := New(nil, nil, nil, nil)

	SetAttribute(ctx, "count", 42)
	if v, ok := GetAttribute[int](ctx, "count"); !ok || v != 42 {
		t.Fatalf("GetAttribute[int] = %v, %v", v, ok)
	}
	if _, ok := GetAttribute[string](ctx, "count"); ok {
		t.Fatal("expected absent for mismatched type")
	}

	type sessionID string
	SetAttribute(ctx, "count", sessionID("abc")) // same key, distinct static type
	if v, ok := GetAttribute[sessionID](ctx, "count"); !ok || v != "abc" {
		t.Fatalf("GetAttribute[sessionID] = %v, %v", v, ok)
	}
	if v, ok := GetAttribute[int](ctx, "count"); !ok || v != 42 {
		t.Fatalf("prior int binding should survive a same-key, different-type Set: %v, %v", v, ok)
	}
}

func TestAbortAndCloseIdempotent(t *testing.T) {
	ctx := New(nil, nil, nil, nil)
	ctx.Abort()
	ctx.Abort()
	ctx.Close()
	ctx.Close()
	if !ctx.Aborted() || !ctx.Closed() {
		t.Fatal("expected both flags set")
	}
}

func TestShouldAbortFoldsFlags(t *testing.T) {
	ctx := New(nil, nil, nil, nil)
	lc := Lifecycle{Abort: false, KeepAlive: true}

	lc = ctx.ShouldAbort(lc)
	if lc.Abort || !lc.KeepAlive {
		t.Fatalf("unmodified context: %+v", lc)
	}

	ctx.Close()
	lc = ctx.ShouldAbort(lc)
	if lc.KeepAlive {
		t.Fatalf("expected KeepAlive to flip false once closed: %+v", lc)
	}

	ctx.Abort()
	lc = ctx.ShouldAbort(lc)
	if !lc.Abort {
		t.Fatalf("expected Abort once aborted: %+v", lc)
	}
}

func TestSendErrorsWithoutStream(t *testing.T) {
	ctx := New(nil, &fakeEncoder{}, nil, nil)
	if err := ctx.Send(); !errors.Is(err, ErrNoStream) {
		t.Fatalf("Send() with no stream = %v, want ErrNoStream", err)
	}
}

func TestSendErrorsWhenClosed(t *testing.T) {
	ctx := New(&fakeStream{}, &fakeEncoder{}, nil, nil)
	ctx.Close()
	if err := ctx.Send(); !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("Send() on a closed context = %v, want ErrConnectionClosed", err)
	}
}

func TestUpgradeToWSRequiresKeyHeader(t *testing.T) {
	ctx := New(&fakeStream{}, &fakeEncoder{}, fakeFrameEncoder{}, fakeAcceptKeyGen{})
	ctx.SetRequest(&api.Request{Method: "GET", Path: "/ws", Headers: api.Header{}})

	if err := ctx.UpgradeToWS(); !errors.Is(err, ErrWebSocketHandshake) {
		t.Fatalf("UpgradeToWS() without Sec-WebSocket-Key = %v, want ErrWebSocketHandshake", err)
	}
}

func TestUpgradeToWSSetsHandshakeResponse(t *testing.T) {
	ctx := New(&fakeStream{}, &fakeEncoder{}, fakeFrameEncoder{}, fakeAcceptKeyGen{})
	req := &api.Request{Method: "GET", Path: "/ws", Headers: api.Header{}}
	req.Headers.Set("Sec-WebSocket-Key", "abc123")
	ctx.SetRequest(req)

	if err := ctx.UpgradeToWS(); err != nil {
		t.Fatalf("UpgradeToWS() = %v", err)
	}
	if !ctx.Upgraded() {
		t.Fatal("expected Upgraded() true after a successful handshake")
	}
	resp := ctx.Response()
	if resp.StatusCode != 101 {
		t.Fatalf("StatusCode = %d, want 101", resp.StatusCode)
	}
	if got := resp.Headers.Get("Sec-WebSocket-Accept"); got != "accepted-abc123" {
		t.Fatalf("Sec-WebSocket-Accept = %q", got)
	}

	// A non-upgrade response attempted on an upgraded connection's Send path
	// is rejected.
	resp.StatusCode = 200
	if err := ctx.Send(); !errors.Is(err, ErrMethodNotSupported) {
		t.Fatalf("Send() after downgrading status on an upgraded ctx = %v, want ErrMethodNotSupported", err)
	}
}

func TestResetClearsResponseAndFlagsPreservingStream(t *testing.T) {
	ctx := New(&fakeStream{}, &fakeEncoder{}, nil, nil)
	ctx.SetRequest(&api.Request{Method: "GET", Path: "/x", Headers: api.Header{}})
	ctx.Response().StatusCode = 500
	ctx.Abort()
	ctx.Close()
	SetAttribute(ctx, "k", "v")

	ctx.Reset(true)

	if ctx.Request() != nil {
		t.Fatal("expected request cleared")
	}
	if ctx.Response().StatusCode != 200 {
		t.Fatalf("expected a fresh 200 response, got %d", ctx.Response().StatusCode)
	}
	if ctx.Aborted() || ctx.Closed() {
		t.Fatal("expected aborted/closed cleared")
	}
	if v, ok := GetAttribute[string](ctx, "k"); !ok || v != "v" {
		t.Fatalf("expected attribute to survive Reset(true): %v, %v", v, ok)
	}
	if ctx.Stream() == nil {
		t.Fatal("expected stream to be retained across Reset")
	}

	ctx.Reset(false)
	if _, ok := GetAttribute[string](ctx, "k"); ok {
		t.Fatal("expected attribute wiped by Reset(false)")
	}
}
