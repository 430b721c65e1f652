// Package server implements the public-facing façade: route/middleware/hook
// registration, TCP accept loop, and graceful shutdown, built on top of
// route.Matcher, hook.Registry, and engine.Engine.
//
// Grounded on the teacher's server/server.go (NewServer/Serve/Shutdown
// shape) and lowlevel/server/run.go (accept loop spawning a goroutine per
// connection, shutdown-channel-gated teardown with a timeout), generalized
// from the teacher's NUMA-pinned reactor/poller model to a plain
// one-goroutine-per-connection net.Listener loop, since the spec's core
// has no reactor of its own.
package server

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/kestrelhttp/kestrel/api"
	"github.com/kestrelhttp/kestrel/config"
	"github.com/kestrelhttp/kestrel/engine"
	"github.com/kestrelhttp/kestrel/hook"
	"github.com/kestrelhttp/kestrel/nettransport"
	"github.com/kestrelhttp/kestrel/route"
)

// ErrAlreadyRunning is returned by Run if called more than once on the same
// Server.
var ErrAlreadyRunning = errors.New("server: already running")

// Collaborators bundles the wire-format implementations a Server hands to
// its Engine. wsutil.DefaultCollaborators() is the framework's reference
// implementation; callers may substitute any api-conforming alternative.
type Collaborators = engine.Collaborators

// ConnMetrics receives connection lifecycle events from the accept loop.
// *metrics.Recorder satisfies this; it is narrowed to an interface so this
// package does not need to import metrics just to report against it.
type ConnMetrics interface {
	ConnectionOpened()
	ConnectionClosed()
}

// ControlHook is returned by Run: Wait blocks until the server has fully
// shut down (or the listener failed), and Shutdown requests a graceful stop.
type ControlHook struct {
	Wait     func() error
	Shutdown func()
}

// Server is the framework's public entry point: it owns route registration,
// hook registration, and the TCP accept loop.
type Server struct {
	cfg     *config.Config
	collab  Collaborators
	matcher *route.Matcher
	hooks   *hook.Registry
	metrics ConnMetrics

	mu       sync.Mutex
	running  bool
	listener net.Listener
	wg       sync.WaitGroup
	shutdown chan struct{}
	serveErr chan error
}

// New constructs a Server from a Config and the external parser/encoder/
// frame-encoder/accept-key-generator collaborators it will drive.
func New(cfg *config.Config, collab Collaborators) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		cfg:      cfg,
		collab:   collab,
		matcher:  route.NewMatcher(),
		hooks:    hook.NewRegistry(),
		shutdown: make(chan struct{}),
		serveErr: make(chan error, 1),
	}
}

// Route registers handler under pattern. It panics on a duplicate or
// malformed pattern, matching the teacher's fail-fast registration-time
// behavior for programmer errors (route registration happens at startup,
// not per-request).
func (s *Server) Route(pattern string, handler engine.RouteHandler) {
	if err := s.matcher.Add(pattern, handler); err != nil {
		panic(err)
	}
}

// RequestMiddleware registers a request-phase hook at the given priority.
func (s *Server) RequestMiddleware(h hook.RequestMiddleware, priority int) {
	s.hooks.RegisterRequestMiddleware(h, priority)
}

// ResponseMiddleware registers a response-phase hook at the given priority.
func (s *Server) ResponseMiddleware(h hook.ResponseMiddleware, priority int) {
	s.hooks.RegisterResponseMiddleware(h, priority)
}

// OnRequestError registers a hook invoked when the request parser fails.
func (s *Server) OnRequestError(h hook.RequestErrorHandler, priority int) {
	s.hooks.RegisterRequestError(h, priority)
}

// OnPanic installs the server-wide panic handler, overriding the framework
// default (panicbridge.DefaultHandler).
func (s *Server) OnPanic(h hook.PanicHandler) {
	s.hooks.SetPanicHandler(h)
}

// UseMetrics wires a ConnMetrics sink (typically *metrics.Recorder) into the
// accept loop so connection-open/close events are reported alongside the
// request-scoped counters middleware.Metrics reports.
func (s *Server) UseMetrics(m ConnMetrics) {
	s.metrics = m
}

// Run starts the listener and accept loop and returns a ControlHook for
// waiting on or requesting shutdown. Run itself does not block.
func (s *Server) Run() (ControlHook, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ControlHook{}, ErrAlreadyRunning
	}
	s.running = true

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.running = false
		s.mu.Unlock()
		return ControlHook{}, err
	}
	s.listener = ln
	s.mu.Unlock()

	eng := engine.New(s.matcher, s.hooks, engine.Config{
		HTTPBufferSize:  s.cfg.HTTPBufferSize,
		WSBufferSize:    s.cfg.WSBufferSize,
		HTTPReadTimeout: s.cfg.HTTPReadTimeout,
		WSReadTimeout:   s.cfg.WSReadTimeout,
	}, s.collab)

	s.wg.Add(1)
	go s.acceptLoop(ln, eng)

	ctrl := ControlHook{
		Wait:     s.wait,
		Shutdown: s.Shutdown,
	}
	return ctrl, nil
}

func (s *Server) acceptLoop(ln net.Listener, eng *engine.Engine) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.shutdown:
				return
			default:
				s.serveErr <- err
				return
			}
		}

		_ = nettransport.ApplyTCPOptions(conn, s.cfg.NoDelay, s.cfg.Linger, s.cfg.TTL)
		stream := nettransport.NewConnStream(conn, s.cfg.HTTPBufferSize)

		if s.metrics != nil {
			s.metrics.ConnectionOpened()
		}
		s.wg.Add(1)
		go func(st api.Stream) {
			defer s.wg.Done()
			eng.ServeConnection(st)
			if s.metrics != nil {
				s.metrics.ConnectionClosed()
			}
		}(stream)
	}
}

// wait blocks until the listener stops (due to Shutdown or a fatal Accept
// error) and every in-flight connection goroutine has returned or the
// configured shutdown timeout has elapsed.
func (s *Server) wait() error {
	var acceptErr error
	select {
	case <-s.shutdown:
	case acceptErr = <-s.serveErr:
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case <-done:
	case <-ctx.Done():
	}
	return acceptErr
}

// Shutdown requests the accept loop stop taking new connections. It does
// not itself wait; call the ControlHook's Wait for that.
func (s *Server) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.shutdown:
		return
	default:
		close(s.shutdown)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

