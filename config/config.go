// Package config defines the server's enumerated configuration surface
// (spec §6) plus the functional-option construction pattern and file-based
// loader the ambient stack adds on top of it.
//
// Grounded on the teacher's server/types.go (Config struct, DefaultConfig)
// and server/options.go (functional ServerOption pattern), which this
// package keeps verbatim in spirit while renaming fields to the framework's
// HTTP/WebSocket domain instead of the teacher's NUMA/reactor domain.
package config

import (
	"runtime"
	"time"
)

// Config holds every server-construction parameter enumerated in spec §6.
type Config struct {
	Host string
	Port int

	HTTPBufferSize int // byte size of the request-line/header read buffer
	WSBufferSize   int // byte size of the WebSocket frame read buffer

	NoDelay bool           // TCP_NODELAY
	Linger  *time.Duration // SO_LINGER; nil leaves the OS default
	TTL     *int           // IP TTL; nil leaves the OS default

	HTTPReadTimeout time.Duration
	WSReadTimeout   time.Duration

	MaxHeaderCount int
	MaxHeaderBytes int

	ShutdownTimeout time.Duration
	ExecutorWorkers int
}

// DefaultConfig returns the framework's defaults: a listener on all
// interfaces at port 8080, generous buffers, no read timeouts, a 30s
// shutdown timeout, and a worker count matched to the host.
func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            8080,
		HTTPBufferSize:  8 << 10,
		WSBufferSize:    64 << 10,
		NoDelay:         true,
		MaxHeaderCount:  100,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 30 * time.Second,
		ExecutorWorkers: runtime.NumCPU(),
	}
}

// Option customizes a Config during construction.
type Option func(*Config)

// WithAddr sets the listen host and port.
func WithAddr(host string, port int) Option {
	return func(c *Config) {
		c.Host = host
		c.Port = port
	}
}

// WithHTTPBufferSize overrides the request read buffer size.
func WithHTTPBufferSize(n int) Option {
	return func(c *Config) { c.HTTPBufferSize = n }
}

// WithWSBufferSize overrides the WebSocket frame buffer size.
func WithWSBufferSize(n int) Option {
	return func(c *Config) { c.WSBufferSize = n }
}

// WithReadTimeouts sets the HTTP and WebSocket read deadlines.
func WithReadTimeouts(http, ws time.Duration) Option {
	return func(c *Config) {
		c.HTTPReadTimeout = http
		c.WSReadTimeout = ws
	}
}

// WithNoDelay toggles TCP_NODELAY.
func WithNoDelay(v bool) Option {
	return func(c *Config) { c.NoDelay = v }
}

// WithLinger sets SO_LINGER.
func WithLinger(d time.Duration) Option {
	return func(c *Config) { c.Linger = &d }
}

// WithTTL sets the IP TTL.
func WithTTL(ttl int) Option {
	return func(c *Config) { c.TTL = &ttl }
}

// WithMaxHeaders sets the header-count and header-byte limits on the Config.
// The wsutil request parser does not read these fields, so they do not
// bound what it accepts.
func WithMaxHeaders(count, bytes int) Option {
	return func(c *Config) {
		c.MaxHeaderCount = count
		c.MaxHeaderBytes = bytes
	}
}

// WithShutdownTimeout bounds how long graceful shutdown waits for in-flight
// connections to finish their current request.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Config) { c.ShutdownTimeout = d }
}

// WithExecutorWorkers sets ExecutorWorkers on the Config. No component of
// this module reads it; panic handlers are dispatched on a plain goroutine.
func WithExecutorWorkers(n int) Option {
	return func(c *Config) { c.ExecutorWorkers = n }
}

// Apply builds a Config by layering opts onto DefaultConfig().
func Apply(opts ...Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
