// Package logging provides the structured, leveled logger of this
// framework's ambient stack: the access-log middleware (middleware.Logging)
// and the kestreld command log through here.
//
// Grounded on the pack's arkd0ng-go-utils logging package (Level type,
// functional Option config, optional lumberjack-backed file rotation,
// "timestamp [LEVEL] prefix message key=value ..." line format), trimmed of
// its banner/app-version discovery features, which have no counterpart in
// a server framework's ambient stack.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level is the severity of a log line, in ascending order.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a case-insensitive level name, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger writes leveled, structured log lines to stdout and, optionally, a
// rotating file.
type Logger struct {
	mu         sync.Mutex
	level      Level
	prefix     string
	stdout     io.Writer
	file       *lumberjack.Logger
	timeFormat string
}

// Option configures a Logger at construction time.
type Option func(*Logger)

// WithLevel sets the minimum level a call must meet to be emitted.
func WithLevel(l Level) Option {
	return func(lg *Logger) { lg.level = l }
}

// WithPrefix sets a fixed prefix inserted after the level tag.
func WithPrefix(p string) Option {
	return func(lg *Logger) { lg.prefix = p }
}

// WithFileRotation enables a lumberjack-backed rotating file sink alongside
// stdout. maxSizeMB, maxBackups, and maxAgeDays follow lumberjack's own
// semantics (0 disables that particular bound).
func WithFileRotation(path string, maxSizeMB, maxBackups, maxAgeDays int) Option {
	return func(lg *Logger) {
		lg.file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
	}
}

// New builds a Logger writing to stdout (plus an optional rotating file).
func New(opts ...Option) *Logger {
	lg := &Logger{
		level:      INFO,
		stdout:     os.Stdout,
		timeFormat: time.RFC3339,
	}
	for _, opt := range opts {
		opt(lg)
	}
	return lg
}

func (l *Logger) log(level Level, msg string, kv ...any) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] ", time.Now().Format(l.timeFormat), level.String())
	if l.prefix != "" {
		fmt.Fprintf(&b, "%s ", l.prefix)
	}
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	b.WriteByte('\n')
	line := b.String()

	l.stdout.Write([]byte(line))
	if l.file != nil {
		l.file.Write([]byte(line))
	}
}

func (l *Logger) Debug(msg string, kv ...any) { l.log(DEBUG, msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.log(INFO, msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.log(WARN, msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.log(ERROR, msg, kv...) }

// Close flushes and releases the rotating file sink, if one was configured.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Default is the package-level logger used by components that were not
// explicitly wired with one (e.g. middleware.Logging given a nil logger).
var Default = New()
