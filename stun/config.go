package stun

import (
	"fmt"
	"log"
	"time"
)

// Logger is the minimal logging interface the engines and façade write
// diagnostics through, matching github.com/go-log/log's shape so callers
// that already depend on it can pass their existing logger straight in.
type Logger interface {
	Log(v ...interface{})
	Logf(format string, v ...interface{})
}

// NopLogger discards everything; it is the default in DefaultConfig.
type NopLogger struct{}

func (NopLogger) Log(v ...interface{})                 {}
func (NopLogger) Logf(format string, v ...interface{}) {}

// StdLogger adapts the standard library's log package the way the
// teacher's LogLogger adapts it for github.com/go-log/log.
type StdLogger struct{}

func (StdLogger) Log(v ...interface{}) {
	log.Output(3, fmt.Sprintln(v...))
}

func (StdLogger) Logf(format string, v ...interface{}) {
	log.Output(3, fmt.Sprintf(format, v...))
}

// Config holds the per-run knobs threaded explicitly through the façade.
// This replaces the teacher's process-wide mutable ReceiveTimeout (see
// DESIGN.md's stun/config.go entry for spec.md §9's REDESIGN FLAG).
type Config struct {
	// ReceiveTimeout bounds every individual Recv call. A single missed
	// reply is a classification signal, not packet loss to retry.
	ReceiveTimeout time.Duration
	// Logger receives one Logf call per sent Message and per successfully
	// decoded reply, tagged "[stun]". Engine state transitions are not
	// logged.
	Logger Logger
	// Software, if non-empty, populates the SOFTWARE attribute on every
	// outgoing request.
	Software string
}

// DefaultConfig returns the process-wide default: a 2 second receive
// timeout, a no-op logger, and the library's own SOFTWARE identifier.
func DefaultConfig() *Config {
	return &Config{
		ReceiveTimeout: 2 * time.Second,
		Logger:         NopLogger{},
		Software:       "stunscout",
	}
}

func (c *Config) logger() Logger {
	if c == nil || c.Logger == nil {
		return NopLogger{}
	}
	return c.Logger
}

func (c *Config) timeout() time.Duration {
	if c == nil || c.ReceiveTimeout <= 0 {
		return DefaultConfig().ReceiveTimeout
	}
	return c.ReceiveTimeout
}
