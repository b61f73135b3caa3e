package reactive

import "log/slog"

// DebugConfig enables extra debug-level logging. It should be set at
// startup and not changed while runtimes are in use.
type DebugConfig struct {
	// LogFlushes logs the start and end of every flush.
	LogFlushes bool

	// LogDisposals logs every disposed node.
	LogDisposals bool
}

// Debug is the package-wide debug logging configuration.
var Debug DebugConfig

// DefaultFlushBudget is the flush budget of runtimes created without
// WithFlushBudget.
const DefaultFlushBudget = 100_000

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithObserver installs an observer. Use Observers to install several.
func WithObserver(o Observer) Option {
	return func(rt *Runtime) {
		rt.hooks = o
	}
}

// WithFlushBudget caps the number of computation runs in a single flush.
// A value <= 0 disables the cap.
func WithFlushBudget(n int) Option {
	return func(rt *Runtime) {
		rt.flushBudget = n
	}
}

// WithGoroutineCheck makes every runtime operation panic when called from a
// goroutine other than the one that created the runtime. The check parses
// the goroutine stack header and is meant for development.
func WithGoroutineCheck() Option {
	return func(rt *Runtime) {
		rt.goroutineCheck = true
	}
}
