// Package log defines the logger used across vibedeck so packages do not
// depend on a concrete logging library.
package log

// Kv is a helper type for structured logging key-value pairs.
type Kv = map[string]any

// Logger is the interface every logger implementation must satisfy.
type Logger interface {
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
	WithValues(values Kv) Logger
}

type noop int

// Noop is a logger that discards everything.
const Noop = noop(0)

var _ Logger = Noop

func (noop) Infof(string, ...any)    {}
func (noop) Warningf(string, ...any) {}
func (noop) Errorf(string, ...any)   {}
func (noop) Debugf(string, ...any)   {}
func (l noop) WithValues(Kv) Logger  { return l }
