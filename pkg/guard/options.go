package guard

import (
	"log/slog"

	"github.com/jdziat/simple-block-guard/pkg/resolve"
)

// DefaultEventBuffer is the buffer size of each Events() subscription.
const DefaultEventBuffer = 100

// Options holds Guard configuration.
type Options struct {
	Logger      *slog.Logger
	Reporter    resolve.Reporter
	EventBuffer int
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{
		Logger:      slog.Default(),
		EventBuffer: DefaultEventBuffer,
	}
}

// Option modifies Options.
type Option interface {
	Apply(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) Apply(o *Options) { f(o) }

// WithLogger sets the logger. Without a WithReporter option, resolution
// diagnostics are written to this logger too.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	})
}

// WithReporter sets the reporter receiving handler resolution diagnostics.
func WithReporter(r resolve.Reporter) Option {
	return optionFunc(func(o *Options) {
		o.Reporter = r
	})
}

// WithEventBuffer sets the buffer size of each Events() subscription.
// Values below 1 are ignored.
func WithEventBuffer(n int) Option {
	return optionFunc(func(o *Options) {
		if n > 0 {
			o.EventBuffer = n
		}
	})
}
