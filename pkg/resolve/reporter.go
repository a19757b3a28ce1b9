package resolve

import (
	"context"
	"log/slog"
	"reflect"

	"github.com/jdziat/simple-block-guard/pkg/core"
)

// Kind identifies a resolution diagnostic.
type Kind string

const (
	KindHandlerResolved Kind = "handler_resolved"
	KindHandlerNotFound Kind = "handler_not_found"
)

// Diagnostic describes the outcome of one handler search.
type Diagnostic struct {
	Kind    Kind
	Handler string
	// Owner is the class declaring the resolved handler, or the lookup
	// class the search started from when nothing was found.
	Owner   string
	Static  bool
	Params  []reflect.Type
	Outcome string
}

// Reporter receives resolution diagnostics. Implementations must be safe for
// concurrent use.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(d Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// Nop returns a Reporter that discards diagnostics.
func Nop() Reporter {
	return ReporterFunc(func(Diagnostic) {})
}

// Multi fans a diagnostic out to every reporter in order.
func Multi(reporters ...Reporter) Reporter {
	return ReporterFunc(func(d Diagnostic) {
		for _, r := range reporters {
			if r != nil {
				r.Report(d)
			}
		}
	})
}

// LogReporter writes diagnostics to logger: resolved handlers at Debug,
// missing handlers at Warn.
func LogReporter(logger *slog.Logger) Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return ReporterFunc(func(d Diagnostic) {
		level := slog.LevelDebug
		if d.Kind == KindHandlerNotFound {
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, d.Outcome,
			"kind", string(d.Kind),
			"handler", d.Handler,
			"owner", d.Owner,
			"static", d.Static,
			"params", core.FormatTypes(d.Params),
		)
	})
}
