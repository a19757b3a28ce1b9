package resolve

import (
	"fmt"
	"reflect"

	"github.com/jdziat/simple-block-guard/pkg/core"
)

var blockErrorType = reflect.TypeOf((*core.BlockError)(nil))

// Locator finds block handlers. It holds no resolution state, only the
// Reporter that receives diagnostics, and is safe for concurrent use.
type Locator struct {
	reporter Reporter
}

// NewLocator creates a Locator. A nil reporter discards diagnostics.
func NewLocator(r Reporter) *Locator {
	if r == nil {
		r = Nop()
	}
	return &Locator{reporter: r}
}

// ExpectedParams returns the handler parameter shape for a method with the
// given parameters: the same list with *core.BlockError appended.
func ExpectedParams(params []reflect.Type) []reflect.Type {
	expected := make([]reflect.Type, len(params), len(params)+1)
	copy(expected, params)
	return append(expected, blockErrorType)
}

// FindHandler searches lookup and its superclasses, excluding core.Root, for
// the first method that
//   - is named name,
//   - is static when mustBeStatic is set,
//   - returns a type assignable to ret (a void handler only for a void ret),
//   - takes exactly ExpectedParams(params).
//
// It reports KindHandlerResolved or KindHandlerNotFound and returns false
// when nothing matched. Not finding a handler is not an error.
func (l *Locator) FindHandler(lookup *core.Class, name string, mustBeStatic bool, params []reflect.Type, ret reflect.Type) (*core.Method, bool) {
	expected := ExpectedParams(params)

	for _, c := range Ancestors(lookup) {
		if c.IsRoot() {
			break
		}
		for _, m := range c.DeclaredMethods() {
			if m.Name() != name {
				continue
			}
			if mustBeStatic && !m.IsStatic() {
				continue
			}
			if !returnAssignable(m.Return(), ret) {
				continue
			}
			if !sameTypes(m.Params(), expected) {
				continue
			}

			l.reporter.Report(Diagnostic{
				Kind:    KindHandlerResolved,
				Handler: name,
				Owner:   c.Name(),
				Static:  m.IsStatic(),
				Params:  expected,
				Outcome: fmt.Sprintf("resolved %s", m),
			})
			return m, true
		}
	}

	owner := "<nil>"
	if lookup != nil {
		owner = lookup.Name()
	}
	staticNote := ""
	if mustBeStatic {
		staticNote = " static"
	}
	l.reporter.Report(Diagnostic{
		Kind:    KindHandlerNotFound,
		Handler: name,
		Owner:   owner,
		Static:  mustBeStatic,
		Params:  expected,
		Outcome: fmt.Sprintf("cannot find%s method %s%s in class %s or its superclasses", staticNote, name, core.FormatTypes(expected), owner),
	})
	return nil, false
}

// returnAssignable reports whether a handler returning got can stand in for a
// method returning want. nil means void.
func returnAssignable(got, want reflect.Type) bool {
	if want == nil || got == nil {
		return want == got
	}
	return got.AssignableTo(want)
}
