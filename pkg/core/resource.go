package core

import (
	"fmt"

	"github.com/jdziat/simple-block-guard/pkg/security"
)

// Resource declares a guarded method.
type Resource struct {
	// Name is the logical resource name. It is informational and used to
	// label events, metrics and block records.
	Name string

	// BlockHandler names the method invoked when the guarded method fails
	// with a *BlockError. Empty means no handler is configured.
	BlockHandler string

	// BlockHandlerClass, when set, is where the handler is looked up, and
	// only static methods are eligible. When nil the handler is looked up on
	// the target's runtime class and may be static or instance.
	BlockHandlerClass *Class
}

// MustBeStatic reports whether only static handlers are eligible.
func (r *Resource) MustBeStatic() bool {
	return r.BlockHandlerClass != nil
}

// Guarded attaches a resource declaration to a method. It panics when the
// resource or handler name is malformed.
func Guarded(r Resource) MethodOption {
	if r.Name != "" {
		if err := security.ValidateResourceName(r.Name); err != nil {
			panic(fmt.Sprintf("blockguard: resource %q: %v", r.Name, err))
		}
	}
	if r.BlockHandler != "" {
		if err := security.ValidateName(r.BlockHandler); err != nil {
			panic(fmt.Sprintf("blockguard: block handler %q: %v", r.BlockHandler, err))
		}
	}
	return methodOptionFunc(func(m *Method) {
		res := r
		m.resource = &res
	})
}
