package guard

import (
	"context"
	"fmt"

	"github.com/jdziat/simple-block-guard/pkg/core"
	"github.com/jdziat/simple-block-guard/pkg/internal/handler"
	"github.com/jdziat/simple-block-guard/pkg/resolve"
)

// Call calls the instance method name on target through the guard.
//
// The method is the first one on the target's class chain with that name
// whose parameters accept args. The real invocation unwraps the
// *core.InvocationError from Method.Invoke, so the guard sees the method's
// own failure just as a direct call would.
func (g *Guard) Call(ctx context.Context, target any, name string, args ...any) (any, error) {
	class, ok := g.registry.ClassOf(target)
	if !ok {
		return nil, fmt.Errorf("%w: %w %T", core.ErrMethodNotResolved, core.ErrUnknownClass, target)
	}

	m, err := callable(class, name, args)
	if err != nil {
		return nil, err
	}

	jp := &core.JoinPoint{
		Target:    target,
		Signature: m.Signature(),
		Args:      args,
		Proceed: func(context.Context) (any, error) {
			out, err := m.Invoke(target, args)
			if ie, ok := err.(*core.InvocationError); ok {
				return out, ie.Err
			}
			return out, err
		},
	}
	return g.Invoke(ctx, jp)
}

func callable(class *core.Class, name string, args []any) (*core.Method, error) {
	for _, c := range resolve.Ancestors(class) {
		for _, m := range c.DeclaredMethods() {
			if m.IsStatic() || m.Name() != name || !accepts(m, args) {
				continue
			}
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: no method %s on %s accepts %d argument(s)", core.ErrMethodNotResolved, name, class, len(args))
}

func accepts(m *core.Method, args []any) bool {
	params := m.Params()
	if len(params) != len(args) {
		return false
	}
	for i, arg := range args {
		if _, err := handler.Value(arg, params[i]); err != nil {
			return false
		}
	}
	return true
}
