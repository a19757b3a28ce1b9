package guard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jdziat/simple-block-guard/pkg/core"
	"github.com/jdziat/simple-block-guard/pkg/resolve"
)

// Guard runs guarded methods and redirects block signals to block handlers.
// A Guard holds no per-call state and is safe for concurrent use.
type Guard struct {
	registry    *core.Registry
	locator     *resolve.Locator
	logger      *slog.Logger
	eventBuffer int

	mu sync.RWMutex

	// Hooks
	onEvent     []func(context.Context, core.Event)
	onBlocked   []func(context.Context, string, *core.BlockError)
	onHandled   []func(context.Context, string, *core.Method)
	onEscalated []func(context.Context, string, *core.BlockError, core.EscalationReason)
	onFailed    []func(context.Context, string, error)

	// Event stream
	eventSubs []chan core.Event
}

// New creates a Guard resolving classes through reg.
func New(reg *core.Registry, opts ...Option) *Guard {
	o := NewOptions()
	for _, opt := range opts {
		opt.Apply(o)
	}
	if o.Reporter == nil {
		o.Reporter = resolve.LogReporter(o.Logger)
	}

	return &Guard{
		registry:    reg,
		locator:     resolve.NewLocator(o.Reporter),
		logger:      o.Logger,
		eventBuffer: o.EventBuffer,
	}
}

// Registry returns the class registry.
func (g *Guard) Registry() *core.Registry {
	return g.registry
}

// Invoke runs one intercepted call.
//
// The declared method is resolved first; failing that, or finding no
// resource declaration on it, aborts the call with an error wrapping
// core.ErrMethodNotResolved or core.ErrResourceNotDeclared. Then jp.Proceed
// runs. Its result and ordinary errors are returned unchanged. A block signal
// is passed to the configured block handler, whose result (or own failure)
// becomes the result of the call; with no handler configured or found, the
// original error is returned unchanged.
func (g *Guard) Invoke(ctx context.Context, jp *core.JoinPoint) (any, error) {
	method, err := g.resolveMethod(jp)
	if err != nil {
		return nil, err
	}

	res := method.Resource()
	if res == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrResourceNotDeclared, method)
	}
	resource := resourceName(res, method)

	g.logger.Debug("entering guarded resource", "resource", resource, "method", method.String())

	start := time.Now()
	result, err := jp.Proceed(ctx)
	if err == nil {
		g.emit(ctx, &core.CallPassed{Resource: resource, Duration: time.Since(start), Timestamp: time.Now()})
		return result, nil
	}

	blockErr, ok := core.AsBlock(err)
	if !ok {
		g.logger.Debug("guarded resource failed", "resource", resource, "error", err)
		g.emit(ctx, &core.CallFailed{Resource: resource, Error: err, Duration: time.Since(start), Timestamp: time.Now()})
		return result, err
	}

	g.logger.Info("guarded resource blocked", "resource", resource, "kind", string(blockErr.Kind), "message", blockErr.Message)
	g.emit(ctx, &core.CallBlocked{Resource: resource, Block: blockErr, Timestamp: time.Now()})

	return g.handleBlock(ctx, jp, method, res, resource, err, blockErr)
}

func (g *Guard) handleBlock(
	ctx context.Context,
	jp *core.JoinPoint,
	method *core.Method,
	res *core.Resource,
	resource string,
	err error,
	blockErr *core.BlockError,
) (any, error) {
	if res.BlockHandler == "" {
		return nil, g.escalate(ctx, resource, "", core.ReasonNoHandler, err, blockErr)
	}

	lookup := res.BlockHandlerClass
	if lookup == nil {
		lookup = g.targetClass(jp)
	}

	h, found := g.locator.FindHandler(lookup, res.BlockHandler, res.MustBeStatic(), method.Params(), method.Return())
	if !found {
		return nil, g.escalate(ctx, resource, res.BlockHandler, core.ReasonHandlerNotFound, err, blockErr)
	}

	args := make([]any, len(jp.Args), len(jp.Args)+1)
	copy(args, jp.Args)
	args = append(args, blockErr)

	var recv any
	if !h.IsStatic() {
		recv = jp.Target
	}

	start := time.Now()
	out, invokeErr := h.Invoke(recv, args)
	if invokeErr != nil {
		if ie, ok := invokeErr.(*core.InvocationError); ok {
			invokeErr = ie.Err
		}
		g.logger.Warn("block handler failed", "resource", resource, "handler", h.String(), "error", invokeErr)
		g.emit(ctx, &core.HandlerFailed{
			Resource:  resource,
			Handler:   h.String(),
			Block:     blockErr,
			Error:     invokeErr,
			Timestamp: time.Now(),
		})
		return nil, invokeErr
	}

	g.emitHandled(ctx, &core.BlockHandled{
		Resource:  resource,
		Handler:   h.String(),
		Block:     blockErr,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}, h)
	return out, nil
}

func (g *Guard) escalate(
	ctx context.Context,
	resource, handlerName string,
	reason core.EscalationReason,
	err error,
	blockErr *core.BlockError,
) error {
	g.logger.Warn("block signal escalated", "resource", resource, "handler", handlerName, "reason", string(reason))
	g.emit(ctx, &core.BlockEscalated{
		Resource:  resource,
		Handler:   handlerName,
		Reason:    reason,
		Block:     blockErr,
		Timestamp: time.Now(),
	})
	return err
}

// resolveMethod finds the declared method for jp on jp.Class, or on the class
// of the target's runtime type.
func (g *Guard) resolveMethod(jp *core.JoinPoint) (*core.Method, error) {
	class := jp.Class
	if class == nil {
		var ok bool
		class, ok = g.registry.ClassOf(jp.Target)
		if !ok {
			return nil, fmt.Errorf("%w: %w %T", core.ErrMethodNotResolved, core.ErrUnknownClass, jp.Target)
		}
	}
	return resolve.DeclaredMethod(class, jp.Signature.Name, jp.Signature.Params)
}

// targetClass is where instance-relative handler lookup starts: the class of
// the target's runtime type, falling back to the explicit join point class.
func (g *Guard) targetClass(jp *core.JoinPoint) *core.Class {
	if c, ok := g.registry.ClassOf(jp.Target); ok {
		return c
	}
	return jp.Class
}

func resourceName(res *core.Resource, m *core.Method) string {
	if res.Name != "" {
		return res.Name
	}
	return m.Owner().Name() + "." + m.Name()
}
