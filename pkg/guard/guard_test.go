package guard

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-block-guard/pkg/core"
	"github.com/jdziat/simple-block-guard/pkg/resolve"
)

// ---------------------------------------------------------------------------
// Pass-through
// ---------------------------------------------------------------------------

func TestCall_PassesResultThrough(t *testing.T) {
	f := newFixture()

	out, err := f.guard.Call(context.Background(), &TestService{}, "Hello", int64(5))
	require.NoError(t, err)
	assert.Equal(t, "Hello at 5", out)
}

func TestCall_OrdinaryFailureUnchanged(t *testing.T) {
	f := newFixture()
	svc := &TestService{plainErr: errDatabase}

	_, err := f.guard.Call(context.Background(), svc, "Query", 1)
	require.Error(t, err)
	assert.True(t, err == errDatabase, "expected the exact error value, got %v", err)
	assert.Nil(t, svc.handlerArgs)
}

// ---------------------------------------------------------------------------
// Block handling
// ---------------------------------------------------------------------------

func TestCall_InstanceBlockHandler(t *testing.T) {
	f := newFixture()
	svc := &TestService{}

	out, err := f.guard.Call(context.Background(), svc, "Hello", int64(-1))
	require.NoError(t, err)
	assert.Equal(t, "Oops, error occurred at -1", out)

	require.Len(t, svc.handlerArgs, 2)
	assert.Equal(t, int64(-1), svc.handlerArgs[0])
	be, ok := svc.handlerArgs[1].(*core.BlockError)
	require.True(t, ok)
	assert.Equal(t, "invalid arg", be.Message)
}

func TestCall_StaticHandlerOnExplicitClass(t *testing.T) {
	f := newFixture()
	block := core.Block("test blocked")
	svc := &TestService{testErr: block}

	out, err := f.guard.Call(context.Background(), svc, "Test")
	require.NoError(t, err)
	assert.Nil(t, out)

	require.Len(t, f.utilRec.calls, 1)
	assert.Same(t, block, f.utilRec.calls[0])
}

func TestCall_StaticOverloadChosenByShape(t *testing.T) {
	f := newFixture()

	out, err := f.guard.Call(context.Background(), &TestService{}, "HelloAnother", "bad")
	require.NoError(t, err)
	assert.Equal(t, "Fallback for bad: oops", out)
	assert.Empty(t, f.utilRec.calls)
}

func TestCall_WrappedBlockSignal(t *testing.T) {
	f := newFixture()

	out, err := f.guard.Call(context.Background(), &TestService{}, "Query", 7)
	require.NoError(t, err)
	assert.Equal(t, "fallback 7 (flow)", out)
}

func TestCall_NoHandlerConfiguredEscalatesSameSignal(t *testing.T) {
	f := newFixture()

	_, err := f.guard.Call(context.Background(), &TestService{}, "Escalate")
	require.Error(t, err)

	be, ok := core.AsBlock(err)
	require.True(t, ok)
	assert.Equal(t, "no handler", be.Message)
}

func TestInvoke_EscalatesExactErrorValue(t *testing.T) {
	f := newFixture()
	block := core.Block("exact")
	target := &TestService{}

	m, err := resolve.DeclaredMethod(f.service, "Escalate", nil)
	require.NoError(t, err)

	_, err = f.guard.Invoke(context.Background(), &core.JoinPoint{
		Target:    target,
		Signature: m.Signature(),
		Proceed:   func(context.Context) (any, error) { return nil, block },
	})
	assert.True(t, err == error(block))
}

func TestCall_HandlerNotFoundEscalates(t *testing.T) {
	f := newFixture()

	var reasons []core.EscalationReason
	f.guard.OnEscalated(func(_ context.Context, _ string, _ *core.BlockError, r core.EscalationReason) {
		reasons = append(reasons, r)
	})

	_, err := f.guard.Call(context.Background(), &TestService{}, "Missing", int64(3))
	require.Error(t, err)
	assert.False(t, errors.Is(err, core.ErrMethodNotResolved), "a missing handler is not a resolution error")

	be, ok := core.AsBlock(err)
	require.True(t, ok)
	assert.Equal(t, "missing handler", be.Message)
	assert.Equal(t, []core.EscalationReason{core.ReasonHandlerNotFound}, reasons)
}

func TestCall_ExplicitClassIgnoresInstanceHandlers(t *testing.T) {
	reg := core.NewRegistry()
	type holder struct{}
	util := reg.Define("Holder", (*holder)(nil))
	util.Declare("Handle", func(h *holder, be *core.BlockError) {})

	svc := reg.Define("Svc", (*TestService)(nil))
	svc.Declare("Test", (*TestService).Test,
		core.Guarded(core.Resource{Name: "test", BlockHandler: "Handle", BlockHandlerClass: util}))

	g := New(reg, WithLogger(discardLogger()))
	block := core.Block("blocked")

	_, err := g.Call(context.Background(), &TestService{testErr: block}, "Test")
	assert.True(t, err == error(block))
}

func TestCall_HandlerInheritedThroughEmbedding(t *testing.T) {
	f := newFixture()

	out, err := f.guard.Call(context.Background(), &ChildService{}, "Fetch", int64(9))
	require.NoError(t, err)
	assert.Equal(t, "inherited fallback 9", out)
}

func TestCall_InheritedGuardedMethodUsesRuntimeClass(t *testing.T) {
	f := newFixture()
	f.child.Declare("HelloBlockHandler", func(c *ChildService, n int64, be *core.BlockError) string {
		return "child handler"
	})

	out, err := f.guard.Call(context.Background(), &ChildService{}, "Hello", int64(-2))
	require.NoError(t, err)
	assert.Equal(t, "child handler", out)
}

// ---------------------------------------------------------------------------
// Handler failures
// ---------------------------------------------------------------------------

func TestCall_HandlerFailureIsUnwrapped(t *testing.T) {
	f := newFixture()
	handlerErr := errors.New("handler exploded")
	svc := &TestService{handlerErr: handlerErr}

	var failed []error
	f.guard.OnFailed(func(_ context.Context, _ string, err error) {
		failed = append(failed, err)
	})

	_, err := f.guard.Call(context.Background(), svc, "Hello", int64(-1))
	require.Error(t, err)
	assert.True(t, err == handlerErr, "expected the handler's own error, got %T: %v", err, err)

	var invErr *core.InvocationError
	assert.False(t, errors.As(err, &invErr))
	assert.Equal(t, []error{handlerErr}, failed)
}

func TestCall_HandlerReturningInvocationErrorIsUnwrappedOnce(t *testing.T) {
	reg := core.NewRegistry()
	inner := &core.InvocationError{Method: "inner", Err: errors.New("deep")}

	svc := reg.Define("Svc", (*TestService)(nil))
	svc.Declare("Test", (*TestService).Test, core.Guarded(core.Resource{Name: "t", BlockHandler: "Fallback"}))
	svc.Declare("Fallback", func(s *TestService, be *core.BlockError) error { return inner })

	g := New(reg, WithLogger(discardLogger()))
	_, err := g.Call(context.Background(), &TestService{testErr: core.Block("b")}, "Test")
	assert.Same(t, inner, err)
}

// ---------------------------------------------------------------------------
// Fatal resolution errors
// ---------------------------------------------------------------------------

func TestInvoke_MethodNotResolvedIsFatal(t *testing.T) {
	f := newFixture()
	proceeded := false

	_, err := f.guard.Invoke(context.Background(), &core.JoinPoint{
		Target:    &TestService{},
		Signature: core.Signature{Name: "Hello", Params: []reflect.Type{reflect.TypeOf("")}},
		Proceed: func(context.Context) (any, error) {
			proceeded = true
			return nil, nil
		},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMethodNotResolved)
	assert.False(t, proceeded)
}

func TestInvoke_UnknownTargetClass(t *testing.T) {
	f := newFixture()

	_, err := f.guard.Invoke(context.Background(), &core.JoinPoint{
		Target:    struct{}{},
		Signature: core.Signature{Name: "Hello"},
		Proceed:   func(context.Context) (any, error) { return nil, nil },
	})
	assert.ErrorIs(t, err, core.ErrMethodNotResolved)
	assert.ErrorIs(t, err, core.ErrUnknownClass)
}

func TestCall_UnguardedMethodIsFatal(t *testing.T) {
	f := newFixture()

	_, err := f.guard.Call(context.Background(), &TestService{}, "Unguarded")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrResourceNotDeclared)
}

func TestCall_NoMatchingMethod(t *testing.T) {
	f := newFixture()

	_, err := f.guard.Call(context.Background(), &TestService{}, "Hello", "wrong type")
	assert.ErrorIs(t, err, core.ErrMethodNotResolved)

	_, err = f.guard.Call(context.Background(), 42, "Hello")
	assert.ErrorIs(t, err, core.ErrUnknownClass)
}

func TestInvoke_ExplicitJoinPointClass(t *testing.T) {
	f := newFixture()

	out, err := f.guard.Invoke(context.Background(), &core.JoinPoint{
		Target:    &ChildService{},
		Class:     f.service,
		Signature: core.Signature{Name: "Hello", Params: []reflect.Type{reflect.TypeOf(int64(0))}, Return: reflect.TypeOf("")},
		Args:      []any{int64(4)},
		Proceed:   func(context.Context) (any, error) { return "proceeded", nil },
	})
	require.NoError(t, err)
	assert.Equal(t, "proceeded", out)
}

// ---------------------------------------------------------------------------
// Hooks, events and logging
// ---------------------------------------------------------------------------

func TestHooks_BlockedAndHandled(t *testing.T) {
	f := newFixture()

	var blocked []string
	var handled []string
	f.guard.OnBlocked(func(_ context.Context, resource string, be *core.BlockError) {
		blocked = append(blocked, resource+":"+be.Message)
	})
	f.guard.OnHandled(func(_ context.Context, resource string, h *core.Method) {
		handled = append(handled, resource+":"+h.Name())
	})

	_, err := f.guard.Call(context.Background(), &TestService{}, "Hello", int64(-1))
	require.NoError(t, err)

	assert.Equal(t, []string{"hello:invalid arg"}, blocked)
	assert.Equal(t, []string{"hello:HelloBlockHandler"}, handled)
}

func TestEvents_Sequence(t *testing.T) {
	f := newFixture()
	events := f.guard.Events()
	defer f.guard.Unsubscribe(events)

	ctx := context.Background()
	_, _ = f.guard.Call(ctx, &TestService{}, "Hello", int64(1))
	_, _ = f.guard.Call(ctx, &TestService{}, "Hello", int64(-1))
	_, _ = f.guard.Call(ctx, &TestService{}, "Escalate")
	_, _ = f.guard.Call(ctx, &TestService{plainErr: errDatabase}, "Query", 1)

	var kinds []string
	for len(events) > 0 {
		kinds = append(kinds, reflect.TypeOf(<-events).Elem().Name())
	}
	assert.Equal(t, []string{
		"CallPassed",
		"CallBlocked", "BlockHandled",
		"CallBlocked", "BlockEscalated",
		"CallFailed",
	}, kinds)
}

func TestEvents_DefaultResourceName(t *testing.T) {
	f := newFixture()
	events := f.guard.Events()
	defer f.guard.Unsubscribe(events)

	_, err := f.guard.Call(context.Background(), &TestService{}, "Query", 2)
	require.NoError(t, err)

	e := <-events
	blocked, ok := e.(*core.CallBlocked)
	require.True(t, ok)
	assert.Equal(t, "TestServiceImpl.Query", blocked.Resource)
	assert.Equal(t, core.BlockFlow, blocked.Block.Kind)
}

func TestEvents_Unsubscribe(t *testing.T) {
	f := newFixture()
	events := f.guard.Events()
	f.guard.Unsubscribe(events)

	_, _ = f.guard.Call(context.Background(), &TestService{}, "Hello", int64(1))
	assert.Len(t, events, 0)
}

func TestEvents_FullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	f := newFixture(WithLogger(discardLogger()), WithEventBuffer(1))
	events := f.guard.Events()
	defer f.guard.Unsubscribe(events)

	for i := 0; i < 5; i++ {
		_, err := f.guard.Call(context.Background(), &TestService{}, "Hello", int64(i))
		require.NoError(t, err)
	}
	assert.Len(t, events, 1)
}

func TestOnEvent_SeesEveryEvent(t *testing.T) {
	f := newFixture()
	var mu sync.Mutex
	count := 0
	f.guard.OnEvent(func(context.Context, core.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	_, _ = f.guard.Call(context.Background(), &TestService{}, "Missing", int64(1))
	assert.Equal(t, 2, count)
}

func TestHooks_RegisteredFromInsideHook(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var once sync.Once
	var late []string
	f.guard.OnEvent(func(context.Context, core.Event) {
		once.Do(func() {
			f.guard.OnEvent(func(_ context.Context, e core.Event) {
				late = append(late, reflect.TypeOf(e).Elem().Name())
			})
			f.guard.OnBlocked(func(_ context.Context, resource string, _ *core.BlockError) {
				late = append(late, "blocked:"+resource)
			})
		})
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.guard.Call(ctx, &TestService{}, "Hello", int64(1))
		done <- err
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Call did not return after a hook registered another hook")
	}
	assert.Empty(t, late, "hooks registered during dispatch run from the next event")

	_, err := f.guard.Call(ctx, &TestService{}, "Hello", int64(-1))
	require.NoError(t, err)
	assert.Equal(t, []string{"CallBlocked", "blocked:hello", "BlockHandled"}, late)
}

func TestLogging(t *testing.T) {
	var buf strings.Builder
	var mu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{mu: &mu, w: &buf}, &slog.HandlerOptions{Level: slog.LevelDebug}))

	f := newFixture(WithLogger(logger))
	_, _ = f.guard.Call(context.Background(), &TestService{}, "Missing", int64(1))

	out := buf.String()
	assert.Contains(t, out, "entering guarded resource")
	assert.Contains(t, out, "guarded resource blocked")
	assert.Contains(t, out, "cannot find method NoSuchHandler(int64, *core.BlockError)")
	assert.Contains(t, out, "block signal escalated")
}

func TestWithReporter_ReceivesDiagnostics(t *testing.T) {
	var diags []resolve.Diagnostic
	f := newFixture(WithLogger(discardLogger()), WithReporter(resolve.ReporterFunc(func(d resolve.Diagnostic) {
		diags = append(diags, d)
	})))

	_, err := f.guard.Call(context.Background(), &TestService{}, "Hello", int64(-1))
	require.NoError(t, err)

	require.Len(t, diags, 1)
	assert.Equal(t, resolve.KindHandlerResolved, diags[0].Kind)
	assert.Equal(t, "TestServiceImpl", diags[0].Owner)
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestCall_Concurrent(t *testing.T) {
	f := newFixture()

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := int64(i)
			if i%2 == 1 {
				n = -n
			}
			if _, err := f.guard.Call(context.Background(), &TestService{}, "Hello", n); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
}
