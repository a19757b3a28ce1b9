package guard

import (
	"context"
	"slices"

	"github.com/jdziat/simple-block-guard/pkg/core"
)

// OnEvent registers a callback invoked synchronously for every event.
func (g *Guard) OnEvent(fn func(context.Context, core.Event)) {
	g.mu.Lock()
	g.onEvent = append(g.onEvent, fn)
	g.mu.Unlock()
}

// OnBlocked registers a callback for when a guarded method returns a block signal.
func (g *Guard) OnBlocked(fn func(context.Context, string, *core.BlockError)) {
	g.mu.Lock()
	g.onBlocked = append(g.onBlocked, fn)
	g.mu.Unlock()
}

// OnHandled registers a callback for when a block handler returns successfully.
func (g *Guard) OnHandled(fn func(context.Context, string, *core.Method)) {
	g.mu.Lock()
	g.onHandled = append(g.onHandled, fn)
	g.mu.Unlock()
}

// OnEscalated registers a callback for when a block signal is returned to the caller.
func (g *Guard) OnEscalated(fn func(context.Context, string, *core.BlockError, core.EscalationReason)) {
	g.mu.Lock()
	g.onEscalated = append(g.onEscalated, fn)
	g.mu.Unlock()
}

// OnFailed registers a callback for when a guarded method fails with an
// ordinary error, or a block handler fails.
func (g *Guard) OnFailed(fn func(context.Context, string, error)) {
	g.mu.Lock()
	g.onFailed = append(g.onFailed, fn)
	g.mu.Unlock()
}

// Events returns a channel for receiving guard events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (g *Guard) Events() <-chan core.Event {
	ch := make(chan core.Event, g.eventBuffer)
	g.mu.Lock()
	g.eventSubs = append(g.eventSubs, ch)
	g.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
// The channel is not closed; callers must stop reading before calling Unsubscribe.
func (g *Guard) Unsubscribe(ch <-chan core.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, sub := range g.eventSubs {
		if sub == ch {
			g.eventSubs = append(g.eventSubs[:i], g.eventSubs[i+1:]...)
			return
		}
	}
}

// emit runs the hooks for e and fans it out to subscribers. Subscribers that
// are full drop the event so a slow consumer never blocks a guarded call.
func (g *Guard) emit(ctx context.Context, e core.Event) {
	g.mu.RLock()
	onEvent := slices.Clone(g.onEvent)
	onBlocked := slices.Clone(g.onBlocked)
	onEscalated := slices.Clone(g.onEscalated)
	onFailed := slices.Clone(g.onFailed)
	subs := make([]chan core.Event, len(g.eventSubs))
	copy(subs, g.eventSubs)
	g.mu.RUnlock()

	for _, fn := range onEvent {
		fn(ctx, e)
	}

	switch ev := e.(type) {
	case *core.CallBlocked:
		for _, fn := range onBlocked {
			fn(ctx, ev.Resource, ev.Block)
		}
	case *core.BlockEscalated:
		for _, fn := range onEscalated {
			fn(ctx, ev.Resource, ev.Block, ev.Reason)
		}
	case *core.CallFailed:
		for _, fn := range onFailed {
			fn(ctx, ev.Resource, ev.Error)
		}
	case *core.HandlerFailed:
		for _, fn := range onFailed {
			fn(ctx, ev.Resource, ev.Error)
		}
	}

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// emitHandled runs OnHandled hooks, which need the resolved method rather
// than its name, then emits the BlockHandled event.
func (g *Guard) emitHandled(ctx context.Context, e *core.BlockHandled, h *core.Method) {
	g.mu.RLock()
	onHandled := slices.Clone(g.onHandled)
	g.mu.RUnlock()

	for _, fn := range onHandled {
		fn(ctx, e.Resource, h)
	}
	g.emit(ctx, e)
}
