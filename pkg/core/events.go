package core

import "time"

// Event is the interface for all guard events.
type Event interface {
	eventMarker()
}

// EscalationReason explains why a block signal reached the caller.
type EscalationReason string

const (
	// ReasonNoHandler means the resource has no block handler configured.
	ReasonNoHandler EscalationReason = "no_handler"
	// ReasonHandlerNotFound means a handler was configured but no compatible
	// method exists on the lookup class chain.
	ReasonHandlerNotFound EscalationReason = "handler_not_found"
)

// CallPassed is emitted when a guarded method returns without failure.
type CallPassed struct {
	Resource  string
	Duration  time.Duration
	Timestamp time.Time
}

func (*CallPassed) eventMarker() {}

// CallFailed is emitted when a guarded method fails with an ordinary error.
type CallFailed struct {
	Resource  string
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}

func (*CallFailed) eventMarker() {}

// CallBlocked is emitted when a guarded method fails with a block signal,
// before any handler runs.
type CallBlocked struct {
	Resource  string
	Block     *BlockError
	Timestamp time.Time
}

func (*CallBlocked) eventMarker() {}

// BlockHandled is emitted when a block handler returned successfully.
type BlockHandled struct {
	Resource  string
	Handler   string
	Block     *BlockError
	Duration  time.Duration
	Timestamp time.Time
}

func (*BlockHandled) eventMarker() {}

// BlockEscalated is emitted when the block signal is returned to the caller.
type BlockEscalated struct {
	Resource  string
	Handler   string
	Reason    EscalationReason
	Block     *BlockError
	Timestamp time.Time
}

func (*BlockEscalated) eventMarker() {}

// HandlerFailed is emitted when a resolved block handler was invoked and
// failed. Error is the handler's own failure.
type HandlerFailed struct {
	Resource  string
	Handler   string
	Block     *BlockError
	Error     error
	Timestamp time.Time
}

func (*HandlerFailed) eventMarker() {}
