// Package blockguard redirects blocked method calls to block handlers.
//
// This is the main package users should import. It re-exports the public
// types of the pkg/ packages for a clean API surface.
//
// Methods are declared on classes held by a Registry. A method declared with
// Guarded names the block handler to run when the method fails with a
// *BlockError; the guard finds the handler by name and shape (the original
// parameters followed by *BlockError) on the target's class chain, or only
// among the static methods of an explicit handler class.
//
// Basic usage:
//
//	classes := blockguard.NewRegistry()
//	svc := classes.Define("OrderService", (*OrderService)(nil))
//	svc.Declare("Place", (*OrderService).Place,
//	    blockguard.Guarded(blockguard.Resource{Name: "place", BlockHandler: "PlaceBlocked"}))
//	svc.Declare("PlaceBlocked", (*OrderService).PlaceBlocked)
//
//	g := blockguard.New(classes)
//	id, err := blockguard.CallAs[string](ctx, g, orders, "Place", order)
package blockguard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/jdziat/simple-block-guard/pkg/core"
	"github.com/jdziat/simple-block-guard/pkg/guard"
	"github.com/jdziat/simple-block-guard/pkg/metrics"
	"github.com/jdziat/simple-block-guard/pkg/resolve"
	"github.com/jdziat/simple-block-guard/pkg/schedule"
	"github.com/jdziat/simple-block-guard/pkg/security"
	"github.com/jdziat/simple-block-guard/pkg/stats"
	"github.com/jdziat/simple-block-guard/pkg/storage"
)

type (
	// Registry holds class definitions.
	Registry = core.Registry

	// Class describes a type, its superclass and its declared methods.
	Class = core.Class

	// ClassOption configures a Class at definition time.
	ClassOption = core.ClassOption

	// Method describes a declared method.
	Method = core.Method

	// MethodOption configures a Method at declaration time.
	MethodOption = core.MethodOption

	// Resource declares a guarded method and its block handler.
	Resource = core.Resource

	// Signature is the name and shape of a method.
	Signature = core.Signature

	// JoinPoint is one intercepted call.
	JoinPoint = core.JoinPoint

	// ProceedFunc runs the real invocation of a join point.
	ProceedFunc = core.ProceedFunc

	// BlockError is the block signal.
	BlockError = core.BlockError

	// BlockKind classifies why a call was blocked.
	BlockKind = core.BlockKind

	// MethodNotResolvedError reports that no declared method matched a call.
	MethodNotResolvedError = core.MethodNotResolvedError

	// InvocationError wraps a failure returned by an invoked method.
	InvocationError = core.InvocationError

	// Event is the interface for all guard events.
	Event = core.Event

	// CallPassed is emitted when a guarded call succeeds.
	CallPassed = core.CallPassed

	// CallFailed is emitted when a guarded call fails with an ordinary error.
	CallFailed = core.CallFailed

	// CallBlocked is emitted when a guarded call returns a block signal.
	CallBlocked = core.CallBlocked

	// BlockHandled is emitted when a block handler produced the result.
	BlockHandled = core.BlockHandled

	// BlockEscalated is emitted when a block signal reaches the caller.
	BlockEscalated = core.BlockEscalated

	// HandlerFailed is emitted when a block handler itself failed.
	HandlerFailed = core.HandlerFailed

	// EscalationReason explains why a block signal reached the caller.
	EscalationReason = core.EscalationReason

	// Storage persists block records and resource stats.
	Storage = core.Storage

	// BlockRecord is one entry of the block log.
	BlockRecord = core.BlockRecord

	// BlockOutcome is the terminal outcome of a blocked call.
	BlockOutcome = core.BlockOutcome

	// ResourceStat is a one-minute stats bucket.
	ResourceStat = core.ResourceStat

	// StatCounters are increments for a stats bucket.
	StatCounters = core.StatCounters

	// Guard runs guarded methods.
	Guard = guard.Guard

	// Option configures a Guard.
	Option = guard.Option

	// Options holds Guard configuration.
	Options = guard.Options

	// Reporter receives handler resolution diagnostics.
	Reporter = resolve.Reporter

	// Diagnostic describes the outcome of one handler search.
	Diagnostic = resolve.Diagnostic

	// Schedule reports when recurring work runs next.
	Schedule = schedule.Schedule

	// GormStorage implements Storage using GORM.
	GormStorage = storage.GormStorage

	// Collector writes guard events to a Storage.
	Collector = stats.Collector

	// CollectorOption configures a Collector.
	CollectorOption = stats.Option

	// Metrics exports guard events as Prometheus metrics.
	Metrics = metrics.Metrics

	// MetricsOption configures Metrics.
	MetricsOption = metrics.Option
)

// Block kinds
const (
	BlockGeneric   = core.BlockGeneric
	BlockFlow      = core.BlockFlow
	BlockDegrade   = core.BlockDegrade
	BlockSystem    = core.BlockSystem
	BlockAuthority = core.BlockAuthority
	BlockParamFlow = core.BlockParamFlow
)

// Escalation reasons
const (
	ReasonNoHandler       = core.ReasonNoHandler
	ReasonHandlerNotFound = core.ReasonHandlerNotFound
)

// Block outcomes
const (
	OutcomeHandled       = core.OutcomeHandled
	OutcomeEscalated     = core.OutcomeEscalated
	OutcomeHandlerFailed = core.OutcomeHandlerFailed
)

// Security limits
const (
	MaxNameLength         = security.MaxNameLength
	MaxResourceNameLength = security.MaxResourceNameLength
	MaxErrorMessageLength = security.MaxErrorMessageLength
	MaxListLimit          = security.MaxListLimit
)

// Error variables
var (
	ErrMethodNotResolved      = core.ErrMethodNotResolved
	ErrResourceNotDeclared    = core.ErrResourceNotDeclared
	ErrUnknownClass           = core.ErrUnknownClass
	ErrArgumentMismatch       = core.ErrArgumentMismatch
	ErrIncorrectArgumentCount = core.ErrIncorrectArgumentCount
	ErrInvalidName            = security.ErrInvalidName
	ErrInvalidResourceName    = security.ErrInvalidResourceName
)

// Root is the universal root class.
var Root = core.Root

// NewRegistry creates an empty class Registry.
func NewRegistry() *Registry {
	return core.NewRegistry()
}

// Extends sets the superclass of a class being defined.
func Extends(super *Class) ClassOption {
	return core.Extends(super)
}

// Guarded attaches a resource declaration to a method.
func Guarded(r Resource) MethodOption {
	return core.Guarded(r)
}

// New creates a Guard over the classes of reg.
func New(reg *Registry, opts ...Option) *Guard {
	return guard.New(reg, opts...)
}

// CallAs calls the instance method name on target through g and converts the
// result to T. A nil result yields the zero T.
func CallAs[T any](ctx context.Context, g *Guard, target any, name string, args ...any) (T, error) {
	var zero T
	out, err := g.Call(ctx, target, name, args...)
	if out == nil {
		return zero, err
	}
	v, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("blockguard: %s returned %T, not %T", name, out, zero)
	}
	return v, err
}

// Guard option functions

// WithLogger sets the guard's logger.
func WithLogger(l *slog.Logger) Option {
	return guard.WithLogger(l)
}

// WithReporter sets where handler resolution diagnostics go.
func WithReporter(r Reporter) Option {
	return guard.WithReporter(r)
}

// WithEventBuffer sets the buffer size of Events() subscriptions.
func WithEventBuffer(n int) Option {
	return guard.WithEventBuffer(n)
}

// LogReporter writes diagnostics to logger.
func LogReporter(logger *slog.Logger) Reporter {
	return resolve.LogReporter(logger)
}

// MultiReporter fans diagnostics out to every reporter.
func MultiReporter(reporters ...Reporter) Reporter {
	return resolve.Multi(reporters...)
}

// Block signals

// Block creates a generic block signal.
func Block(msg string) *BlockError {
	return core.Block(msg)
}

// BlockWithKind creates a block signal of the given kind.
func BlockWithKind(kind BlockKind, msg string) *BlockError {
	return core.BlockWithKind(kind, msg)
}

// AsBlock finds the first *BlockError in err's chain.
func AsBlock(err error) (*BlockError, bool) {
	return core.AsBlock(err)
}

// IsBlock reports whether err carries a block signal.
func IsBlock(err error) bool {
	return core.IsBlock(err)
}

// Storage and stats

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewCollector creates a stats Collector for the events of g.
func NewCollector(g *Guard, s Storage, opts ...CollectorOption) *Collector {
	return stats.NewCollector(g, s, opts...)
}

// WithRetention sets how long the collector keeps rows.
func WithRetention(d time.Duration) CollectorOption {
	return stats.WithRetention(d)
}

// WithFlushInterval sets how often the collector writes.
func WithFlushInterval(d time.Duration) CollectorOption {
	return stats.WithFlushInterval(d)
}

// WithPruneSchedule sets when the collector prunes.
func WithPruneSchedule(s Schedule) CollectorOption {
	return stats.WithPruneSchedule(s)
}

// NewMetrics creates and registers the guard's Prometheus metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	return metrics.New(opts...)
}

// Schedule functions

// Every creates a schedule that runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Daily creates a schedule that runs at a specific UTC time each day.
func Daily(hour, minute int) Schedule {
	return schedule.Daily(hour, minute)
}

// Weekly creates a schedule that runs at a specific UTC day and time each week.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron creates a schedule from a cron expression.
func Cron(expr string) Schedule {
	return schedule.Cron(expr)
}

// Validation

// ValidateName validates a class, method or handler name.
func ValidateName(name string) error {
	return security.ValidateName(name)
}

// ValidateResourceName validates a resource name.
func ValidateResourceName(name string) error {
	return security.ValidateResourceName(name)
}
