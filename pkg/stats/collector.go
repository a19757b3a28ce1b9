package stats

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jdziat/simple-block-guard/pkg/core"
	"github.com/jdziat/simple-block-guard/pkg/internal/retry"
	"github.com/jdziat/simple-block-guard/pkg/schedule"
	"github.com/jdziat/simple-block-guard/pkg/security"
)

// shutdownFlushTimeout bounds the final flush after Start's context ends.
const shutdownFlushTimeout = 5 * time.Second

// EventSource is a guard event stream. *guard.Guard implements it.
type EventSource interface {
	Events() <-chan core.Event
	Unsubscribe(ch <-chan core.Event)
}

type bucketKey struct {
	resource string
	minute   time.Time
}

// Collector aggregates guard events and writes them to storage.
type Collector struct {
	source        EventSource
	store         core.Storage
	retention     time.Duration
	flushInterval time.Duration
	pruneSchedule schedule.Schedule
	retry         retry.Config
	logger        *slog.Logger

	mu       sync.Mutex
	counters map[bucketKey]*core.StatCounters
	pending  []*core.BlockRecord

	// ready is closed once the collector has subscribed to events.
	ready     chan struct{}
	readyOnce sync.Once
}

// NewCollector creates a Collector reading from source and writing to store.
func NewCollector(source EventSource, store core.Storage, opts ...Option) *Collector {
	c := &Collector{
		source:        source,
		store:         store,
		retention:     DefaultRetention,
		flushInterval: DefaultFlushInterval,
		pruneSchedule: schedule.Every(time.Hour),
		retry:         retry.DefaultConfig(),
		logger:        slog.Default(),
		counters:      make(map[bucketKey]*core.StatCounters),
		ready:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	return c
}

// WaitReady blocks until the collector has subscribed to events.
func (c *Collector) WaitReady() {
	<-c.ready
}

// Start consumes events until ctx is cancelled, flushing on the flush
// interval and pruning on the prune schedule. Events already buffered when
// ctx ends are consumed and written by a final flush before Start returns.
func (c *Collector) Start(ctx context.Context) {
	events := c.source.Events()
	defer c.source.Unsubscribe(events)

	c.readyOnce.Do(func() { close(c.ready) })

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	// pruneC stays nil while the prune schedule has no next run.
	var pruneC <-chan time.Time
	pruneTimer := time.NewTimer(time.Hour)
	defer pruneTimer.Stop()
	if d, ok := c.untilNextPrune(); ok {
		pruneTimer.Reset(d)
		pruneC = pruneTimer.C
	} else {
		pruneTimer.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			c.drain(events)
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
			_ = c.Flush(flushCtx)
			cancel()
			return
		case e := <-events:
			c.handleEvent(e)
		case <-ticker.C:
			_ = c.Flush(ctx)
		case <-pruneC:
			if _, err := c.Prune(ctx); err != nil {
				c.logger.Warn("failed to prune guard stats", "error", err)
			}
			if d, ok := c.untilNextPrune(); ok {
				pruneTimer.Reset(d)
			} else {
				pruneC = nil
			}
		}
	}
}

func (c *Collector) drain(events <-chan core.Event) {
	for {
		select {
		case e := <-events:
			c.handleEvent(e)
		default:
			return
		}
	}
}

// untilNextPrune returns the delay before the next scheduled prune. It
// reports false when the schedule never fires again, as robfig/cron does for
// expressions such as "0 0 30 2 *" by returning the zero time.
func (c *Collector) untilNextPrune() (time.Duration, bool) {
	now := time.Now()
	next := c.pruneSchedule.Next(now)
	if next.IsZero() {
		c.logger.Warn("prune schedule has no next run; scheduled pruning disabled", "schedule", c.pruneSchedule)
		return 0, false
	}
	d := next.Sub(now)
	if d < 0 {
		return 0, true
	}
	return d, true
}

func (c *Collector) handleEvent(e core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev := e.(type) {
	case *core.CallPassed:
		c.bucket(ev.Resource, ev.Timestamp).Passed++
	case *core.CallFailed:
		c.bucket(ev.Resource, ev.Timestamp).Failed++
	case *core.CallBlocked:
		c.bucket(ev.Resource, ev.Timestamp).Blocked++
	case *core.BlockHandled:
		c.bucket(ev.Resource, ev.Timestamp).Handled++
		c.record(ev.Resource, ev.Block, ev.Handler, core.OutcomeHandled, "", ev.Block.Message, ev.Timestamp)
	case *core.BlockEscalated:
		c.bucket(ev.Resource, ev.Timestamp).Escalated++
		c.record(ev.Resource, ev.Block, ev.Handler, core.OutcomeEscalated, string(ev.Reason), ev.Block.Message, ev.Timestamp)
	case *core.HandlerFailed:
		c.bucket(ev.Resource, ev.Timestamp).Failed++
		c.record(ev.Resource, ev.Block, ev.Handler, core.OutcomeHandlerFailed, "", errorMessage(ev.Error), ev.Timestamp)
	}
}

func (c *Collector) bucket(resource string, ts time.Time) *core.StatCounters {
	if ts.IsZero() {
		ts = time.Now()
	}
	key := bucketKey{resource: resource, minute: ts.Truncate(time.Minute)}
	sc, ok := c.counters[key]
	if !ok {
		sc = &core.StatCounters{}
		c.counters[key] = sc
	}
	return sc
}

func (c *Collector) record(resource string, be *core.BlockError, handler string, outcome core.BlockOutcome, reason, msg string, ts time.Time) {
	rec := &core.BlockRecord{
		Resource:  resource,
		Handler:   handler,
		Outcome:   outcome,
		Reason:    reason,
		Message:   msg,
		CreatedAt: ts,
	}
	if be != nil {
		rec.Kind = be.Kind
	}
	c.pending = append(c.pending, rec)
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Flush writes accumulated counters and block records to storage. Writes are
// retried with backoff; rows that still fail are logged and dropped, and the
// failures are returned joined.
func (c *Collector) Flush(ctx context.Context) error {
	c.mu.Lock()
	counters := c.counters
	pending := c.pending
	c.counters = make(map[bucketKey]*core.StatCounters)
	c.pending = nil
	c.mu.Unlock()

	var errs []error
	for key, sc := range counters {
		if sc.IsZero() {
			continue
		}
		err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
			return c.store.UpsertCounters(ctx, key.resource, key.minute, *sc)
		})
		if err != nil {
			c.logger.Warn("failed to write guard stats", "resource", key.resource, "error", err)
			errs = append(errs, err)
		}
	}

	for _, rec := range pending {
		err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
			err := c.store.AppendBlock(ctx, rec)
			if errors.Is(err, security.ErrInvalidResourceName) || errors.Is(err, security.ErrResourceNameTooLong) {
				return retry.Permanent(err)
			}
			return err
		})
		if err != nil {
			c.logger.Warn("failed to write block record", "resource", rec.Resource, "outcome", string(rec.Outcome), "error", err)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Prune deletes rows older than the retention window. It is a no-op when
// retention is disabled.
func (c *Collector) Prune(ctx context.Context) (int64, error) {
	if c.retention <= 0 {
		return 0, nil
	}
	n, err := c.store.Prune(ctx, time.Now().Add(-c.retention))
	if err == nil && n > 0 {
		c.logger.Debug("pruned guard stats", "rows", n)
	}
	return n, err
}
