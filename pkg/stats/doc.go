// Package stats records what the guard did.
//
// A Collector subscribes to a guard's event stream, aggregates per-resource
// counters into one-minute buckets, and appends an entry to the block log
// for every blocked call that was handled, escalated, or whose handler
// failed. Counters and records are written to a core.Storage on a flush
// interval; rows older than the retention window are pruned on a schedule.
//
// Usage:
//
//	store := storage.NewGormStorage(db)
//	_ = store.Migrate(ctx)
//	c := stats.NewCollector(g, store, stats.WithRetention(24*time.Hour))
//	go c.Start(ctx)
//	c.WaitReady()
package stats
