package core

import (
	"context"
	"time"
)

// BlockOutcome is the terminal outcome of a blocked call.
type BlockOutcome string

const (
	OutcomeHandled       BlockOutcome = "handled"
	OutcomeEscalated     BlockOutcome = "escalated"
	OutcomeHandlerFailed BlockOutcome = "handler_failed"
)

// BlockRecord is one entry of the block log.
type BlockRecord struct {
	ID        string       `gorm:"primaryKey;size:36"`
	Resource  string       `gorm:"index:idx_block_records_resource_ts;size:255;not null"`
	Kind      BlockKind    `gorm:"size:32"`
	Handler   string       `gorm:"size:255"`
	Outcome   BlockOutcome `gorm:"size:32;not null"`
	Reason    string       `gorm:"size:64"`
	Message   string       `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"index:idx_block_records_resource_ts;not null"`
}

// ResourceStat stores per-resource statistics bucketed by minute.
type ResourceStat struct {
	ID        uint      `gorm:"primaryKey"`
	Resource  string    `gorm:"index:idx_resource_stats_resource_ts;size:255;not null"`
	Timestamp time.Time `gorm:"index:idx_resource_stats_resource_ts;not null"`
	Passed    int64     `gorm:"default:0"`
	Failed    int64     `gorm:"default:0"`
	Blocked   int64     `gorm:"default:0"`
	Handled   int64     `gorm:"default:0"`
	Escalated int64     `gorm:"default:0"`
}

// StatCounters are the increments added to a ResourceStat bucket.
type StatCounters struct {
	Passed    int64
	Failed    int64
	Blocked   int64
	Handled   int64
	Escalated int64
}

// IsZero reports whether all counters are zero.
func (c StatCounters) IsZero() bool {
	return c == StatCounters{}
}

// Storage defines the persistence layer for block records and resource stats.
type Storage interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Block log
	AppendBlock(ctx context.Context, rec *BlockRecord) error
	ListBlocks(ctx context.Context, resource string, limit int) ([]BlockRecord, error)

	// Resource stats
	UpsertCounters(ctx context.Context, resource string, ts time.Time, c StatCounters) error
	GetStatsHistory(ctx context.Context, resource string, since, until time.Time) ([]ResourceStat, error)

	// Retention
	Prune(ctx context.Context, before time.Time) (int64, error)
}
