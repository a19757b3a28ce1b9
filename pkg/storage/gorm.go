package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jdziat/simple-block-guard/pkg/core"
	"github.com/jdziat/simple-block-guard/pkg/security"
)

// GormStorage implements core.Storage using GORM.
type GormStorage struct {
	db *gorm.DB
}

var _ core.Storage = (*GormStorage)(nil)

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// DB returns the underlying database handle.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// Migrate creates the necessary tables.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.BlockRecord{}, &core.ResourceStat{})
}

// AppendBlock adds a record to the block log. An empty ID is replaced with a
// new UUID and a zero CreatedAt with the current time. The message is
// sanitized before it is stored.
func (s *GormStorage) AppendBlock(ctx context.Context, rec *core.BlockRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := security.ValidateResourceName(rec.Resource); err != nil {
		return err
	}
	rec.Message = security.SanitizeErrorMessage(rec.Message)
	return s.db.WithContext(ctx).Create(rec).Error
}

// ListBlocks returns the most recent block records, newest first. An empty
// resource lists all resources. A non-positive limit means
// security.DefaultListLimit and larger limits are capped at
// security.MaxListLimit.
func (s *GormStorage) ListBlocks(ctx context.Context, resource string, limit int) ([]core.BlockRecord, error) {
	var records []core.BlockRecord
	q := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(security.ClampListLimit(limit))
	if resource != "" {
		q = q.Where("resource = ?", resource)
	}
	return records, q.Find(&records).Error
}

// UpsertCounters adds c to the minute bucket of resource containing ts.
func (s *GormStorage) UpsertCounters(ctx context.Context, resource string, ts time.Time, c core.StatCounters) error {
	if c.IsZero() {
		return nil
	}
	ts = ts.Truncate(time.Minute)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing core.ResourceStat
		result := tx.
			Where("resource = ? AND timestamp = ?", resource, ts).
			First(&existing)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return tx.Create(&core.ResourceStat{
				Resource:  resource,
				Timestamp: ts,
				Passed:    c.Passed,
				Failed:    c.Failed,
				Blocked:   c.Blocked,
				Handled:   c.Handled,
				Escalated: c.Escalated,
			}).Error
		}
		if result.Error != nil {
			return result.Error
		}

		return tx.Model(&existing).Updates(map[string]any{
			"passed":    gorm.Expr("passed + ?", c.Passed),
			"failed":    gorm.Expr("failed + ?", c.Failed),
			"blocked":   gorm.Expr("blocked + ?", c.Blocked),
			"handled":   gorm.Expr("handled + ?", c.Handled),
			"escalated": gorm.Expr("escalated + ?", c.Escalated),
		}).Error
	})
}

// GetStatsHistory returns minute buckets in ascending time order. Zero
// bounds are open and an empty resource matches all resources.
func (s *GormStorage) GetStatsHistory(ctx context.Context, resource string, since, until time.Time) ([]core.ResourceStat, error) {
	var stats []core.ResourceStat
	q := s.db.WithContext(ctx).Order("timestamp ASC")

	if resource != "" {
		q = q.Where("resource = ?", resource)
	}
	if !since.IsZero() {
		q = q.Where("timestamp >= ?", since)
	}
	if !until.IsZero() {
		q = q.Where("timestamp <= ?", until)
	}

	return stats, q.Find(&stats).Error
}

// Prune deletes block records and stat buckets older than before and
// returns the number of rows removed.
func (s *GormStorage) Prune(ctx context.Context, before time.Time) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("created_at < ?", before).Delete(&core.BlockRecord{})
		if result.Error != nil {
			return result.Error
		}
		deleted += result.RowsAffected

		result = tx.Where("timestamp < ?", before).Delete(&core.ResourceStat{})
		if result.Error != nil {
			return result.Error
		}
		deleted += result.RowsAffected
		return nil
	})
	return deleted, err
}
