// Package checkpoint implements the gorm/sqlite-backed checkpoint store:
// one row per (runID, component, step), holding an opaque, versioned blob
// whose format is owned entirely by the controller or component that wrote
// it. The substrate never interprets the blob; it only indexes and
// retrieves it.
package checkpoint

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Record is the gorm model backing one checkpoint write.
type Record struct {
	ID        uint `gorm:"primaryKey"`
	RunID     string `gorm:"index:idx_checkpoint_lookup,priority:1"`
	Component string `gorm:"index:idx_checkpoint_lookup,priority:2"`
	Step      int    `gorm:"index:idx_checkpoint_lookup,priority:3"`
	Blob      []byte
	CreatedAt time.Time
}

func (Record) TableName() string { return "checkpoints" }

// Store persists and retrieves checkpoint blobs.
type Store struct {
	db *gorm.DB
}

// New wraps an already-migrated *gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates the checkpoints table if it doesn't exist.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Record{})
}

// Save upserts the blob for (runID, component, step). A second save for the
// same triple replaces the prior blob, matching the manager's "every C
// steps" cadence overwriting nothing it needs to keep (older steps are
// retained as separate rows for inspection, not compacted here).
func (s *Store) Save(ctx context.Context, runID, component string, step int, blob []byte) error {
	rec := Record{RunID: runID, Component: component, Step: step, Blob: blob, CreatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Where("run_id = ? AND component = ? AND step = ?", runID, component, step).
		Assign(Record{Blob: blob, CreatedAt: rec.CreatedAt}).
		FirstOrCreate(&rec).Error
}

// Load retrieves the blob for (runID, component, step).
func (s *Store) Load(ctx context.Context, runID, component string, step int) ([]byte, error) {
	var rec Record
	err := s.db.WithContext(ctx).
		Where("run_id = ? AND component = ? AND step = ?", runID, component, step).
		First(&rec).Error
	if err != nil {
		return nil, fmt.Errorf("checkpoint load %s/%s@%d: %w", runID, component, step, err)
	}
	return rec.Blob, nil
}

// LatestStep returns the highest step checkpointed for (runID, component),
// used when LOAD_CHECKPOINT is issued without an explicit step (resume from
// latest).
func (s *Store) LatestStep(ctx context.Context, runID, component string) (int, error) {
	var rec Record
	err := s.db.WithContext(ctx).
		Where("run_id = ? AND component = ?", runID, component).
		Order("step DESC").
		First(&rec).Error
	if err != nil {
		return 0, fmt.Errorf("checkpoint latest %s/%s: %w", runID, component, err)
	}
	return rec.Step, nil
}
