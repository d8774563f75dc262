package storage

import (
	"context"
	"time"

	"shoptrend-go/pkg/trends"
)

// SnapshotBuilder produces a complete snapshot; *trends.Assembler is the
// production implementation.
type SnapshotBuilder interface {
	Assemble(ctx context.Context) (*trends.Snapshot, error)
}

// Status summarizes the cached state without copying the records.
type Status struct {
	Count      int       `json:"count"`
	LastUpdate time.Time `json:"last_update"`
	SnapshotID string    `json:"snapshot_id"`
	RealCount  int       `json:"real_count"`
}

// HasData reports whether at least one refresh has succeeded.
func (s Status) HasData() bool {
	return !s.LastUpdate.IsZero()
}
