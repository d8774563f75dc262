package service

import (
	"context"
	"time"

	"shoptrend-go/pkg/storage"
	"shoptrend-go/pkg/trends"
)

// TrendService is the cached trend snapshot as seen by the API.
type TrendService interface {
	Read(ctx context.Context) trends.Snapshot
	Refresh(ctx context.Context) error
	Status() storage.Status
}

// ScheduleService reports on the daily refresh loop.
type ScheduleService interface {
	Running() bool
	NextRun(now time.Time) time.Time
}
