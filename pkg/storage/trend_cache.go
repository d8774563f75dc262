package storage

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"shoptrend-go/pkg/logger"
	"shoptrend-go/pkg/metrics"
	"shoptrend-go/pkg/trends"
)

// TrendCache holds the latest snapshot in memory. The snapshot and its
// timestamp are replaced together under one lock; readers get copies.
type TrendCache struct {
	builder SnapshotBuilder
	clock   trends.Clock
	metrics *metrics.Metrics
	log     *logger.Logger

	mu         sync.RWMutex
	snapshot   *trends.Snapshot
	lastUpdate time.Time

	bootstrapping atomic.Bool
	bootstrapDone chan struct{}
}

type CacheOption func(*TrendCache)

func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *TrendCache) {
		c.metrics = m
	}
}

// NewTrendCache creates an empty cache. Nothing is assembled until Refresh or
// the first Read.
func NewTrendCache(builder SnapshotBuilder, clock trends.Clock, opts ...CacheOption) *TrendCache {
	c := &TrendCache{
		builder: builder,
		clock:   clock,
		log:     logger.GetLogger().WithField("component", "trend_cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh assembles a new snapshot and swaps it in. On failure the previous
// snapshot and timestamp stay in place and the error is returned.
func (c *TrendCache) Refresh(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh panicked: %v", r)
		}
		c.metrics.ObserveRefresh(time.Since(start), err)
		if err != nil {
			c.log.WithFields(map[string]interface{}{
				"failed_at": c.clock.Now().Format(time.RFC3339),
				"error":     err.Error(),
			}).Error("Trend refresh failed, keeping previous snapshot")
		}
	}()

	snapshot, err := c.builder.Assemble(ctx)
	if err != nil {
		return fmt.Errorf("assemble trends: %w", err)
	}
	if snapshot == nil {
		return fmt.Errorf("assemble trends: no snapshot returned")
	}

	c.mu.Lock()
	c.snapshot = snapshot
	c.lastUpdate = snapshot.AssembledAt
	c.mu.Unlock()

	c.metrics.SetSnapshot(snapshot.Len(), snapshot.AssembledAt)
	c.log.WithFields(map[string]interface{}{
		"snapshot_id": snapshot.ID,
		"records":     snapshot.Len(),
		"real":        snapshot.RealCount,
	}).Info("Trend cache refreshed")
	return nil
}

// Read returns a copy of the cached snapshot. While the cache has never been
// populated it returns the empty snapshot and starts one background refresh;
// it never waits for that refresh.
func (c *TrendCache) Read(ctx context.Context) trends.Snapshot {
	c.mu.RLock()
	current := c.snapshot
	c.mu.RUnlock()

	if current != nil {
		return current.Clone()
	}

	c.bootstrap(ctx)
	return trends.Snapshot{Records: []trends.TrendRecord{}}
}

// bootstrap starts a refresh unless one is already running. The refresh
// outlives the request that triggered it.
func (c *TrendCache) bootstrap(ctx context.Context) {
	if !c.bootstrapping.CompareAndSwap(false, true) {
		return
	}
	done := make(chan struct{})
	c.mu.Lock()
	c.bootstrapDone = done
	c.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		defer c.bootstrapping.Store(false)
		c.log.Info("Cache empty on read, starting bootstrap refresh")
		_ = c.Refresh(detached)
	}()
}

// WaitBootstrap blocks until the running bootstrap refresh, if any, finishes
// or ctx is done.
func (c *TrendCache) WaitBootstrap(ctx context.Context) error {
	c.mu.RLock()
	done := c.bootstrapDone
	c.mu.RUnlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *TrendCache) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Status{LastUpdate: c.lastUpdate}
	if c.snapshot != nil {
		st.Count = c.snapshot.Len()
		st.SnapshotID = c.snapshot.ID
		st.RealCount = c.snapshot.RealCount
	}
	return st
}
