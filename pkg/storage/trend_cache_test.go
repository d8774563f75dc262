package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoptrend-go/pkg/metrics"
	"shoptrend-go/pkg/trends"
)

var kst = time.FixedZone("KST", 9*60*60)

// fakeBuilder returns snapshots built from a sequence number. release, when
// set, blocks every Assemble call until it is closed.
type fakeBuilder struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
	panics  bool
}

func (b *fakeBuilder) Assemble(ctx context.Context) (*trends.Snapshot, error) {
	n := b.calls.Add(1)
	if b.release != nil {
		<-b.release
	}
	if b.panics {
		panic("boom")
	}
	if b.err != nil {
		return nil, b.err
	}
	return makeSnapshot(fmt.Sprintf("snap-%d", n), 3, time.Date(2026, 10, 16, 12, 0, int(n), 0, kst)), nil
}

func makeSnapshot(id string, size int, at time.Time) *trends.Snapshot {
	records := make([]trends.TrendRecord, size)
	for i := range records {
		records[i] = trends.TrendRecord{
			Rank:        i + 1,
			Keyword:     fmt.Sprintf("%s-kw%d", id, i+1),
			SearchCount: trends.BaseSearchCount - i*trends.SearchCountStep,
			TrendChange: trends.TrendStable,
			Category:    trends.CategoryShopping,
			UpdatedAt:   at,
		}
	}
	return &trends.Snapshot{ID: id, Records: records, AssembledAt: at, RealCount: size}
}

func newCache(b SnapshotBuilder, opts ...CacheOption) *TrendCache {
	return NewTrendCache(b, trends.FixedClock(time.Date(2026, 10, 16, 12, 0, 0, 0, kst), kst), opts...)
}

func TestTrendCache_RefreshThenRead(t *testing.T) {
	cache := newCache(&fakeBuilder{})

	require.NoError(t, cache.Refresh(context.Background()))

	s := cache.Read(context.Background())
	assert.Equal(t, "snap-1", s.ID)
	assert.Len(t, s.Records, 3)

	st := cache.Status()
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, "snap-1", st.SnapshotID)
	assert.True(t, st.LastUpdate.Equal(s.AssembledAt))
	assert.True(t, st.HasData())
}

func TestTrendCache_ReadReturnsCopy(t *testing.T) {
	cache := newCache(&fakeBuilder{})
	require.NoError(t, cache.Refresh(context.Background()))

	first := cache.Read(context.Background())
	first.Records[0].Keyword = "mutated"

	second := cache.Read(context.Background())
	assert.Equal(t, "snap-1-kw1", second.Records[0].Keyword)
}

func TestTrendCache_EmptyReadBootstrapsOnceWithoutBlocking(t *testing.T) {
	b := &fakeBuilder{release: make(chan struct{})}
	cache := newCache(b)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := cache.Read(context.Background())
			assert.True(t, s.IsEmpty())
			assert.NotNil(t, s.Records)
		}()
	}
	// Readers return while the bootstrap is still blocked in Assemble.
	wg.Wait()

	require.Eventually(t, func() bool { return b.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(b.release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, cache.WaitBootstrap(ctx))

	assert.Equal(t, int32(1), b.calls.Load())
	assert.Equal(t, "snap-1", cache.Read(context.Background()).ID)
}

func TestTrendCache_BootstrapSurvivesRequestCancellation(t *testing.T) {
	b := &fakeBuilder{release: make(chan struct{})}
	cache := newCache(b)

	reqCtx, cancelReq := context.WithCancel(context.Background())
	cache.Read(reqCtx)
	cancelReq()
	close(b.release)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, cache.WaitBootstrap(ctx))
	assert.Equal(t, 3, cache.Status().Count)
}

func TestTrendCache_FailedRefreshKeepsState(t *testing.T) {
	b := &fakeBuilder{}
	cache := newCache(b)
	require.NoError(t, cache.Refresh(context.Background()))
	before := cache.Status()

	b.err = errors.New("source unreachable")
	err := cache.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, b.err)
	assert.Equal(t, before, cache.Status())

	b.err = nil
	b.panics = true
	err = cache.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Equal(t, before, cache.Status())
	assert.Equal(t, "snap-1", cache.Read(context.Background()).ID)
}

func TestTrendCache_FailedFirstRefreshLeavesCacheEmpty(t *testing.T) {
	cache := newCache(&fakeBuilder{err: errors.New("down")})

	require.Error(t, cache.Refresh(context.Background()))

	st := cache.Status()
	assert.False(t, st.HasData())
	assert.Zero(t, st.Count)
}

func TestTrendCache_ConcurrentRefreshesAreAtomic(t *testing.T) {
	b := &fakeBuilder{}
	cache := newCache(b)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.Refresh(context.Background()))
		}()
	}

	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			s := cache.Read(context.Background())
			for _, r := range s.Records {
				if !r.UpdatedAt.Equal(s.AssembledAt) {
					t.Errorf("snapshot %s mixes records from another refresh", s.ID)
					return
				}
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-readerDone

	s := cache.Read(context.Background())
	assert.Contains(t, []string{"snap-1", "snap-2"}, s.ID)
	for i, r := range s.Records {
		assert.Equal(t, fmt.Sprintf("%s-kw%d", s.ID, i+1), r.Keyword)
	}
	assert.True(t, cache.Status().LastUpdate.Equal(s.AssembledAt))
}

func TestTrendCache_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	b := &fakeBuilder{}
	cache := newCache(b, WithCacheMetrics(m))

	require.NoError(t, cache.Refresh(context.Background()))
	b.err = errors.New("down")
	require.Error(t, cache.Refresh(context.Background()))

	count, err := testutil.GatherAndCount(m.Registry(), "shoptrend_refreshes_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per result label")
}
