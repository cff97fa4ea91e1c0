package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clock.Now
	return c, clock
}

func put[T any](t *testing.T, c *LRUCache[T], key string, v T) {
	t.Helper()
	_, err := c.GetOrLoad(key, func() (T, error) { return v, nil })
	require.NoError(t, err)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	put(t, c, "a", 1)
	put(t, c, "b", 2)
	_, _ = c.Get("a")
	put(t, c, "c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should be evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	put(t, c, "a", 1)
	put(t, c, "b", 2)

	clock.Advance(30 * time.Second)
	put(t, c, "c", 3)
	clock.Advance(45 * time.Second)

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestLRUClear(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	put(t, c, "a", 1)
	put(t, c, "b", 2)

	c.Clear()
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Zero(t, c.Size())
	put(t, c, "c", 3)
	assert.Equal(t, 1, c.Size())
}

func TestGetOrLoadCallsLoaderOnce(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.GetOrLoad("k", load)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, 42, r)
	}
	assert.LessOrEqual(t, calls.Load(), int32(8))
	v, err := c.GetOrLoad("k", func() (int, error) { return 0, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v, "value is cached after load")
}

func TestGetOrLoadDoesNotCacheFailures(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	busy := errors.New("database is locked")

	v, err := c.GetOrLoad("total", func() (int, error) { return 0, busy })
	assert.ErrorIs(t, err, busy)
	assert.Zero(t, v)
	assert.Zero(t, c.Size())

	v, err = c.GetOrLoad("total", func() (int, error) { return 25000, nil })
	require.NoError(t, err)
	assert.Equal(t, 25000, v)
	assert.Equal(t, 1, c.Size())
}

func TestGetOrLoadDoesNotCacheAcrossClear(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int)
	go func() {
		v, _ := c.GetOrLoad("k", func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
		done <- v
	}()

	<-started
	c.Clear()
	close(release)
	assert.Equal(t, 1, <-done)

	_, ok := c.Get("k")
	assert.False(t, ok, "stale load must not be cached")
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	a, clock := newTestCache(10, time.Second)
	b := NewLRUCache[string](10, time.Hour)
	b.now = clock.Now
	put(t, a, "x", 1)
	put(t, b, "y", "y")

	m := NewManager()
	m.Register(a)
	m.Register(b)

	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, m.CleanNow())
	assert.Zero(t, a.Size())
	assert.Equal(t, 1, b.Size())
}

func TestManagerRejectsBadSchedule(t *testing.T) {
	m := NewManager()
	assert.Error(t, m.Start("every minute please"))
}

func TestManagerStartStop(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Start("@every 1h"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Stop(ctx)
}
