package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yildizm/h5view/internal/dataset"
	"github.com/yildizm/h5view/internal/errors"
)

// fakeStore serves slices of n values per row and counts reads per key.
type fakeStore struct {
	catalog *dataset.Catalog
	gate    chan struct{}
	fail    atomic.Int32
	mu      sync.Mutex
	calls   map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		catalog: dataset.NewCatalog([]dataset.Meta{{Path: "routput/Dmd", Shape: []int{1000, 5}, Type: "float64"}}),
		calls:   make(map[string]int),
	}
}

func (f *fakeStore) Catalog() *dataset.Catalog { return f.catalog }
func (f *fakeStore) Close() error              { return nil }

func (f *fakeStore) ReadSlice(ctx context.Context, path string, w dataset.Window) (*dataset.Slice, error) {
	key := dataset.Key{Path: path, Window: w}
	f.mu.Lock()
	f.calls[key.String()]++
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail.Load() > 0 {
		f.fail.Add(-1)
		return nil, errors.Newf(errors.IOFailure, path, "truncated")
	}
	return &dataset.Slice{Key: key, Shape: w.Shape(), Values: make([]float64, w.Size())}, nil
}

func (f *fakeStore) callCount(k dataset.Key) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[k.String()]
}

func rows(start, end int) dataset.Key {
	return dataset.Key{Path: "routput/Dmd", Window: dataset.Window{{Start: start, End: end}, {Start: 0, End: 5}}}
}

// sizeOf is the budget charge of a rows() slice.
func sizeOf(n int) int64 {
	s := &dataset.Slice{Key: rows(0, n), Values: make([]float64, n*5)}
	return s.Bytes()
}

func (c *Cache) pinCount(k dataset.Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pins[k.String()]
}

func TestConcurrentGetsShareOneRead(t *testing.T) {
	fs := newFakeStore()
	fs.gate = make(chan struct{})
	c := New(fs, Options{Budget: 1 << 20})
	defer c.Close()

	key := rows(0, 120)
	const n = 16
	results := make([]*dataset.Slice, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := c.Get(context.Background(), key)
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}

	require.Eventually(t, func() bool { return c.pinCount(key) == n+1 }, time.Second, time.Millisecond)
	close(fs.gate)
	wg.Wait()

	assert.Equal(t, 1, fs.callCount(key))
	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Equal(t, 0, c.pinCount(key))

	s, ok := c.Peek(key)
	require.True(t, ok)
	assert.Same(t, results[0], s)
}

func TestBudgetNeverExceeded(t *testing.T) {
	fs := newFakeStore()
	budget := sizeOf(10)*3 + 7
	c := New(fs, Options{Budget: budget})
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		start := (i * 37) % 900
		length := 1 + (i*13)%25
		_, err := c.Get(ctx, rows(start, start+length))
		require.NoError(t, err)

		st := c.Stats()
		assert.LessOrEqual(t, st.Bytes, budget, "after get %d", i)
		assert.LessOrEqual(t, st.Bytes, c.Budget())
	}
	assert.Positive(t, c.Stats().Evictions)
}

func TestLeastRecentlyUsedIsEvicted(t *testing.T) {
	fs := newFakeStore()
	c := New(fs, Options{Budget: sizeOf(10) * 2})
	ctx := context.Background()

	a, b, d := rows(0, 10), rows(10, 20), rows(20, 30)
	for _, k := range []dataset.Key{a, b} {
		_, err := c.Get(ctx, k)
		require.NoError(t, err)
	}
	_, ok := c.Peek(a)
	require.True(t, ok)

	_, err := c.Get(ctx, d)
	require.NoError(t, err)

	_, ok = c.Peek(a)
	assert.True(t, ok, "recently used entry must stay")
	_, ok = c.Peek(b)
	assert.False(t, ok, "least recently used entry must go")
	_, ok = c.Peek(d)
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestPinnedEntryIsNeverEvicted(t *testing.T) {
	fs := newFakeStore()
	c := New(fs, Options{Budget: sizeOf(10)})
	a, b := rows(0, 10), rows(10, 20)

	c.pin(a.String())
	require.NoError(t, c.insert(a.String(), &dataset.Slice{Key: a, Values: make([]float64, 50)}, c.gen))

	err := c.insert(b.String(), &dataset.Slice{Key: b, Values: make([]float64, 50)}, c.gen)
	assert.True(t, errors.Is(err, errors.ErrCacheOverBudget))
	_, ok := c.Peek(a)
	assert.True(t, ok)
	_, ok = c.Peek(b)
	assert.False(t, ok)

	c.unpin(a.String())
	require.NoError(t, c.insert(b.String(), &dataset.Slice{Key: b, Values: make([]float64, 50)}, c.gen))
	_, ok = c.Peek(a)
	assert.False(t, ok)
}

func TestFailuresReachEveryWaiterAndAreNotCached(t *testing.T) {
	fs := newFakeStore()
	fs.gate = make(chan struct{})
	fs.fail.Store(1)
	c := New(fs, Options{})
	key := rows(0, 10)

	const n = 4
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := c.Get(context.Background(), key)
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return c.pinCount(key) == n+1 }, time.Second, time.Millisecond)
	close(fs.gate)

	for i := 0; i < n; i++ {
		err := <-errs
		require.Error(t, err)
		assert.Equal(t, errors.IOFailure, errors.KindOf(err))
	}
	_, ok := c.Peek(key)
	assert.False(t, ok)

	_, err := c.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 2, fs.callCount(key))
	assert.Equal(t, int64(1), c.Stats().Failures)
}

func TestOversizedSliceIsDeliveredNotStored(t *testing.T) {
	fs := newFakeStore()
	c := New(fs, Options{Budget: sizeOf(10)})

	s, err := c.Get(context.Background(), rows(0, 500))
	require.NoError(t, err)
	assert.Len(t, s.Values, 2500)

	st := c.Stats()
	assert.Equal(t, 0, st.Entries)
	assert.Equal(t, int64(0), st.Bytes)
}

func TestWaiterCancellationDoesNotAbortRead(t *testing.T) {
	fs := newFakeStore()
	fs.gate = make(chan struct{})
	c := New(fs, Options{})
	key := rows(0, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, key)
		done <- err
	}()
	require.Eventually(t, func() bool { return fs.callCount(key) == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(fs.gate)
	require.Eventually(t, func() bool {
		_, ok := c.Peek(key)
		return ok
	}, time.Second, time.Millisecond)
}

func TestCloseAbandonsReads(t *testing.T) {
	fs := newFakeStore()
	fs.gate = make(chan struct{})
	c := New(fs, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := c.Get(context.Background(), rows(0, 10))
		done <- err
	}()
	require.Eventually(t, func() bool { return fs.callCount(rows(0, 10)) == 1 }, time.Second, time.Millisecond)
	c.Close()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPurge(t *testing.T) {
	fs := newFakeStore()
	c := New(fs, Options{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.Get(ctx, rows(i*10, i*10+10))
		require.NoError(t, err)
	}
	require.Equal(t, 3, c.Stats().Entries)

	c.Purge()
	st := c.Stats()
	assert.Equal(t, 0, st.Entries)
	assert.Equal(t, int64(0), st.Bytes)

	err := c.insert("stale", &dataset.Slice{}, c.gen-1)
	assert.Error(t, err)
	assert.Equal(t, 0, c.Stats().Entries)
}

func ExampleCache_Get() {
	fs := newFakeStore()
	c := New(fs, Options{Budget: 1 << 20})
	defer c.Close()

	s, _ := c.Get(context.Background(), rows(110, 120))
	_, hit := c.Peek(rows(110, 120))
	fmt.Println(s.Key, len(s.Values), hit)
	// Output: routput/Dmd[110:120,0:5] 50 true
}
