// Package cache fronts a store.Store with a byte-bounded, least-recently-used
// cache of dataset slices. Concurrent requests for the same slice share one
// store read, failures are never cached, and a slice somebody is still
// waiting on is never evicted.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yildizm/h5view/internal/dataset"
	"github.com/yildizm/h5view/internal/errors"
	"github.com/yildizm/h5view/internal/logger"
	"github.com/yildizm/h5view/internal/monitor"
	"github.com/yildizm/h5view/internal/store"
)

// DefaultBudget is used when Options.Budget is not positive.
const DefaultBudget int64 = 256 << 20

// Metric names registered by the cache.
const (
	MetricHits      = "cache.hits"
	MetricMisses    = "cache.misses"
	MetricLoads     = "cache.loads"
	MetricFailures  = "cache.failures"
	MetricEvictions = "cache.evictions"
	MetricSkipped   = "cache.skipped"
	MetricBytes     = "cache.bytes"
	MetricLoadTime  = "cache.load_time"
)

// Options configures a Cache.
type Options struct {
	// Budget bounds the bytes of resident slices.
	Budget  int64
	Metrics *monitor.Registry
	Logger  *logger.Logger
}

type entry struct {
	key        string
	slice      *dataset.Slice
	bytes      int64
	lastAccess time.Time
	elem       *list.Element
}

// Cache is safe for concurrent use.
type Cache struct {
	store  store.Store
	budget int64
	log    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	lru     *list.List // front is most recent
	pins    map[string]int
	bytes   int64
	gen     uint64

	hits      *monitor.Counter
	misses    *monitor.Counter
	loads     *monitor.Counter
	failures  *monitor.Counter
	evictions *monitor.Counter
	skipped   *monitor.Counter
	resident  *monitor.Gauge
	loadTime  *monitor.Timer
}

// New creates a cache in front of s.
func New(s store.Store, opts Options) *Cache {
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}
	if opts.Metrics == nil {
		opts.Metrics = monitor.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := opts.Metrics
	return &Cache{
		store:     s,
		budget:    opts.Budget,
		log:       opts.Logger.WithComponent("cache"),
		ctx:       ctx,
		cancel:    cancel,
		entries:   make(map[string]*entry),
		lru:       list.New(),
		pins:      make(map[string]int),
		hits:      m.Counter(MetricHits),
		misses:    m.Counter(MetricMisses),
		loads:     m.Counter(MetricLoads),
		failures:  m.Counter(MetricFailures),
		evictions: m.Counter(MetricEvictions),
		skipped:   m.Counter(MetricSkipped),
		resident:  m.Gauge(MetricBytes),
		loadTime:  m.Timer(MetricLoadTime),
	}
}

// Budget returns the byte budget.
func (c *Cache) Budget() int64 {
	return c.budget
}

// Peek returns a resident slice without touching the store.
func (c *Cache) Peek(key dataset.Key) (*dataset.Slice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.touch(key.String())
	if ok {
		c.hits.Inc()
	}
	return s, ok
}

// Get returns the slice for key, reading it from the store on a miss.
// Concurrent callers with the same key share one read. The read runs under
// the cache's context, so a caller giving up through ctx does not abort it
// for the others.
func (c *Cache) Get(ctx context.Context, key dataset.Key) (*dataset.Slice, error) {
	if s, ok := c.Peek(key); ok {
		return s, nil
	}
	c.misses.Inc()

	k := key.String()
	ch := c.group.DoChan(k, func() (interface{}, error) {
		return c.load(key, k)
	})
	c.pin(k)
	defer c.unpin(k)

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*dataset.Slice), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) load(key dataset.Key, k string) (*dataset.Slice, error) {
	c.pin(k)
	defer c.unpin(k)

	c.mu.Lock()
	// a flight that finished just before this one may have stored it
	if s, ok := c.touch(k); ok {
		c.mu.Unlock()
		return s, nil
	}
	gen := c.gen
	c.mu.Unlock()

	start := time.Now()
	s, err := c.store.ReadSlice(c.ctx, key.Path, key.Window)
	c.loadTime.Since(start)
	if err != nil {
		c.failures.Inc()
		c.log.WarnWithFields("load failed", []logger.Field{logger.F("key", k), logger.Error(err)})
		return nil, err
	}
	c.loads.Inc()
	c.log.DebugWithFields("loaded", []logger.Field{logger.F("key", k), logger.F("bytes", s.Bytes()), logger.Duration(time.Since(start))})

	if err := c.insert(k, s, gen); err != nil {
		c.skipped.Inc()
		c.log.DebugWithFields("not cached", []logger.Field{logger.F("key", k), logger.Error(err)})
	}
	return s, nil
}

// touch must be called with mu held.
func (c *Cache) touch(k string) (*dataset.Slice, bool) {
	e, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	e.lastAccess = time.Now()
	c.lru.MoveToFront(e.elem)
	return e.slice, true
}

func (c *Cache) pin(k string) {
	c.mu.Lock()
	c.pins[k]++
	c.mu.Unlock()
}

func (c *Cache) unpin(k string) {
	c.mu.Lock()
	if c.pins[k] <= 1 {
		delete(c.pins, k)
	} else {
		c.pins[k]--
	}
	c.mu.Unlock()
}

// insert stores s unless the cache was purged since the read started or it
// cannot be made to fit.
func (c *Cache) insert(k string, s *dataset.Slice, gen uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return errors.Newf(errors.IOFailure, k, "cache purged during read")
	}
	size := s.Bytes()
	if size > c.budget {
		return errors.Newf(errors.CacheOverBudget, k, "%d bytes exceed budget of %d", size, c.budget)
	}
	if old, ok := c.entries[k]; ok {
		c.remove(old)
	}
	if err := c.makeRoom(size); err != nil {
		return err
	}

	e := &entry{key: k, slice: s, bytes: size, lastAccess: time.Now()}
	e.elem = c.lru.PushFront(e)
	c.entries[k] = e
	c.bytes += size
	c.resident.Set(float64(c.bytes))
	return nil
}

// makeRoom evicts least recently used, unpinned entries until size more
// bytes fit. It must be called with mu held.
func (c *Cache) makeRoom(size int64) error {
	elem := c.lru.Back()
	for c.bytes+size > c.budget {
		for elem != nil && c.pins[elem.Value.(*entry).key] > 0 {
			elem = elem.Prev()
		}
		if elem == nil {
			return errors.Newf(errors.CacheOverBudget, "", "%d bytes pinned", c.bytes)
		}
		victim := elem.Value.(*entry)
		elem = elem.Prev()
		c.remove(victim)
		c.evictions.Inc()
		c.log.DebugWithFields("evicted", []logger.Field{logger.F("key", victim.key), logger.F("bytes", victim.bytes)})
	}
	return nil
}

func (c *Cache) remove(e *entry) {
	c.lru.Remove(e.elem)
	delete(c.entries, e.key)
	c.bytes -= e.bytes
	c.resident.Set(float64(c.bytes))
}

// Purge drops every resident slice. Reads in flight finish but are not
// stored.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.lru.Init()
	c.bytes = 0
	c.gen++
	c.resident.Set(0)
}

// Close abandons reads in flight.
func (c *Cache) Close() {
	c.cancel()
}

// Stats is a snapshot of the cache.
type Stats struct {
	Hits      int64
	Misses    int64
	Loads     int64
	Failures  int64
	Evictions int64
	Entries   int
	Bytes     int64
	Budget    int64
}

// Stats returns the current counters and residency.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	entries, bytes := len(c.entries), c.bytes
	c.mu.Unlock()
	return Stats{
		Hits:      c.hits.Get(),
		Misses:    c.misses.Get(),
		Loads:     c.loads.Get(),
		Failures:  c.failures.Get(),
		Evictions: c.evictions.Get(),
		Entries:   entries,
		Bytes:     bytes,
		Budget:    c.budget,
	}
}
