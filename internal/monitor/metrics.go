// Package monitor provides lock-free counters, gauges and timers and a
// registry that groups them per component. The dataset cache records its
// hits, misses, loads and evictions here and the status bar reads them back.
package monitor

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a thread-safe counter metric
type Counter struct {
	value atomic.Int64
	name  string
}

// NewCounter creates a new counter metric
func NewCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc increments the counter by 1
func (c *Counter) Inc() {
	c.value.Add(1)
}

// Add adds the given value to the counter
func (c *Counter) Add(value int64) {
	c.value.Add(value)
}

// Get returns the current counter value
func (c *Counter) Get() int64 {
	return c.value.Load()
}

// Reset resets the counter to 0
func (c *Counter) Reset() {
	c.value.Store(0)
}

// Name returns the counter name
func (c *Counter) Name() string {
	return c.name
}

// Gauge is a thread-safe value that can go up and down
type Gauge struct {
	bits atomic.Uint64
	name string
}

// NewGauge creates a new gauge metric
func NewGauge(name string) *Gauge {
	return &Gauge{name: name}
}

// Set sets the gauge to the given value
func (g *Gauge) Set(value float64) {
	g.bits.Store(math.Float64bits(value))
}

// Get returns the current gauge value
func (g *Gauge) Get() float64 {
	return math.Float64frombits(g.bits.Load())
}

// Add adds delta with a compare-and-swap loop
func (g *Gauge) Add(delta float64) {
	for {
		old := g.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if g.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Name returns the gauge name
func (g *Gauge) Name() string {
	return g.name
}

// Timer records durations: count, total, min and max
type Timer struct {
	name  string
	count atomic.Int64
	total atomic.Int64
	min   atomic.Int64
	max   atomic.Int64
}

// NewTimer creates a new timer metric
func NewTimer(name string) *Timer {
	t := &Timer{name: name}
	t.min.Store(math.MaxInt64)
	return t
}

// Record adds one observation
func (t *Timer) Record(d time.Duration) {
	ns := int64(d)
	t.count.Add(1)
	t.total.Add(ns)
	for {
		cur := t.min.Load()
		if ns >= cur || t.min.CompareAndSwap(cur, ns) {
			break
		}
	}
	for {
		cur := t.max.Load()
		if ns <= cur || t.max.CompareAndSwap(cur, ns) {
			break
		}
	}
}

// Since records the time elapsed since start
func (t *Timer) Since(start time.Time) {
	t.Record(time.Since(start))
}

// Count returns the number of observations
func (t *Timer) Count() int64 {
	return t.count.Load()
}

// Min returns the shortest observation, zero when empty
func (t *Timer) Min() time.Duration {
	if t.Count() == 0 {
		return 0
	}
	return time.Duration(t.min.Load())
}

// Max returns the longest observation
func (t *Timer) Max() time.Duration {
	return time.Duration(t.max.Load())
}

// Avg returns the mean observation, zero when empty
func (t *Timer) Avg() time.Duration {
	n := t.Count()
	if n == 0 {
		return 0
	}
	return time.Duration(t.total.Load() / n)
}

// Name returns the timer name
func (t *Timer) Name() string {
	return t.name
}

// Registry hands out named metrics, creating them on first use.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
	timers   map[string]*Timer
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
		timers:   make(map[string]*Timer),
	}
}

// Counter returns the counter called name
func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	c, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return c
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.counters[name]; !ok {
		c = NewCounter(name)
		r.counters[name] = c
	}
	return c
}

// Gauge returns the gauge called name
func (r *Registry) Gauge(name string) *Gauge {
	r.mu.RLock()
	g, ok := r.gauges[name]
	r.mu.RUnlock()
	if ok {
		return g
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok = r.gauges[name]; !ok {
		g = NewGauge(name)
		r.gauges[name] = g
	}
	return g
}

// Timer returns the timer called name
func (r *Registry) Timer(name string) *Timer {
	r.mu.RLock()
	t, ok := r.timers[name]
	r.mu.RUnlock()
	if ok {
		return t
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok = r.timers[name]; !ok {
		t = NewTimer(name)
		r.timers[name] = t
	}
	return t
}

// Snapshot is a point-in-time copy of every metric value.
type Snapshot struct {
	Counters map[string]int64
	Gauges   map[string]float64
	Timers   map[string]TimerSnapshot
}

// TimerSnapshot summarizes one timer.
type TimerSnapshot struct {
	Count int64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot copies the current values
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Snapshot{
		Counters: make(map[string]int64, len(r.counters)),
		Gauges:   make(map[string]float64, len(r.gauges)),
		Timers:   make(map[string]TimerSnapshot, len(r.timers)),
	}
	for n, c := range r.counters {
		s.Counters[n] = c.Get()
	}
	for n, g := range r.gauges {
		s.Gauges[n] = g.Get()
	}
	for n, t := range r.timers {
		s.Timers[n] = TimerSnapshot{Count: t.Count(), Min: t.Min(), Max: t.Max(), Avg: t.Avg()}
	}
	return s
}

// Names returns every registered metric name, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.counters)+len(r.gauges)+len(r.timers))
	for n := range r.counters {
		names = append(names, n)
	}
	for n := range r.gauges {
		names = append(names, n)
	}
	for n := range r.timers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
