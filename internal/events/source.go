package events

import (
	"context"
	"sync"
	"time"
)

// Source merges pushed events and the tick and render timers into one FIFO
// read by exactly one consumer.
//
// At most one Tick waits in the queue; ticks arriving while one is pending
// are dropped. Every other event is kept. Once a Quit is queued, either
// pushed or because the context passed to Run was cancelled, later events
// are discarded and the channel closes right after Quit is delivered.
type Source struct {
	tickEvery   time.Duration
	renderEvery time.Duration

	in      chan Event
	out     chan Event
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once

	// test hooks replacing the tickers
	tickC   <-chan time.Time
	renderC <-chan time.Time
}

// NewSource creates a source whose timers fire every tick and render
// interval. A non-positive interval disables that timer.
func NewSource(tick, render time.Duration) *Source {
	return &Source{
		tickEvery:   tick,
		renderEvery: render,
		in:          make(chan Event),
		out:         make(chan Event),
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Interval converts a rate in hertz to a timer interval.
func Interval(hz float64) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}

// Events is the stream. It closes after Quit.
func (s *Source) Events() <-chan Event {
	return s.out
}

// Push queues ev. It is safe from any goroutine and returns false once the
// source has stopped.
func (s *Source) Push(ev Event) bool {
	select {
	case s.in <- ev:
		return true
	case <-s.stopped:
		return false
	}
}

// Close stops the source without waiting for the consumer to drain it.
func (s *Source) Close() {
	s.once.Do(func() { close(s.stop) })
}

// Done is closed when Run has returned.
func (s *Source) Done() <-chan struct{} {
	return s.stopped
}

// Run pumps events until Quit is delivered or Close is called.
func (s *Source) Run(ctx context.Context) {
	defer close(s.stopped)
	defer close(s.out)

	tickC, renderC := s.tickC, s.renderC
	if tickC == nil && s.tickEvery > 0 {
		t := time.NewTicker(s.tickEvery)
		defer t.Stop()
		tickC = t.C
	}
	if renderC == nil && s.renderEvery > 0 {
		t := time.NewTicker(s.renderEvery)
		defer t.Stop()
		renderC = t.C
	}

	var (
		queue       []Event
		tickPending bool
		quitting    bool
		done        = ctx.Done()
	)
	enqueueQuit := func() {
		queue = append(queue, Quit{})
		quitting = true
		tickC, renderC, done = nil, nil, nil
	}

	for {
		var out chan<- Event
		var next Event
		if len(queue) > 0 {
			out = s.out
			next = queue[0]
		}

		select {
		case ev := <-s.in:
			if quitting {
				continue
			}
			if _, ok := ev.(Quit); ok {
				enqueueQuit()
				continue
			}
			if _, ok := ev.(Tick); ok {
				if tickPending {
					continue
				}
				tickPending = true
			}
			queue = append(queue, ev)
		case <-tickC:
			if !tickPending {
				tickPending = true
				queue = append(queue, Tick{})
			}
		case <-renderC:
			queue = append(queue, Render{})
		case <-done:
			enqueueQuit()
		case out <- next:
			queue[0] = nil
			queue = queue[1:]
			switch next.(type) {
			case Tick:
				tickPending = false
			case Quit:
				return
			}
		case <-s.stop:
			return
		}
	}
}
