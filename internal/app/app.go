// Package app runs a session: it owns the state, feeds it the event
// stream, executes the commands it returns and draws frames.
package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yildizm/h5view/internal/cache"
	"github.com/yildizm/h5view/internal/dataset"
	"github.com/yildizm/h5view/internal/errors"
	"github.com/yildizm/h5view/internal/events"
	"github.com/yildizm/h5view/internal/keymap"
	"github.com/yildizm/h5view/internal/logger"
	"github.com/yildizm/h5view/internal/monitor"
	"github.com/yildizm/h5view/internal/render"
	"github.com/yildizm/h5view/internal/session"
)

// Metric names registered by the runtime.
const (
	MetricEvents  = "app.events"
	MetricActions = "app.actions"
	MetricFrames  = "app.frames"
	MetricFetches = "app.fetches"
	MetricRender  = "app.render_time"
)

// Drawer shows frames. Draw is called from the session goroutine only.
type Drawer interface {
	Draw(f render.Frame)
}

// DrawerFunc adapts a function to Drawer.
type DrawerFunc func(render.Frame)

// Draw calls f.
func (f DrawerFunc) Draw(frame render.Frame) { f(frame) }

// Options is the session context fixed at startup.
type Options struct {
	// File is shown in the header.
	File string
	// Dataset is opened before the first event when set.
	Dataset string
	// TickRate and FrameRate are in hertz; zero disables the timer.
	TickRate  float64
	FrameRate float64
	Session   session.Options
	Logger    *logger.Logger
	Metrics   *monitor.Registry
}

// App is a running session. Create it with New and start it with Run.
type App struct {
	opts    Options
	cache   *cache.Cache
	drawer  Drawer
	source  *events.Source
	log     *logger.Logger
	workers errgroup.Group

	state    session.State
	ctx      context.Context
	inflight map[string]context.CancelFunc
	quitSent bool

	events  *monitor.Counter
	actions *monitor.Counter
	frames  *monitor.Counter
	fetches *monitor.Counter
	render  *monitor.Timer
}

// New creates a session over catalog whose slices come from c.
func New(catalog *dataset.Catalog, c *cache.Cache, d Drawer, opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = monitor.NewRegistry()
	}
	m := opts.Metrics
	return &App{
		opts:     opts,
		cache:    c,
		drawer:   d,
		source:   events.NewSource(events.Interval(opts.TickRate), events.Interval(opts.FrameRate)),
		log:      opts.Logger.WithComponent("app"),
		state:    session.New(catalog, opts.Session),
		inflight: make(map[string]context.CancelFunc),
		events:   m.Counter(MetricEvents),
		actions:  m.Counter(MetricActions),
		frames:   m.Counter(MetricFrames),
		fetches:  m.Counter(MetricFetches),
		render:   m.Timer(MetricRender),
	}
}

// Push delivers an input event. It is safe from any goroutine and returns
// false once the session has ended.
func (a *App) Push(ev events.Event) bool {
	return a.source.Push(ev)
}

// Run processes events until the session quits or ctx is cancelled, then
// waits for outstanding reads to give up.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx = ctx

	go a.source.Run(ctx)
	a.log.Debug("session started with %d datasets", a.state.Catalog.Len())

	if a.opts.Dataset != "" {
		a.step(session.OpenDataset{Path: a.opts.Dataset})
	}
	for ev := range a.source.Events() {
		a.events.Inc()
		a.handle(ev)
	}

	cancel()
	err := a.workers.Wait()
	a.log.DebugWithFields("session ended", []logger.Field{
		logger.F("events", a.events.Get()),
		logger.F("frames", a.frames.Get()),
	})
	return err
}

// State returns the session state. Call it after Run has returned.
func (a *App) State() session.State {
	return a.state
}

func (a *App) handle(ev events.Event) {
	if _, ok := ev.(events.Render); ok {
		a.draw()
		return
	}
	act, ok := keymap.Resolve(ev, a.state)
	if !ok {
		return
	}
	a.step(act)
}

func (a *App) step(act session.Action) {
	a.actions.Inc()
	next, cmds := session.Apply(a.state, act)
	if prev, now := a.state.Mode, next.Mode; prev != nil && now != nil && prev.Name() != now.Name() {
		a.log.Debug("mode %s -> %s", prev.Name(), now.Name())
	}
	a.state = next
	for _, c := range cmds {
		a.exec(c)
	}
	if a.state.Quit && !a.quitSent {
		a.quitSent = true
		a.source.Push(events.Quit{})
	}
}

func (a *App) exec(c session.Command) {
	switch c := c.(type) {
	case session.PurgeCache:
		a.cache.Purge()
		a.log.Info("cache purged")
	case session.FetchSlice:
		a.fetch(c.Key)
	}
}

// fetch serves a resident slice at once and reads anything else in the
// background. Starting a read abandons the ones before it.
func (a *App) fetch(key dataset.Key) {
	if s, ok := a.cache.Peek(key); ok {
		a.step(session.FetchCompleted{Key: key, Slice: s})
		return
	}
	for k, cancel := range a.inflight {
		cancel()
		delete(a.inflight, k)
	}

	a.fetches.Inc()
	ctx, cancel := context.WithCancel(a.ctx)
	a.inflight[key.String()] = cancel
	a.log.Debug("fetching %s", key)

	a.workers.Go(func() error {
		defer cancel()
		s, err := a.cache.Get(ctx, key)
		if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			a.log.Warn("read %s failed: %v", key, err)
		}
		a.source.Push(events.FetchCompleted{Key: key, Slice: s, Err: err})
		return nil
	})
}

func (a *App) draw() {
	start := time.Now()
	f := render.Render(a.state, a.state.Width, a.state.Height, render.Status{
		File:  a.opts.File,
		Cache: a.cache.Stats(),
	})
	a.render.Since(start)
	a.frames.Inc()
	a.drawer.Draw(f)
}
