package cli

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yildizm/h5view/internal/app"
	"github.com/yildizm/h5view/internal/cache"
	"github.com/yildizm/h5view/internal/config"
	"github.com/yildizm/h5view/internal/errors"
	"github.com/yildizm/h5view/internal/logger"
	"github.com/yildizm/h5view/internal/monitor"
	"github.com/yildizm/h5view/internal/render"
	"github.com/yildizm/h5view/internal/session"
	"github.com/yildizm/h5view/internal/store"
	"github.com/yildizm/h5view/internal/terminal"
	"github.com/yildizm/h5view/internal/watch"
)

// viewOptions holds the flags of the interactive session.
type viewOptions struct {
	file      string
	dataset   string
	tickRate  float64
	frameRate float64
	theme     string
	noWatch   bool
}

func (v *viewOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&v.file, "file", "f", "", "HDF5 file to open (required)")
	cmd.Flags().StringVarP(&v.dataset, "dataset", "d", "", "dataset to open at start, e.g. routput/Dmd")
	cmd.Flags().Float64Var(&v.tickRate, "tick-rate", 4, "ticks per second")
	cmd.Flags().Float64Var(&v.frameRate, "frame-rate", 4, "frames per second")
	cmd.Flags().StringVar(&v.theme, "theme", "", "color theme (default, high-contrast, minimal)")
	cmd.Flags().BoolVar(&v.noWatch, "no-watch", false, "do not reload when the file changes on disk")
}

// apply lays the flags that were set over cfg and validates the result.
func (v *viewOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	if v.file == "" {
		return errors.Newf(errors.InvalidArgument, "--file", "is required")
	}
	flags := cmd.Flags()
	if flags.Changed("tick-rate") {
		cfg.Session.TickRate = v.tickRate
	}
	if flags.Changed("frame-rate") {
		cfg.Session.FrameRate = v.frameRate
	}
	if flags.Changed("theme") {
		cfg.UI.Theme = v.theme
	}
	if v.noWatch {
		cfg.UI.Watch = false
	}
	if err := cfg.Validate(); err != nil {
		return errors.New(errors.InvalidArgument, "flags", err)
	}
	return nil
}

func runView(cmd *cobra.Command, o *rootOptions, v *viewOptions) error {
	cfg, err := o.config()
	if err != nil {
		return err
	}
	if err := v.apply(cmd, cfg); err != nil {
		return err
	}
	budget, err := cfg.BudgetBytes()
	if err != nil {
		return errors.New(errors.InvalidArgument, "cache budget", err)
	}

	log, closeLog := o.fileLogger(cfg, cmd.ErrOrStderr())
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, v.file, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("failed to close %s: %v", v.file, err)
		}
	}()

	catalog, err := st.Catalog().Restrict(cfg.Catalog.Include, cfg.Catalog.Exclude)
	if err != nil {
		return errors.New(errors.InvalidArgument, "catalog patterns", err)
	}
	if err := terminal.Check(); err != nil {
		return err
	}

	metrics := monitor.NewRegistry()
	c := cache.New(st, cache.Options{Budget: budget, Metrics: metrics, Logger: log})
	defer c.Close()

	theme, _ := render.ThemeByName(cfg.UI.Theme)
	topts := terminal.Options{
		AltScreen: cfg.UI.AltScreen,
		Mouse:     cfg.UI.Mouse,
		Styles:    render.NewStyles(theme, cfg.UI.NoColor || render.ColorDisabled()),
	}
	term := terminal.New(topts)
	a := app.New(catalog, c, term, app.Options{
		File:      v.file,
		Dataset:   v.dataset,
		TickRate:  cfg.Session.TickRate,
		FrameRate: cfg.Session.FrameRate,
		Session: session.Options{
			MaxRows:     cfg.Session.MaxWindowRows,
			Fuzzy:       cfg.Catalog.Fuzzy,
			NoticeTicks: uint64(cfg.Session.NoticeTicks),
		},
		Logger:  log,
		Metrics: metrics,
	})
	log.InfoWithFields("session starting", []logger.Field{
		logger.F("file", v.file),
		logger.Count(catalog.Len()),
		logger.F("terminal", topts.String()),
	})

	err = term.Run(ctx, a, func(ctx context.Context) error {
		if cfg.UI.Watch {
			stopWatch := startWatcher(ctx, v.file, cfg, a, log)
			defer stopWatch()
		}
		return a.Run(ctx)
	})
	logMetrics(log, metrics)
	return err
}

// startWatcher reports changes to file as events. A watcher that cannot be
// set up only costs the automatic reload.
func startWatcher(ctx context.Context, file string, cfg *config.Config, sink watch.Sink, log *logger.Logger) func() {
	w, err := watch.New(file, cfg.UI.WatchDelay, log)
	if err != nil {
		log.Warn("not watching %s: %v", file, err)
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx, sink); err != nil {
			log.Warn("watcher stopped: %v", err)
		}
	}()
	return func() {
		cancel()
		<-done
		if err := w.Close(); err != nil {
			log.Warn("failed to close watcher: %v", err)
		}
	}
}

func logMetrics(log *logger.Logger, metrics *monitor.Registry) {
	snap := metrics.Snapshot()
	names := make([]string, 0, len(snap.Counters))
	for name := range snap.Counters {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]logger.Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, logger.F(name, snap.Counters[name]))
	}
	log.DebugWithFields("session metrics", fields)
}
