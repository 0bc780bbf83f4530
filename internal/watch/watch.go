// Package watch reports writes to the open file as FileChanged events.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yildizm/h5view/internal/events"
	"github.com/yildizm/h5view/internal/logger"
)

// DefaultDelay is the quiet period after the last write before a change is
// reported.
const DefaultDelay = 500 * time.Millisecond

// Sink receives change events.
type Sink interface {
	Push(ev events.Event) bool
}

// Watcher watches one file. Bursts of writes are reported once.
type Watcher struct {
	path  string
	delay time.Duration
	log   *logger.Logger
	fs    *fsnotify.Watcher
}

// New watches path. The parent directory is watched so that a file replaced
// by rename is still followed.
func New(path string, delay time.Duration, log *logger.Logger) (*Watcher, error) {
	if err := validatePath(path); err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	if log == nil {
		log = logger.Nop()
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		cleanupWatcher(fs, log)
		return nil, fmt.Errorf("failed to watch file: %w", err)
	}
	return &Watcher{path: abs, delay: delay, log: log.WithComponent("watch"), fs: fs}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run forwards changes to sink until ctx is done or sink stops accepting.
func (w *Watcher) Run(ctx context.Context, sink Sink) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("%s %s", event.Op, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.log.Info("%s changed", w.path)
			if !sink.Push(events.FileChanged{Path: w.path}) {
				return nil
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.log.Warn("watcher error: %v", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// relevant reports whether event changes the contents of the watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}

// cleanupWatcher safely closes watcher with error logging
func cleanupWatcher(fs *fsnotify.Watcher, log *logger.Logger) {
	if err := fs.Close(); err != nil {
		log.Warn("failed to close watcher: %v", err)
	}
}

// validatePath validates that a file path is safe to watch
func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty file path")
	}

	info, err := os.Stat(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("cannot watch directory, must be a file")
	}
	return nil
}
