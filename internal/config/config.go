package config

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Config holds the complete application configuration
type Config struct {
	Version string        `yaml:"version" json:"version"`
	Session SessionConfig `yaml:"session" json:"session"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`
	UI      UIConfig      `yaml:"ui" json:"ui"`
	Log     LogConfig     `yaml:"log" json:"log"`
}

// SessionConfig configures the event cadence and slice windows
type SessionConfig struct {
	TickRate      float64 `yaml:"tick_rate" json:"tick_rate"`             // ticks per second
	FrameRate     float64 `yaml:"frame_rate" json:"frame_rate"`           // frames per second
	MaxWindowRows int     `yaml:"max_window_rows" json:"max_window_rows"` // 0 reads whole datasets
	NoticeTicks   int     `yaml:"notice_ticks" json:"notice_ticks"`       // lifetime of header notices
}

// CacheConfig configures the slice cache
type CacheConfig struct {
	Budget string `yaml:"budget" json:"budget"` // human size, e.g. "256MiB"
}

// CatalogConfig restricts and ranks the dataset listing
type CatalogConfig struct {
	Include []string `yaml:"include" json:"include"` // glob patterns, empty keeps all
	Exclude []string `yaml:"exclude" json:"exclude"`
	Fuzzy   bool     `yaml:"fuzzy" json:"fuzzy"`
}

// UIConfig configures the terminal
type UIConfig struct {
	Theme      string        `yaml:"theme" json:"theme"` // default|high-contrast|minimal
	AltScreen  bool          `yaml:"alt_screen" json:"alt_screen"`
	Mouse      bool          `yaml:"mouse" json:"mouse"`
	NoColor    bool          `yaml:"no_color" json:"no_color"`
	Watch      bool          `yaml:"watch" json:"watch"` // reload when the file changes on disk
	WatchDelay time.Duration `yaml:"watch_delay" json:"watch_delay"`
}

// LogConfig configures the session log
type LogConfig struct {
	File    string `yaml:"file" json:"file"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// Valid UI themes
var validThemes = map[string]bool{
	"default":       true,
	"high-contrast": true,
	"minimal":       true,
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		Session: SessionConfig{
			TickRate:      4,
			FrameRate:     4,
			MaxWindowRows: 0,
			NoticeTicks:   8,
		},
		Cache: CacheConfig{
			Budget: "256MiB",
		},
		Catalog: CatalogConfig{
			Include: []string{},
			Exclude: []string{},
			Fuzzy:   false,
		},
		UI: UIConfig{
			Theme:      "default",
			AltScreen:  true,
			Mouse:      true,
			NoColor:    false,
			Watch:      true,
			WatchDelay: 500 * time.Millisecond,
		},
		Log: LogConfig{
			File:    "~/.cache/h5view/h5view.log",
			Verbose: false,
		},
	}
}

// BudgetBytes parses the cache budget
func (c *Config) BudgetBytes() (int64, error) {
	n, err := humanize.ParseBytes(c.Cache.Budget)
	if err != nil {
		return 0, fmt.Errorf("invalid cache budget %q: %w", c.Cache.Budget, err)
	}
	if n == 0 || n > 1<<62 {
		return 0, fmt.Errorf("cache budget must be between 1B and 4EiB, got %s", c.Cache.Budget)
	}
	return int64(n), nil
}

// LogPath returns the log file with ~ expanded, or "" when logging is off
func (c *Config) LogPath() string {
	if c.Log.File == "" {
		return ""
	}
	return expandPath(c.Log.File)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateSessionConfig(); err != nil {
		return err
	}
	if _, err := c.BudgetBytes(); err != nil {
		return err
	}
	if err := c.validateUIConfig(); err != nil {
		return err
	}
	return nil
}

// ValidateRate checks a tick or frame rate in hertz
func ValidateRate(name string, hz float64) error {
	if hz <= 0 || hz > 1000 {
		return fmt.Errorf("%s must be greater than 0 and at most 1000, got %g", name, hz)
	}
	return nil
}

func (c *Config) validateSessionConfig() error {
	if err := ValidateRate("tick_rate", c.Session.TickRate); err != nil {
		return err
	}
	if err := ValidateRate("frame_rate", c.Session.FrameRate); err != nil {
		return err
	}
	if c.Session.MaxWindowRows < 0 {
		return fmt.Errorf("max_window_rows must be non-negative")
	}
	if c.Session.NoticeTicks < 1 {
		return fmt.Errorf("notice_ticks must be greater than 0")
	}
	return nil
}

func (c *Config) validateUIConfig() error {
	if c.UI.Theme != "" && !validThemes[c.UI.Theme] {
		return fmt.Errorf("invalid theme: %s (must be one of: default, high-contrast, minimal)", c.UI.Theme)
	}
	if c.UI.WatchDelay < 0 {
		return fmt.Errorf("watch_delay must be non-negative")
	}
	return nil
}
