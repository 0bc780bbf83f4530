package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPaths defines the config file search paths in priority order
var ConfigPaths = []string{
	"./.h5view.yaml",               // Project-specific config (highest priority)
	"~/.config/h5view/config.yaml", // User config
	"/etc/h5view/config.yaml",      // System config (lowest priority)
}

// EnvPrefix starts every environment override
const EnvPrefix = "H5VIEW_"

// Loader handles configuration loading with priority merging
type Loader struct {
	configPaths []string
	warnings    io.Writer
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		warnings:    os.Stderr,
	}
}

// LoadConfig loads configuration from multiple sources with priority order:
// 1. Command line flags (handled by caller)
// 2. Environment variables
// 3. ./.h5view.yaml
// 4. ~/.config/h5view/config.yaml
// 5. /etc/h5view/config.yaml
// 6. Built-in defaults
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	config := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(config, customPath); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		// lowest priority first so later files win
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			expandedPath := expandPath(l.configPaths[i])
			if !fileExists(expandedPath) {
				continue
			}
			if err := l.loadFromFile(config, expandedPath); err != nil {
				fmt.Fprintf(l.warnings, "Warning: Failed to load config from %s: %v\n", expandedPath, err)
			}
		}
	}

	if err := l.applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile decodes a YAML file over config. Keys missing from the file
// keep their current value, so booleans can be switched off explicitly.
func (l *Loader) loadFromFile(config *Config, path string) error {
	// #nosec G304 - path is validated by validateConfigPath() or comes from ConfigPaths
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	next := *config
	next.Catalog.Include = append([]string(nil), config.Catalog.Include...)
	next.Catalog.Exclude = append([]string(nil), config.Catalog.Exclude...)
	if err := yaml.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	*config = next
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (l *Loader) applyEnvOverrides(config *Config) error {
	envMappings := map[string]func(string) error{
		// Session Config
		"H5VIEW_SESSION_TICK_RATE":       func(v string) error { return parseFloat(v, &config.Session.TickRate) },
		"H5VIEW_SESSION_FRAME_RATE":      func(v string) error { return parseFloat(v, &config.Session.FrameRate) },
		"H5VIEW_SESSION_MAX_WINDOW_ROWS": func(v string) error { return parseInt(v, &config.Session.MaxWindowRows) },
		"H5VIEW_SESSION_NOTICE_TICKS":    func(v string) error { return parseInt(v, &config.Session.NoticeTicks) },

		// Cache Config
		"H5VIEW_CACHE_BUDGET": func(v string) error { config.Cache.Budget = v; return nil },

		// Catalog Config
		"H5VIEW_CATALOG_FUZZY": func(v string) error { return parseBool(v, &config.Catalog.Fuzzy) },

		// UI Config
		"H5VIEW_UI_THEME":       func(v string) error { config.UI.Theme = v; return nil },
		"H5VIEW_UI_ALT_SCREEN":  func(v string) error { return parseBool(v, &config.UI.AltScreen) },
		"H5VIEW_UI_MOUSE":       func(v string) error { return parseBool(v, &config.UI.Mouse) },
		"H5VIEW_UI_NO_COLOR":    func(v string) error { return parseBool(v, &config.UI.NoColor) },
		"H5VIEW_UI_WATCH":       func(v string) error { return parseBool(v, &config.UI.Watch) },
		"H5VIEW_UI_WATCH_DELAY": func(v string) error { return parseDuration(v, &config.UI.WatchDelay) },

		// Log Config
		"H5VIEW_LOG_FILE":    func(v string) error { config.Log.File = v; return nil },
		"H5VIEW_LOG_VERBOSE": func(v string) error { return parseBool(v, &config.Log.Verbose) },
	}

	for envVar, setter := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			if err := setter(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar, err)
			}
		}
	}

	// comma-separated glob lists
	if v := os.Getenv(EnvPrefix + "CATALOG_INCLUDE"); v != "" {
		config.Catalog.Include = splitList(v)
	}
	if v := os.Getenv(EnvPrefix + "CATALOG_EXCLUDE"); v != "" {
		config.Catalog.Exclude = splitList(v)
	}

	return nil
}

// GetConfigPaths returns the list of configuration file paths that will be searched
func GetConfigPaths() []string {
	paths := make([]string, 0, len(ConfigPaths))
	for _, path := range ConfigPaths {
		paths = append(paths, expandPath(path))
	}
	return paths
}

// FindConfigFile finds the first existing config file in the search paths
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expandedPath := expandPath(path)
		if fileExists(expandedPath) {
			return expandedPath, true
		}
	}
	return "", false
}

// Helper functions

// validateConfigPath validates that a config path is safe to read
func validateConfigPath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension")
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if strings.HasPrefix(absPath, "/proc/") || strings.HasPrefix(absPath, "/sys/") {
		return fmt.Errorf("access to system files not allowed")
	}

	return nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Type conversion helpers

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseFloat(s string, dst *float64) error {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
