package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const componentKey = "component"

// VerboseChecker interface for checking verbose state
type VerboseChecker interface {
	IsVerbose() bool
}

// Logger provides structured logging with verbose support
type Logger struct {
	component      string
	verboseChecker VerboseChecker
	base           *logrus.Logger
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// New creates a new logger instance writing to stderr
func New(component string, verboseChecker VerboseChecker) *Logger {
	return NewWithWriter(component, verboseChecker, os.Stderr)
}

// NewWithCallback creates a new logger instance with a callback function
func NewWithCallback(component string, verboseCheck func() bool) *Logger {
	return New(component, &callbackChecker{callback: verboseCheck})
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(component string, verboseChecker VerboseChecker, w io.Writer) *Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&lineFormatter{})
	return &Logger{
		component:      component,
		verboseChecker: verboseChecker,
		base:           base,
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return NewWithWriter("", nil, io.Discard)
}

// OpenFile creates a logger appending to the file at path, creating parent
// directories. The returned closer releases the file.
func OpenFile(component string, verboseChecker VerboseChecker, path string) (*Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	// #nosec G304 - path comes from config or the --log-file flag
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewWithWriter(component, verboseChecker, f), f, nil
}

// WithComponent creates a logger with a specific component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		component:      component,
		verboseChecker: l.verboseChecker,
		base:           l.base,
	}
}

// callbackChecker implements VerboseChecker with a callback function
type callbackChecker struct {
	callback func() bool
}

func (c *callbackChecker) IsVerbose() bool {
	if c.callback == nil {
		return false
	}
	return c.callback()
}

// StaticVerbose is a VerboseChecker with a fixed answer
type StaticVerbose bool

func (s StaticVerbose) IsVerbose() bool {
	return bool(s)
}

func (l *Logger) verbose() bool {
	return l != nil && l.verboseChecker != nil && l.verboseChecker.IsVerbose()
}

// Debug logs debug messages (only when verbose=true)
func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.verbose() {
		l.log(logrus.DebugLevel, msg, nil, args...)
	}
}

// Info logs informational messages (only when verbose=true)
func (l *Logger) Info(msg string, args ...interface{}) {
	if l.verbose() {
		l.log(logrus.InfoLevel, msg, nil, args...)
	}
}

// Warn logs warning messages (always shown)
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(logrus.WarnLevel, msg, nil, args...)
}

// Error logs error messages (always shown)
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(logrus.ErrorLevel, msg, nil, args...)
}

// DebugWithFields logs debug message with structured fields
func (l *Logger) DebugWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.log(logrus.DebugLevel, msg, fields, args...)
	}
}

// InfoWithFields logs info message with structured fields
func (l *Logger) InfoWithFields(msg string, fields []Field, args ...interface{}) {
	if l.verbose() {
		l.log(logrus.InfoLevel, msg, fields, args...)
	}
}

// WarnWithFields logs warning message with structured fields
func (l *Logger) WarnWithFields(msg string, fields []Field, args ...interface{}) {
	l.log(logrus.WarnLevel, msg, fields, args...)
}

func (l *Logger) log(level logrus.Level, msg string, fields []Field, args ...interface{}) {
	if l == nil || l.base == nil {
		return
	}
	component := l.component
	if component == "" {
		component = "main"
	}
	entry := l.base.WithField(componentKey, component)
	for _, f := range fields {
		entry = entry.WithField(f.Key, f.Value)
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	entry.Log(level, msg)
}

// lineFormatter renders "[15:04:05.000] LEVEL [component] msg [k=v]"
type lineFormatter struct{}

var levelNames = map[logrus.Level]string{
	logrus.TraceLevel: "TRACE",
	logrus.DebugLevel: "DEBUG",
	logrus.InfoLevel:  "INFO",
	logrus.WarnLevel:  "WARN",
	logrus.ErrorLevel: "ERROR",
	logrus.FatalLevel: "FATAL",
	logrus.PanicLevel: "PANIC",
}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	component, _ := e.Data[componentKey].(string)
	fmt.Fprintf(&b, "[%s] %s [%s] %s", e.Time.Format("15:04:05.000"), levelNames[e.Level], component, e.Message)

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k != componentKey {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, e.Data[k])
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, " "))
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Helper functions for common field types
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func Count(value int) Field {
	return Field{Key: "count", Value: value}
}

func Duration(d time.Duration) Field {
	return Field{Key: "duration", Value: d}
}

func Error(err error) Field {
	return Field{Key: "error", Value: err}
}
