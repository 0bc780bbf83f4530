// Package errors defines the error taxonomy shared by the store, the cache,
// the session and the command line. Every failure that can reach the user
// carries a Kind so callers can pick an exit code or an error banner without
// matching on message text.
package errors

import (
	"errors"
	"fmt"
)

// Standard library helpers re-exported so callers need a single import.
var (
	Unwrap = errors.Unwrap
	Is     = errors.Is
	As     = errors.As
)

// Kind classifies an Error.
type Kind int

const (
	Unknown Kind = iota
	FileNotFound
	UnsupportedFormat
	DatasetNotFound
	SliceOutOfBounds
	IOFailure
	// CacheOverBudget is internal to the cache and triggers eviction.
	CacheOverBudget
	// TerminalTooSmall degrades rendering and is never an error state.
	TerminalTooSmall
	TerminalInitFailure
	InvalidArgument
)

var kindText = map[Kind]string{
	Unknown:             "unknown error",
	FileNotFound:        "file not found",
	UnsupportedFormat:   "unsupported format",
	DatasetNotFound:     "dataset not found",
	SliceOutOfBounds:    "slice out of bounds",
	IOFailure:           "i/o failure",
	CacheOverBudget:     "cache over budget",
	TerminalTooSmall:    "terminal too small",
	TerminalInitFailure: "terminal init failure",
	InvalidArgument:     "invalid argument",
}

// String returns the human readable prefix used in messages.
func (k Kind) String() string {
	if s, ok := kindText[k]; ok {
		return s
	}
	return kindText[Unknown]
}

// Error is the application error type.
type Error struct {
	Kind Kind
	// Subject is the file path, dataset path or flag the error is about.
	Subject string
	Err     error
}

// Error formats as "<kind>: <subject>: <cause>", omitting empty parts.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Subject != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Subject)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so sentinels like
// ErrDatasetNotFound work with errors.Is regardless of subject.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Subject == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrFileNotFound        = &Error{Kind: FileNotFound}
	ErrUnsupportedFormat   = &Error{Kind: UnsupportedFormat}
	ErrDatasetNotFound     = &Error{Kind: DatasetNotFound}
	ErrSliceOutOfBounds    = &Error{Kind: SliceOutOfBounds}
	ErrIOFailure           = &Error{Kind: IOFailure}
	ErrCacheOverBudget     = &Error{Kind: CacheOverBudget}
	ErrTerminalTooSmall    = &Error{Kind: TerminalTooSmall}
	ErrTerminalInitFailure = &Error{Kind: TerminalInitFailure}
	ErrInvalidArgument     = &Error{Kind: InvalidArgument}
)

// New creates an Error of the given kind.
func New(kind Kind, subject string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

// Newf creates an Error whose cause is a formatted message.
func Newf(kind Kind, subject, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Subject: subject, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
