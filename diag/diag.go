// Package diag implements the error and diagnostic taxonomy shared by every
// stage of the pipeline: parsing, evaluation, realization and layout.
package diag

import (
	"fmt"

	"go.uber.org/multierr"
)

// Span is the minimal source-origin interface diagnostics are anchored to.
// syntax.Span satisfies it; the interface lives here so diag does not import
// syntax (which itself reports diag.SourceError on malformed input).
type Span interface {
	// Detached reports whether this is the sentinel span for synthetic nodes.
	Detached() bool
}

// SourceError is a user-facing, span-anchored error produced by evaluation,
// realization or layout.
type SourceError struct {
	Span    Span
	Message string
	Hints   []string
	Trace   []TracePoint
}

// TracePoint records one frame of a "while evaluating ..." trace, attached by
// callers via the Trace combinator as an error propagates up the call stack.
type TracePoint struct {
	Span    Span
	Message string
}

func (e *SourceError) Error() string {
	return e.Message
}

// Hint appends a hint and returns the same error, for chaining at the call site.
func (e *SourceError) Hint(format string, args ...any) *SourceError {
	e.Hints = append(e.Hints, fmt.Sprintf(format, args...))
	return e
}

// Traced returns a copy of e with one more trace frame prepended.
func (e *SourceError) Traced(span Span, format string, args ...any) *SourceError {
	cp := *e
	cp.Trace = append([]TracePoint{{Span: span, Message: fmt.Sprintf(format, args...)}}, e.Trace...)
	return &cp
}

// Error constructs a new SourceError.
func Error(span Span, format string, args ...any) *SourceError {
	return &SourceError{Span: span, Message: fmt.Sprintf(format, args...)}
}

// Warning is a non-fatal diagnostic pushed to the traced Sink.
type Warning struct {
	Span    Span
	Message string
	Hints   []string
}

func (w Warning) String() string {
	return w.Message
}

func WarningAt(span Span, format string, args ...any) Warning {
	return Warning{Span: span, Message: fmt.Sprintf(format, args...)}
}

// HintedStrError is used inside the evaluator for cast/type errors that only
// gain a span once a caller attaches one via At.
type HintedStrError struct {
	Message string
	Hints   []string
}

func (e *HintedStrError) Error() string { return e.Message }

func Hinted(format string, args ...any) *HintedStrError {
	return &HintedStrError{Message: fmt.Sprintf(format, args...)}
}

// At attaches a span to a HintedStrError, turning it into a SourceError.
// A *SourceError is returned unchanged, keeping its own span; any other
// error is wrapped verbatim with the span and no hints.
func At(span Span, err error) *SourceError {
	if err == nil {
		return nil
	}
	if hinted, ok := err.(*HintedStrError); ok {
		return &SourceError{Span: span, Message: hinted.Message, Hints: hinted.Hints}
	}
	if se, ok := err.(*SourceError); ok {
		return se
	}
	return &SourceError{Span: span, Message: err.Error()}
}

// FileErrorKind enumerates the ways a World accessor can fail to produce a file.
type FileErrorKind int

const (
	FileNotFound FileErrorKind = iota
	FileAccessDenied
	FileIsDirectory
	FileNotSource
	FilePackage
	FileOther
)

// FileError is returned by World accessors (source/file/font); the pipeline
// enriches it into a SourceError with the originating span before surfacing it.
type FileError struct {
	Kind    FileErrorKind
	Path    string
	Wrapped error
}

func (e *FileError) Error() string {
	switch e.Kind {
	case FileNotFound:
		return fmt.Sprintf("file not found: %s", e.Path)
	case FileAccessDenied:
		return fmt.Sprintf("failed to load %s: access denied", e.Path)
	case FileIsDirectory:
		return fmt.Sprintf("%s is a directory", e.Path)
	case FileNotSource:
		return fmt.Sprintf("%s is not a source file", e.Path)
	case FilePackage:
		return fmt.Sprintf("failed to load package: %v", e.Wrapped)
	default:
		if e.Wrapped != nil {
			return fmt.Sprintf("failed to load %s: %v", e.Path, e.Wrapped)
		}
		return fmt.Sprintf("failed to load %s", e.Path)
	}
}

func (e *FileError) Unwrap() error { return e.Wrapped }

// AsSourceError enriches a FileError with the originating span, per spec §7.
func (e *FileError) AsSourceError(span Span) *SourceError {
	return &SourceError{Span: span, Message: e.Error()}
}

// Errors is an ordered collection of SourceErrors, the top-level result of a
// failed compile. It satisfies error via go.uber.org/multierr so callers that
// only want a single combined error can treat it as one, the same way
// teacher's cmd/fbc aggregates independent command failures.
type Errors []*SourceError

func (es Errors) Error() string {
	var combined error
	for _, e := range es {
		combined = multierr.Append(combined, e)
	}
	if combined == nil {
		return ""
	}
	return combined.Error()
}

func (es Errors) Empty() bool { return len(es) == 0 }
