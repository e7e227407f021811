// Package diagnostics carries non-fatal, source-located messages from the
// transform to whoever is listening.
package diagnostics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"git.home.luguber.info/inful/htmlconcat/internal/logfields"
)

// Kind classifies a diagnostic.
type Kind string

const (
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Diagnostic points at a location in a source document.
type Diagnostic struct {
	Kind     Kind
	Message  string
	File     string
	Contents string // full source text the position refers to
	Line     int    // 1-based
	Column   int    // 1-based
}

// IsWarning reports whether the diagnostic is non-fatal.
func (d Diagnostic) IsWarning() bool {
	return d.Kind == KindWarning
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Kind, d.Message)
}

// Position converts a byte offset into 1-based line and column numbers.
// Columns count bytes after the last newline preceding offset.
func Position(text string, offset int) (line, column int) {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	before := text[:offset]
	line = strings.Count(before, "\n") + 1
	column = len(before) - (strings.LastIndexByte(before, '\n') + 1) + 1
	return line, column
}

// Sink receives diagnostics. Implementations must be safe for concurrent use
// because documents are transformed in parallel.
type Sink interface {
	Emit(Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Diagnostic)

// Emit calls f(d).
func (f SinkFunc) Emit(d Diagnostic) { f(d) }

// Discard drops every diagnostic.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// Collector records diagnostics in arrival order.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Emit implements Sink.
func (c *Collector) Emit(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
}

// Diagnostics returns a copy of everything emitted so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of diagnostics collected.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// LogSink writes diagnostics to a slog.Logger.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink returns a sink logging to logger, or to slog.Default() when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger}
}

// Emit implements Sink.
func (s *LogSink) Emit(d Diagnostic) {
	level := slog.LevelWarn
	if !d.IsWarning() {
		level = slog.LevelError
	}
	s.Logger.LogAttrs(context.Background(), level, d.Message,
		logfields.HTMLFile(d.File),
		logfields.Line(d.Line),
		logfields.Column(d.Column))
}

// Tee fans a diagnostic out to several sinks in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(d)
			}
		}
	})
}
