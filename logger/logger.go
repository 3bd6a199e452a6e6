// Package logger wraps charmbracelet/log with helpers for the events pubsite reports.
package logger

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a logger writing to w at info level.
func New(w io.Writer) *Logger {
	return NewWithLevel(w, log.InfoLevel)
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// Parse creates a logger from a level name such as "debug" or "warn".
// An unknown name falls back to info.
func Parse(w io.Writer, level string) *Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return NewWithLevel(w, lvl)
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// PostSkipped logs a post left out of a build or listing.
func (l *Logger) PostSkipped(slug string, err error) {
	l.Warn("post skipped",
		"slug", slug,
		"error", err)
}

// PageWritten logs one exported file.
func (l *Logger) PageWritten(route, path string) {
	l.Debug("page written",
		"route", route,
		"path", path)
}

// BuildCompleted logs the end of a static export.
func (l *Logger) BuildCompleted(pages, failed int, duration time.Duration) {
	l.Info("build completed",
		"pages", pages,
		"failed", failed,
		"duration", duration.Round(time.Millisecond))
}

// ContentChanged logs a change picked up by the content watcher.
func (l *Logger) ContentChanged(path, op string) {
	l.Info("content changed",
		"path", path,
		"op", op)
}

// Request logs one served HTTP request.
func (l *Logger) Request(method, uri string, status int, latency time.Duration, id string) {
	l.Info("request",
		"method", method,
		"uri", uri,
		"status", status,
		"latency", latency,
		"request_id", id)
}

// ImageServed logs an optimizer response.
func (l *Logger) ImageServed(src string, width int, cached bool) {
	l.Debug("image served",
		"src", src,
		"width", width,
		"cached", cached)
}
