package slotmark

import (
	"github.com/goliatone/go-logger/glog"
)

// Logger is the leveled logging contract used throughout the pipeline.
// It mirrors the surface of github.com/goliatone/go-logger so hosts can
// plug that package in directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewLogger returns a console logger scoped to the given name, backed by
// go-logger. Suitable as the default when the host does not inject one.
func NewLogger(name string) Logger {
	root := glog.NewLogger(glog.WithLoggerTypeConsole())
	if name != "" {
		return root.GetLogger(name)
	}
	return root
}

// NopLogger discards everything. Used in tests and as the fallback when a
// component is constructed without a logger.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
