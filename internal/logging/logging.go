// Package logging configures the process-wide slog.Logger. Third-party
// library logs (grpc, otel, etc.) are suppressed unless the level is
// debug, so operators see orchestration-core activity by default.
package logging

import (
	"context"
	"os"
	"runtime"
	"strings"

	"log/slog"
)

var defaultLogger *slog.Logger

const corePackagePrefix = "github.com/hectorcore/hectorcore"

// ParseLevel converts a string log level ("debug", "info", "warn",
// "error") to slog.Level, defaulting to warn on unrecognized input.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, nil
	}
}

// filteringHandler wraps a slog.Handler, hiding non-core-package logs
// unless the level is debug.
type filteringHandler struct {
	handler  slog.Handler
	minLevel slog.Level
}

func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.minLevel && h.handler.Enabled(ctx, level)
}

func (h *filteringHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.minLevel <= slog.LevelDebug || isCorePackage(record.PC) {
		return h.handler.Handle(ctx, record)
	}
	return nil
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteringHandler{handler: h.handler.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{handler: h.handler.WithGroup(name), minLevel: h.minLevel}
}

func isCorePackage(pc uintptr) bool {
	if pc == 0 {
		return false
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return false
	}
	file, _ := fn.FileLine(pc)
	return strings.Contains(fn.Name(), corePackagePrefix) || strings.Contains(file, "hectorcore/")
}

// Init installs the process-wide logger at the given level, writing
// JSON records to output.
func Init(level slog.Level, output *os.File) {
	opts := &slog.HandlerOptions{Level: level}
	handler := &filteringHandler{handler: slog.NewJSONHandler(output, opts), minLevel: level}
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// Get returns the process-wide logger, initializing a default
// (info, stderr) one on first use.
func Get() *slog.Logger {
	if defaultLogger == nil {
		Init(slog.LevelInfo, os.Stderr)
	}
	return defaultLogger
}

// OpenLogFile opens (creating if needed) a log file for append, mirrored
// by HistoryLog for the append-only turn log described in spec §6.
func OpenLogFile(path string) (*os.File, func(), error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}
