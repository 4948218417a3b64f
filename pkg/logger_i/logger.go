package logger_i

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// Logger resolves slog.Default at call time so package level loggers pick up the handler installed by Init.
type Logger struct {
	attrs []any
}

// Init installs the process-wide handler. JSON output is used for production deployments.
func Init(level string, asJSON bool) {
	InitWriter(os.Stdout, level, asJSON)
}

func InitWriter(w io.Writer, level string, asJSON bool) {
	options := &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: asJSON,
	}

	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(w, options)
	} else {
		handler = slog.NewTextHandler(w, options)
	}
	slog.SetDefault(slog.New(handler))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func NewLogger(section string) *Logger {
	return &Logger{
		attrs: []any{"component", section},
	}
}

func (l *Logger) inner() *slog.Logger {
	return slog.Default().With(l.attrs...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.inner().Info(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.logWithSource(slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.logWithSource(slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.logWithSource(slog.LevelDebug, msg, args...)
}

func (l *Logger) logWithSource(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	inner := l.inner()
	if !inner.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip runtime.Callers, logWithSource and the level wrapper
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = inner.Handler().Handle(ctx, record)
}

func (l *Logger) With(args ...any) *Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	return &Logger{
		attrs: append(attrs, args...),
	}
}
