package vecknn

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog.Logger with vecknn-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// FileLoggerConfig configures NewFileLogger.
type FileLoggerConfig struct {
	// Filename is the log file path.
	Filename string
	// MaxSizeMB is the size at which the file is rotated. Default: 100.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept. Default: unlimited.
	MaxBackups int
	// MaxAgeDays removes rotated files older than this. Default: never.
	MaxAgeDays int
	// Compress gzips rotated files.
	Compress bool
	// JSON selects the JSON handler instead of text.
	JSON  bool
	Level slog.Level
}

// NewFileLogger creates a Logger writing to a size-rotated file. Close the
// returned io.Closer when done.
func NewFileLogger(cfg FileLoggerConfig) (*Logger, io.Closer) {
	w := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	return NewLogger(handler), w
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(1000),
	}))
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// WithStem adds the dataset stem to the logger.
func (l *Logger) WithStem(stem string) *Logger {
	return &Logger{
		Logger: l.Logger.With("stem", stem),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// LogLoad logs reading a data split.
func (l *Logger) LogLoad(ctx context.Context, name string, rows int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"name", name,
			"rows", rows,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load completed",
			"name", name,
			"rows", rows,
			"elapsed", elapsed,
		)
	}
}

// LogSweep logs the outcome of a hyperparameter sweep.
func (l *Logger) LogSweep(ctx context.Context, param string, trials int, validError float64, elapsed time.Duration, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "sweep failed",
			"error", err,
		)
	case trials == 0:
		l.InfoContext(ctx, "sweep skipped, using fixed value",
			"param", param,
		)
	default:
		l.InfoContext(ctx, "sweep completed",
			"param", param,
			"trials", trials,
			"valid_error", validError,
			"elapsed", elapsed,
		)
	}
}

// LogEvaluate logs the error rate of a split.
func (l *Logger) LogEvaluate(ctx context.Context, split string, total, misclassified int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "evaluate failed",
			"split", split,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "evaluate completed",
			"split", split,
			"total", total,
			"misclassified", misclassified,
		)
	}
}
