package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Logger writes diagnostics to the console and, optionally, a log file
type Logger struct {
	console *slog.Logger
	file    *slog.Logger
	logFile *os.File
	verbose bool
}

var globalLogger *Logger

// Init initializes the global logger
// consoleOutput: where diagnostics are written (stderr; stdout carries responses)
// logFilePath: optional file receiving every record regardless of level
// verbose: if true, DEBUG records reach the console as well
func Init(consoleOutput io.Writer, logFilePath string, verbose bool) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	l := &Logger{
		console: slog.New(slog.NewTextHandler(consoleOutput, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: dropTime,
		})),
		verbose: verbose,
	}

	if logFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(logFilePath), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		l.logFile = f
		l.file = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	Close()
	globalLogger = l
	return nil
}

// dropTime keeps console lines short; the file handler keeps timestamps
func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

// Close closes the log file
func Close() {
	if globalLogger != nil && globalLogger.logFile != nil {
		globalLogger.logFile.Close()
		globalLogger.logFile = nil
		globalLogger.file = nil
	}
}

// Debug logs a debug message (console only when verbose)
func Debug(msg string, args ...any) {
	log(slog.LevelDebug, msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	log(slog.LevelInfo, msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	log(slog.LevelWarn, msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	log(slog.LevelError, msg, args...)
}

// IsVerbose returns whether verbose logging is enabled
func IsVerbose() bool {
	return globalLogger != nil && globalLogger.verbose
}

func log(level slog.Level, msg string, args ...any) {
	ctx := context.Background()
	if globalLogger == nil {
		// Not initialized: warnings and errors still reach stderr
		if level >= slog.LevelWarn {
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{ReplaceAttr: dropTime})).Log(ctx, level, msg, args...)
		}
		return
	}
	if globalLogger.file != nil {
		globalLogger.file.Log(ctx, level, msg, args...)
	}
	globalLogger.console.Log(ctx, level, msg, args...)
}
