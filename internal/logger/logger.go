package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Logger defines the common logging interface used throughout the application.
// Info, Warning and Error are internal diagnostics; WarningToUser and
// StatusMessage are meant for the user.
type Logger interface {
	// Info logs a debug-log-only informational message.
	Info(format string, args ...interface{})

	// Warning logs a potential issue. Shown on stdout only in verbose mode.
	Warning(format string, args ...interface{})

	// Error logs a failure. Always shown on stderr.
	Error(format string, args ...interface{})

	// WarningToUser logs a warning and shows it on stdout.
	WarningToUser(format string, args ...interface{})

	// StatusMessage prints a line to stdout exactly as formatted, without logging it.
	StatusMessage(format string, args ...interface{})

	// Close flushes and closes the debug log file, if any.
	Close() error
}

// Options configures a DefaultLogger.
type Options struct {
	// Enabled turns on the structured debug log file.
	Enabled bool

	// LogFile is the path of the debug log. Parent directories are created.
	LogFile string

	// Verbose echoes Warning messages to stdout.
	Verbose bool

	// Stdout and Stderr default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Attrs are attached to every structured log record.
	Attrs []slog.Attr
}

// DefaultLogger provides structured logging capability and implements the Logger interface
type DefaultLogger struct {
	mu      sync.Mutex
	logger  *slog.Logger
	enabled bool
	logFile string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
	file    *os.File
}

// New creates a DefaultLogger from opts.
func New(opts Options) *DefaultLogger {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	var (
		handler slog.Handler
		file    *os.File
	)

	if opts.Enabled {
		f, err := openLogFile(opts.LogFile)
		if err == nil {
			file = f
			handler = slog.NewTextHandler(f, handlerOpts)
			_, _ = fmt.Fprintf(opts.Stdout, "🔍 Debug logging enabled. Logs will be written to: %s\n", opts.LogFile)
		} else {
			handler = slog.NewTextHandler(opts.Stderr, handlerOpts)
			_, _ = fmt.Fprintf(opts.Stderr, "⚠️ Failed to open log file: %v, using stderr instead\n", err)
		}
	} else {
		handler = slog.NewTextHandler(opts.Stderr, handlerOpts)
	}

	if len(opts.Attrs) > 0 {
		handler = handler.WithAttrs(opts.Attrs)
	}

	l := &DefaultLogger{
		logger:  slog.New(handler),
		enabled: opts.Enabled,
		logFile: opts.LogFile,
		verbose: opts.Verbose,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		file:    file,
	}

	if l.enabled {
		l.logger.Info("gitfilesync debug logging started", slog.Int("pid", os.Getpid()))
	}

	return l
}

// NewWithOutput creates a DefaultLogger with custom output writers
func NewWithOutput(enabled bool, logFile string, verbose bool, stdout, stderr io.Writer) *DefaultLogger {
	return New(Options{
		Enabled: enabled,
		LogFile: logFile,
		Verbose: verbose,
		Stdout:  stdout,
		Stderr:  stderr,
	})
}

func openLogFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// record writes msg to the debug log at level when file logging is enabled.
// Callers must hold l.mu.
func (l *DefaultLogger) record(level slog.Level, msg string) {
	if !l.enabled {
		return
	}
	l.logger.Log(context.Background(), level, msg)
}

// Info logs an informational message (file only)
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.record(slog.LevelInfo, fmt.Sprintf(format, args...))
}

// Warning logs a warning message
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.record(slog.LevelWarn, msg)

	if l.verbose {
		_, _ = fmt.Fprintf(l.stdout, "⚠️  %s\n", msg)
	}
}

// WarningToUser logs a warning message to both file and stdout
func (l *DefaultLogger) WarningToUser(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.record(slog.LevelWarn, msg)
	_, _ = fmt.Fprintf(l.stdout, "⚠️  %s\n", msg)
}

// Error logs an error message
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	l.record(slog.LevelError, msg)
	_, _ = fmt.Fprintf(l.stderr, "❌ %s\n", msg)
}

// StatusMessage prints a status message to stdout only (no logging)
func (l *DefaultLogger) StatusMessage(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintln(l.stdout, fmt.Sprintf(format, args...))
}

// Close ensures any buffered data is written and closes open log file handles
func (l *DefaultLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}

	if err := l.file.Sync(); err != nil {
		return err
	}
	err := l.file.Close()
	l.file = nil
	l.enabled = false
	return err
}
