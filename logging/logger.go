package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

const (
	// dirPermissions is the permission mode for the log file directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the log file.
	filePermissions = 0600

	// maxCauseDepth bounds how far WriteException follows wrapped errors.
	maxCauseDepth = 32
)

// Config contains logging settings.
// These map to the logging section of config.yaml.
type Config struct {
	Level  string     `yaml:"level"`
	Format string     `yaml:"format"`
	Output string     `yaml:"output"`
	File   FileConfig `yaml:"file"`
}

// FileConfig contains file-based logging settings.
type FileConfig struct {
	// Path is the log file. It is truncated when the logger is created.
	Path string `yaml:"path"`
}

// Logger wraps slog.Logger with TUtils-specific functionality.
//
// It provides structured logging with default fields, level-based writes
// and recursive error reporting.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// New creates a new Logger writing to stdout or stderr.
//
// It configures:
//   - Output format (JSON for production, text for development)
//   - Log level filtering
//   - Default fields (service name, version)
//   - Output destination
//
// An output of "file" is not opened here; use NewFile for that.
// New falls back to stdout in that case.
//
// Parameters:
//   - cfg: Logging configuration from config.yaml
//   - version: Application version for default field
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg Config, version string) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	return newLogger(output, nil, cfg, version)
}

// NewFile creates a Logger that writes to cfg.File.Path and mirrors every
// entry to stdout. The file is replaced if it already exists.
//
// Returns:
//   - *Logger: Configured logger; call Close to release the file
//   - error: If the directory or file cannot be created
func NewFile(cfg Config, version string) (*Logger, error) {
	if cfg.File.Path == "" {
		return nil, ErrNoFilePath
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(cfg.File.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	return newLogger(io.MultiWriter(f, os.Stdout), f, cfg, version), nil
}

// NewWithWriter creates a Logger writing to w. Useful for tests and for
// embedding the logger in other sinks.
func NewWithWriter(w io.Writer, cfg Config, version string) *Logger {
	return newLogger(w, nil, cfg, version)
}

func newLogger(output io.Writer, closer io.Closer, cfg Config, version string) *Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "tutils"),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
		closer: closer,
	}
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Write writes message at level with optional key-value attributes.
// It panics with *errs.UnexpectedMemberError for an unknown level.
func (l *Logger) Write(level Level, message string, args ...any) {
	prefix := level.Prefix()
	if prefix != "" {
		args = append([]any{"prefix", prefix}, args...)
	}
	l.Logger.Log(context.Background(), level.slogLevel(), message, args...)
}

// WriteException writes err at error level with its type, message and the
// stack of the caller, then writes every wrapped cause as an "inner error"
// entry. Both single (Unwrap() error) and joined (Unwrap() []error) chains
// are followed.
func (l *Logger) WriteException(err error, message string) {
	if err == nil {
		l.Write(LevelError, message)
		return
	}

	l.Logger.Error(message,
		"prefix", prefixError,
		"error", err.Error(),
		"error_type", fmt.Sprintf("%T", err),
		"stack", string(debug.Stack()),
	)
	l.writeCauses(err, 1)
}

func (l *Logger) writeCauses(err error, depth int) {
	if depth > maxCauseDepth {
		return
	}
	for _, cause := range unwrapAll(err) {
		l.Logger.Error("inner error",
			"prefix", prefixError,
			"error", cause.Error(),
			"error_type", fmt.Sprintf("%T", cause),
			"depth", depth,
		)
		l.writeCauses(cause, depth+1)
	}
}

// unwrapAll returns the direct causes of err.
func unwrapAll(err error) []error {
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		return u.Unwrap()
	case interface{ Unwrap() error }:
		if cause := u.Unwrap(); cause != nil {
			return []error{cause}
		}
	}
	return nil
}

// With returns a new Logger with additional default attributes.
// The returned logger shares the parent's output and must not be closed.
//
// Example:
//
//	dbLogger := logger.With("component", "database")
//	dbLogger.Info("connected") // Includes component=database
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Close releases the log file, if any. Safe to call on stdout loggers.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	if err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	return nil
}

// Default creates a default logger for use before configuration is loaded.
//
// This logger outputs to stdout in JSON format at info level.
// It should only be used during early startup before config is available.
func Default() *Logger {
	return New(Config{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
