package database

import "github.com/TBye101/TUtils/logging"

// Logger is the logging capability the wrapper needs.
// *logging.Logger satisfies it.
type Logger interface {
	Write(level logging.Level, message string, args ...any)
	WriteException(err error, message string)
}

// nopLogger discards everything. It is the default when no logger is set,
// avoiding nil checks throughout the wrapper.
type nopLogger struct{}

var _ Logger = nopLogger{}

func (nopLogger) Write(_ logging.Level, _ string, _ ...any) {}

func (nopLogger) WriteException(_ error, _ string) {}
