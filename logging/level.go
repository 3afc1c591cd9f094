package logging

import (
	"log/slog"

	"github.com/TBye101/TUtils/errs"
)

// Level controls the severity of a written log entry.
type Level int

// Log levels, most severe first.
const (
	// LevelError is for errors and their details.
	LevelError Level = iota

	// LevelWarning is for something that is not quite right but will not cause harm.
	LevelWarning

	// LevelInformation is for useful or interesting information.
	LevelInformation

	// LevelDebug is for verbose diagnostics.
	LevelDebug

	// LevelNone writes the entry without a level prefix.
	LevelNone
)

// Prefixes written in the "prefix" attribute of each entry.
const (
	prefixError   = "ERR"
	prefixWarning = "WARN"
	prefixInfo    = "INFO"
	prefixDebug   = "DBG"
	prefixNone    = ""
)

// Prefix returns the short label for the level.
// It panics with *errs.UnexpectedMemberError for an unknown level.
func (l Level) Prefix() string {
	switch l {
	case LevelError:
		return prefixError
	case LevelWarning:
		return prefixWarning
	case LevelInformation:
		return prefixInfo
	case LevelDebug:
		return prefixDebug
	case LevelNone:
		return prefixNone
	default:
		panic(errs.NewUnexpectedMember("unexpected log level", int(l)))
	}
}

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInformation:
		return "information"
	case LevelDebug:
		return "debug"
	case LevelNone:
		return "none"
	default:
		return "unknown"
	}
}

// slogLevel maps the level onto slog. LevelNone is written at info.
// It panics with *errs.UnexpectedMemberError for an unknown level.
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarning:
		return slog.LevelWarn
	case LevelInformation, LevelNone:
		return slog.LevelInfo
	case LevelDebug:
		return slog.LevelDebug
	default:
		panic(errs.NewUnexpectedMember("unexpected log level", int(l)))
	}
}
