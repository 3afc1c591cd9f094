package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/TBye101/TUtils/logging"
)

// ReadScript returns the full text of the SQL script at path in fsys.
//
// fsys is normally an embed.FS compiled into the binary:
//
//	//go:embed *.sql
//	var scriptsFS embed.FS
//
//	text, err := database.ReadScript(scriptsFS, "bootstrap.sql")
//
// Returns:
//   - string: Script contents
//   - error: ErrScriptNotFound if path does not exist, or a read error
func ReadScript(fsys fs.FS, path string) (string, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrScriptNotFound, path)
		}
		return "", fmt.Errorf("reading script %s: %w", path, err)
	}
	return string(data), nil
}

// LaunchScript reads the script at path and runs it as a single non-query
// that is always committed when it executes without error.
//
// Returns false if the script is missing or the statement fails; both are
// logged (the latter by the wrapper).
func LaunchScript(ctx context.Context, w Wrapper, fsys fs.FS, path string, logger Logger) bool {
	script, err := ReadScript(fsys, path)
	if err != nil {
		if logger != nil {
			logger.WriteException(err, "an error occurred while reading a SQL script")
		}
		return false
	}
	return w.AttemptNonQuery(ctx, script, AcceptAll)
}

// LaunchScripts runs each script in order and stops at the first failure.
//
// Each script commits on its own. If script N fails, scripts before it
// stay committed and scripts after it are not attempted.
func LaunchScripts(ctx context.Context, w Wrapper, fsys fs.FS, paths []string, logger Logger) error {
	for _, path := range paths {
		script, err := ReadScript(fsys, path)
		if err != nil {
			return err
		}
		if _, err := w.ExecNonQuery(ctx, script, AcceptAll); err != nil {
			return fmt.Errorf("running script %s: %w", path, err)
		}
		if logger != nil {
			logger.Write(logging.LevelInformation, "SQL script applied", "script", path)
		}
	}
	return nil
}
