package logging

import "errors"

// ErrNoFilePath is returned by NewFile when no file path is configured.
var ErrNoFilePath = errors.New("logging: file output requires file.path")
