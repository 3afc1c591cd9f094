// Package logging provides structured logging for TUtils.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the library and its tools.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - File output mirrored to stdout (the "master log")
//   - Default fields (service, version) on all log entries
//   - Level-based writes through Write and WriteException
//   - Thread-safe for concurrent use
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, file
//	  file:
//	    path: "./data/masterlog.txt"
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Write(logging.LevelInformation, "starting", "port", 8080)
//	logger.WriteException(err, "failed to connect")
//
// # Security
//
// Never log secrets, tokens, passwords, or API keys. Statement parameters
// are logged at debug level only.
package logging
