// Package logging provides structured logging for the Wink bridge.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - Text output for the hub's console (human-readable)
//   - JSON output for log collectors (machine-parsable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stderr"   # stderr, stdout
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting bridge", "broker", "tcp://localhost:1883")
//	logger.Error("describe failed", "device", 2, "error", err)
//
// The logger is created once in main and passed to components; packages
// that log declare a minimal consumer interface satisfied by *Logger.
//
// # Security
//
// Never log secrets: broker passwords and InfluxDB tokens stay out of
// log fields.
package logging
