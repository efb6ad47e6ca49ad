// Package logging provides a minimal logging interface and adapters for the SDK.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) with slog style key/value arguments. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - SDKLogger, a configurable slog logger with component/context clones
//   - NoOpLogger for silent operation (the default)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelDebug, "text", false)
//	client, err := serenitystar.New(apiKey, func(o *serenitystar.Options) {
//		o.Logger = logger.WithComponent("serenitystar")
//	})
package logging
