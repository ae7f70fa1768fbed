// Package logging provides a minimal logging interface and adapters for
// toolbridge.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the pipeline components use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - PipelineLogger with conversation/component context and domain helpers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	bot := agent.New(gen, disc, exec, store, func(o *agent.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
