package types

// Logger is the structured logging interface used throughout robotcmd.
//
// Every method takes a message followed by alternating key-value pairs, the
// same convention as log/slog. internal/logging adapts a *slog.Logger to it.
//
// The controller logs subscription lifecycle events at Info, configuration
// and decode problems at Warn, and failed binds or takes at Error. Fatal is
// reserved for the cmd/ binaries; library code never calls it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// Fatal logs and terminates the process (or fails the test for test loggers).
	Fatal(msg string, keysAndValues ...any)
}
