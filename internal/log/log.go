// Package log defines the pluggable structured-logger seam used
// throughout bunlock. Callers wire in a concrete backend (see the zap
// and logrus subpackages); the decoder and CLI never import a logging
// library directly.
package log

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger interface. An adapter wraps whatever
// logging stack a caller already uses. A nil Logger is never passed
// around internally; use NopLogger instead.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

// NopLogger discards everything. It is the default when no Logger is
// supplied.
type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}
