package converter

// Logger is the logging contract used by the converter. It matches the
// method set of go-logger's glog.Logger, so a glog logger can be passed directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NoOpLogger returns a logger that discards everything.
func NoOpLogger() Logger {
	return noopLogger{}
}
