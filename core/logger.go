package core

// Logger logs app messages and optionally reports them to an error
// monitoring service. Implementations may inspect args for known types
// (errors, user values) to enrich reports.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
