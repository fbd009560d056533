package controls

import "time"

// State log actions.
const (
	ActionLoad   = "load"
	ActionSave   = "save"
	ActionDecode = "decode"
	ActionEmit   = "emit"
)

// StateLogEvent describes one persistence interaction of a feature.
type StateLogEvent struct {
	Table    string
	Feature  Feature
	Action   string
	Key      string
	Target   string
	Duration time.Duration
	Err      error
}

// StateLogger records persistence events. Store failures are only reported
// here; they never reach the caller of a setter.
type StateLogger interface {
	LogState(StateLogEvent)
}

// StateLoggerFunc adapts a function to StateLogger.
type StateLoggerFunc func(StateLogEvent)

func (f StateLoggerFunc) LogState(event StateLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopStateLogger struct{}

func (noopStateLogger) LogState(StateLogEvent) {}

// WithStateLogger attaches a persistence logger to the table.
func WithStateLogger(logger StateLogger) Option {
	return func(cfg *optionsConfig) {
		if logger == nil {
			cfg.stateLogger = noopStateLogger{}
			return
		}
		cfg.stateLogger = logger
	}
}
