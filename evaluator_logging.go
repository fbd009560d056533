package controls

import "time"

// EvaluatorLogEvent records one filter expression run: the rule of Category
// tested against the selected Value for the item ItemID.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Category string
	Value    string
	ItemID   string
	Matched  bool
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records filter expression runs. It is called once per item
// and selected value, so implementations should be cheap.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

// FailuresOnly forwards events carrying an error and drops the rest.
func FailuresOnly(logger EvaluatorLogger) EvaluatorLogger {
	if logger == nil {
		return noopEvaluatorLogger{}
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		if event.Err != nil {
			logger.LogEvaluation(event)
		}
	})
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// WithEvaluatorLogger attaches a filter expression logger to the table.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *optionsConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}
