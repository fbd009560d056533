package controls

import "github.com/goliatone/go-table-controls/pkg/state"

// WithEvaluator configures the evaluator used by filter expressions. The
// default is the expr-lang evaluator.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *optionsConfig) {
		cfg.evaluator = e
	}
}

// WithURLParams backs the urlParams persistence target, usually with a
// *state.QueryStore built from the request URL.
func WithURLParams(store state.Store) Option {
	return func(cfg *optionsConfig) {
		cfg.urlParams = store
	}
}

// WithLocalStorage backs the localStorage persistence target, usually with a
// *sqlitestore.Store.
func WithLocalStorage(store state.Store) Option {
	return func(cfg *optionsConfig) {
		cfg.localStorage = store
	}
}

// WithSessionStorage backs the sessionStorage persistence target, usually
// with state.Sessions.Session(id).
func WithSessionStorage(store state.Store) Option {
	return func(cfg *optionsConfig) {
		cfg.sessionStorage = store
	}
}
