//go:build !js_eval

package controls

// NewJSEvaluator returns an evaluator that rejects every expression with
// ErrJSEvaluatorUnavailable. Build with the js_eval tag for the goja engine.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return unavailableJSEvaluator{}
}

type unavailableJSEvaluator struct{}

func (unavailableJSEvaluator) engineName() string { return "js" }

func (unavailableJSEvaluator) Compile(string, ...CompileOption) (CompiledRule, error) {
	return nil, ErrJSEvaluatorUnavailable
}

func (unavailableJSEvaluator) Evaluate(RuleContext, string) (any, error) {
	return nil, ErrJSEvaluatorUnavailable
}

func jsEvaluatorAvailable() bool {
	return false
}
