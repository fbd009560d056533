//go:build !js_eval

package controls

import (
	"context"
	"errors"
	"testing"
)

func TestJSExpressionsRejectedWithoutBuildTag(t *testing.T) {
	if JSEvaluatorAvailable() {
		t.Fatalf("js evaluator must report unavailable without js_eval")
	}
	_, err := New(context.Background(), minimumSeverityConfig("item.severity == value"), WithEvaluator(NewJSEvaluator()))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "severity" {
		t.Fatalf("expected config error for severity, got %v", err)
	}
	if !errors.Is(err, ErrJSEvaluatorUnavailable) {
		t.Fatalf("expected ErrJSEvaluatorUnavailable, got %v", err)
	}
	if _, err := NewJSEvaluator().Evaluate(RuleContext{Value: "high"}, "true"); !errors.Is(err, ErrJSEvaluatorUnavailable) {
		t.Fatalf("expected ErrJSEvaluatorUnavailable from Evaluate, got %v", err)
	}
}
