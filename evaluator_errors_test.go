package controls

import (
	"errors"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := wrapEvaluationError("expr", "item.severity == value", "severity", "high", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" {
		t.Fatalf("expected engine expr, got %q", evalErr.Engine)
	}
	if evalErr.Expr != "item.severity == value" {
		t.Fatalf("expected expression metadata, got %q", evalErr.Expr)
	}
	if evalErr.Category != "severity" {
		t.Fatalf("expected category metadata, got %q", evalErr.Category)
	}
	if evalErr.Value != "high" {
		t.Fatalf("expected selected value metadata, got %q", evalErr.Value)
	}
	if !errors.Is(evalErr.Err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
}

func TestWrapEvaluationErrorAugmentsExisting(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{
		Engine: "expr",
		Err:    base,
	}

	err := wrapEvaluationError("cel", "rule", "status", "open", existing)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error to unwrap")
	}
	if existing.Engine != "expr" {
		t.Fatalf("existing engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "rule" {
		t.Fatalf("expression should be filled, got %q", existing.Expr)
	}
	if existing.Category != "status" {
		t.Fatalf("category should be filled, got %q", existing.Category)
	}
	if existing.Value != "open" {
		t.Fatalf("value should be filled, got %q", existing.Value)
	}
}

func TestWrapEvaluatorErrorKeepsPrefixedErrors(t *testing.T) {
	prefixed := errors.New("controls: already described")
	if got := wrapEvaluatorError("expr", prefixed); got != prefixed {
		t.Fatalf("expected prefixed error returned as is, got %v", got)
	}
	wrapped := wrapEvaluatorError("cel", errors.New("bad"))
	if wrapped.Error() != "controls: cel evaluator: bad" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}

func TestEvaluationErrorDescribesSelection(t *testing.T) {
	err := wrapEvaluationError("cel", "item.score > value", "score", "high", errors.New("no such overload"))
	want := `controls: cel evaluator expr="item.score > value" category=score value="high": no such overload`
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}

	compile := wrapEvaluationError("expr", "severity ==", "", "", errors.New("unexpected token"))
	if got := compile.Error(); got != `controls: expr evaluator expr="severity ==": unexpected token` {
		t.Fatalf("compile errors carry no selection, got %q", got)
	}
}
