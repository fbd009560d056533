package controls

import (
	"errors"
	"fmt"
	"strings"
)

// EvaluationError reports a filter expression that failed to compile or
// run. Category and Value are empty for compile failures.
type EvaluationError struct {
	Engine   string
	Expr     string
	Category string
	Value    string
	Err      error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "controls: %s evaluator %s", e.Engine, describeExpression(e.Expr))
	if e.Category != "" {
		fmt.Fprintf(&b, " category=%s", e.Category)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value=%q", e.Value)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "controls:") {
		return err
	}
	return fmt.Errorf("controls: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches the expression and the filter selection it
// ran for, filling only fields an inner EvaluationError left empty.
func wrapEvaluationError(engine, expr, category, value string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Category == "" {
			evalErr.Category = category
		}
		if evalErr.Value == "" {
			evalErr.Value = value
		}
		return evalErr
	}

	return &EvaluationError{
		Engine:   engine,
		Expr:     expr,
		Category: category,
		Value:    value,
		Err:      err,
	}
}
