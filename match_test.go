package controls

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
)

func rankFunction(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("rank expects 1 argument, got %d", len(args))
	}
	name, _ := args[0].(string)
	rank, ok := severityRank[name]
	if !ok {
		return 0, nil
	}
	return rank, nil
}

// minimumSeverityConfig filters by "at least this severity".
func minimumSeverityConfig(expression string) Config[vuln] {
	cfg := vulnConfig()
	cfg.Filter.Categories[0] = FilterCategory[vuln]{
		Key:        "severity",
		Type:       FilterSelect,
		Expression: expression,
	}
	return cfg
}

type recordingEvaluatorLogger struct {
	mu     sync.Mutex
	events []EvaluatorLogEvent
}

func (l *recordingEvaluatorLogger) LogEvaluation(event EvaluatorLogEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *recordingEvaluatorLogger) failures() []EvaluatorLogEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []EvaluatorLogEvent
	for _, event := range l.events {
		if event.Err != nil {
			out = append(out, event)
		}
	}
	return out
}

func TestExpressionMatchers(t *testing.T) {
	cases := []struct {
		name       string
		expression string
		opts       []Option
		value      string
		want       []string
	}{
		{
			name:       "expr top level fields",
			expression: "severity == value",
			value:      "high",
			want:       []string{"2", "3"},
		},
		{
			name:       "expr custom function",
			expression: "rank(item.severity) >= rank(value)",
			opts:       []Option{WithCustomFunction("rank", rankFunction)},
			value:      "high",
			want:       []string{"2", "3", "4"},
		},
		{
			name:       "expr args",
			expression: "score >= args.minScore && category == 'severity' && value != ''",
			opts:       []Option{WithExpressionArgs(map[string]any{"minScore": 8.0})},
			value:      "any",
			want:       []string{"2", "4"},
		},
		{
			name:       "cel",
			expression: "item.severity == value || item.score > 9.0",
			opts:       []Option{WithEvaluator(NewCELEvaluator())},
			value:      "low",
			want:       []string{"1", "4"},
		},
		{
			name:       "cel custom function",
			expression: "rank(item.severity) >= rank(value)",
			opts: []Option{WithEvaluator(NewCELEvaluator(CELWithFunctionRegistry(func() *FunctionRegistry {
				registry := NewFunctionRegistry()
				_ = registry.Register("rank", rankFunction)
				return registry
			}())))},
			value: "critical",
			want:  []string{"4"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newVulnControls(t, minimumSeverityConfig(tc.expression), tc.opts...)
			c.Filter().SetCategoryValues(context.Background(), "severity", tc.value)
			derived := c.LocalDerivedState(sampleVulns())
			expectIDs(t, "filtered", derived.FilteredItems, tc.want...)
		})
	}
}

func TestExpressionFailuresDoNotMatch(t *testing.T) {
	logger := &recordingEvaluatorLogger{}
	c := newVulnControls(t, minimumSeverityConfig("score"), WithEvaluatorLogger(logger))
	c.Filter().SetCategoryValues(context.Background(), "severity", "high")

	derived := c.LocalDerivedState(sampleVulns())
	if derived.TotalItemCount != 0 {
		t.Fatalf("non-boolean results must not match, got %v", ids(derived.FilteredItems))
	}
	failures := logger.failures()
	if len(failures) != len(sampleVulns()) {
		t.Fatalf("expected one logged failure per item, got %d", len(failures))
	}
	var evalErr *EvaluationError
	if !errors.As(failures[0].Err, &evalErr) || evalErr.Engine != "expr" || evalErr.Category != "severity" || evalErr.Value != "high" {
		t.Fatalf("expected evaluation error with context, got %v", failures[0].Err)
	}
	if failures[0].ItemID != "1" || failures[0].Value != "high" || failures[0].Matched {
		t.Fatalf("expected event for item 1 and value high, got %+v", failures[0])
	}
}

func TestEvaluatorLogEventsDescribeMatches(t *testing.T) {
	all := &recordingEvaluatorLogger{}
	failed := &recordingEvaluatorLogger{}
	logger := EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		all.LogEvaluation(event)
		FailuresOnly(failed).LogEvaluation(event)
	})
	c := newVulnControls(t, minimumSeverityConfig("severity == value"), WithEvaluatorLogger(logger))
	c.Filter().SetCategoryValues(context.Background(), "severity", "critical")
	c.LocalDerivedState(sampleVulns())

	if len(all.events) != len(sampleVulns()) {
		t.Fatalf("expected one event per item, got %d", len(all.events))
	}
	var matched []string
	for _, event := range all.events {
		if event.Matched {
			matched = append(matched, event.ItemID)
		}
	}
	if !slices.Equal(matched, []string{"4"}) {
		t.Fatalf("expected only item 4 to match, got %v", matched)
	}
	if len(failed.events) != 0 {
		t.Fatalf("successful runs must not reach a failures-only logger, got %d", len(failed.events))
	}
}

func TestExpressionProgramsAreCached(t *testing.T) {
	cache := NewMemoryProgramCache()
	evaluator := NewExprEvaluator(ExprWithProgramCache(cache))
	if _, err := evaluator.Compile("severity == value"); err != nil {
		t.Fatal(err)
	}
	if _, ok := cache.Get("expr:severity == value"); !ok {
		t.Fatalf("expected compiled program cached")
	}
	result, err := evaluator.Evaluate(RuleContext{Item: map[string]any{"severity": "low"}, Value: "low"}, "severity == value")
	if err != nil || result != true {
		t.Fatalf("unexpected result %v (%v)", result, err)
	}
}

func TestCELRequiresItemPrefix(t *testing.T) {
	_, err := New(context.Background(), minimumSeverityConfig("severity == value"), WithEvaluator(NewCELEvaluator()))
	if !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("expected ErrInvalidExpression for undeclared cel variable, got %v", err)
	}
}

func TestDefaultMatcherSearch(t *testing.T) {
	category := FilterCategory[vuln]{
		Key:           SearchCategoryKey,
		GetItemValues: func(v vuln) []string { return []string{v.ID, v.Name} },
	}
	match := DefaultMatcher(category)
	item := vuln{ID: "CVE-2021-44228", Name: "Log4Shell"}

	cases := []struct {
		query string
		want  bool
	}{
		{query: "log4", want: true},
		{query: "  SHELL ", want: true},
		{query: "cve-2021-*", want: true},
		{query: "cve-2022-*", want: false},
		{query: "log?shell", want: true},
		{query: "{log,zip}*", want: true},
		{query: "[", want: false},
		{query: "", want: true},
	}
	for _, tc := range cases {
		if got := match(item, tc.query); got != tc.want {
			t.Fatalf("query %q: expected %v, got %v", tc.query, tc.want, got)
		}
	}
}

func TestDefaultMatcherSelectIsExact(t *testing.T) {
	match := DefaultMatcher(FilterCategory[vuln]{
		Key:          "severity",
		GetItemValue: func(v vuln) string { return v.Severity },
	})
	if !match(vuln{Severity: "high"}, "high") || match(vuln{Severity: "high"}, "hig") || match(vuln{Severity: "high"}, "HIGH") {
		t.Fatalf("select categories must compare values exactly")
	}

	custom := DefaultMatcher(FilterCategory[vuln]{
		Key:   "severity",
		Match: func(v vuln, value string) bool { return severityRank[v.Severity] >= severityRank[value] },
	})
	if !custom(vuln{Severity: "critical"}, "high") {
		t.Fatalf("expected Match to take precedence")
	}
}
