package controls

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

// ItemMatcher reports whether item satisfies one selected filter value.
type ItemMatcher[TItem any] func(item TItem, value string) bool

// DefaultMatcher returns the type default matcher of category: exact value
// equality for select types, case-insensitive substring for search. Search
// values containing glob metacharacters (* ? [ {) match as globs.
func DefaultMatcher[TItem any](category FilterCategory[TItem]) ItemMatcher[TItem] {
	if category.Match != nil {
		return category.Match
	}
	if category.isSearch() {
		globs := &globCache{}
		return func(item TItem, value string) bool {
			return matchSearch(category.itemValues(item), value, globs)
		}
	}
	return func(item TItem, value string) bool {
		for _, candidate := range category.itemValues(item) {
			if candidate == value {
				return true
			}
		}
		return false
	}
}

// fieldValues extracts the item field named key as strings. Slices yield
// one value per element; nil yields none.
func fieldValues[TItem any](fields func(TItem) map[string]any, key string) func(TItem) []string {
	return func(item TItem) []string {
		switch v := fields(item)[key].(type) {
		case nil:
			return nil
		case string:
			return []string{v}
		case []string:
			return v
		case []any:
			out := make([]string, 0, len(v))
			for _, elem := range v {
				if elem != nil {
					out = append(out, fmt.Sprint(elem))
				}
			}
			return out
		case fmt.Stringer:
			return []string{v.String()}
		default:
			return []string{fmt.Sprint(v)}
		}
	}
}

func matchSearch(candidates []string, query string, globs *globCache) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	if strings.ContainsAny(query, "*?[{") {
		if pattern := globs.get(query); pattern != nil {
			for _, candidate := range candidates {
				if pattern.Match(strings.ToLower(candidate)) {
					return true
				}
			}
			return false
		}
	}
	for _, candidate := range candidates {
		if strings.Contains(strings.ToLower(candidate), query) {
			return true
		}
	}
	return false
}

// globCache memoizes compiled patterns; invalid patterns are cached as nil
// and fall back to substring matching.
type globCache struct {
	patterns sync.Map
}

func (c *globCache) get(pattern string) glob.Glob {
	if cached, ok := c.patterns.Load(pattern); ok {
		g, _ := cached.(glob.Glob)
		return g
	}
	compiled, err := glob.Compile(pattern)
	if err != nil {
		c.patterns.Store(pattern, nil)
		return nil
	}
	c.patterns.Store(pattern, compiled)
	return compiled
}

// expressionMatcher evaluates a compiled filter expression per item. Errors
// and non-boolean results are logged and treated as no match.
func expressionMatcher[TItem any](category FilterCategory[TItem], rule CompiledRule, engine string, fields func(TItem) map[string]any, itemID func(TItem) string, args map[string]any, logger EvaluatorLogger) ItemMatcher[TItem] {
	return func(item TItem, value string) bool {
		ctx := RuleContext{
			Item:     fields(item),
			Value:    value,
			Category: category.Key,
			Args:     args,
		}
		start := time.Now()
		result, err := rule.Evaluate(ctx)
		matched, ok := result.(bool)
		if err == nil && !ok {
			err = errNonBoolean(result)
		}
		err = wrapEvaluationError(engine, category.Expression, category.Key, value, err)
		event := EvaluatorLogEvent{
			Engine:   engine,
			Expr:     category.Expression,
			Category: category.Key,
			Value:    value,
			Matched:  err == nil && matched,
			Duration: time.Since(start),
			Err:      err,
		}
		if itemID != nil {
			event.ItemID = itemID(item)
		}
		logger.LogEvaluation(event)
		return event.Matched
	}
}
