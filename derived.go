package controls

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// LocalFeatures is the feature configuration the local calculator needs.
// Disabled features pass items through unchanged.
type LocalFeatures[TItem any] struct {
	FilterEnabled     bool
	Matchers          map[string]ItemMatcher[TItem]
	SortEnabled       bool
	Comparators       map[string]func(a, b TItem) int
	PaginationEnabled bool
}

// GetLocalDerivedState filters, sorts and paginates items in that order. It
// is pure and keeps no state; TotalItemCount is the post-filter count.
//
// Filtering keeps an item when, for every category with a non-empty
// selection, at least one selected value matches. Categories without a
// matcher do not constrain the result. Sorting is stable.
func GetLocalDerivedState[TItem any](items []TItem, st State, features LocalFeatures[TItem]) DerivedState[TItem] {
	filtered := slices.Clone(items)
	if features.FilterEnabled {
		filtered = filterItems(items, st.FilterValues, features.Matchers)
	}
	if features.SortEnabled && st.ActiveSort != nil {
		sortItems(filtered, *st.ActiveSort, features.Comparators)
	}
	current := filtered
	if features.PaginationEnabled {
		current = paginate(filtered, st.PageNumber, st.ItemsPerPage)
	}
	return DerivedState[TItem]{
		FilteredItems:    filtered,
		CurrentPageItems: current,
		TotalItemCount:   len(filtered),
	}
}

func filterItems[TItem any](items []TItem, values FilterValues, matchers map[string]ItemMatcher[TItem]) []TItem {
	active := make([]string, 0, len(values))
	for _, key := range values.Keys() {
		if len(values[key]) > 0 && matchers[key] != nil {
			active = append(active, key)
		}
	}
	out := make([]TItem, 0, len(items))
	for _, item := range items {
		if matchesAll(item, active, values, matchers) {
			out = append(out, item)
		}
	}
	return out
}

func matchesAll[TItem any](item TItem, active []string, values FilterValues, matchers map[string]ItemMatcher[TItem]) bool {
	for _, key := range active {
		match := matchers[key]
		if !slices.ContainsFunc(values[key], func(value string) bool { return match(item, value) }) {
			return false
		}
	}
	return true
}

func sortItems[TItem any](items []TItem, sort ActiveSort, comparators map[string]func(a, b TItem) int) {
	compare := comparators[sort.ColumnKey]
	if compare == nil {
		return
	}
	if sort.Direction == SortDesc {
		slices.SortStableFunc(items, func(a, b TItem) int { return compare(b, a) })
		return
	}
	slices.SortStableFunc(items, compare)
}

func paginate[TItem any](items []TItem, pageNumber, itemsPerPage int) []TItem {
	if itemsPerPage < 1 {
		return items
	}
	start := (max(pageNumber, 1) - 1) * itemsPerPage
	if start >= len(items) {
		return []TItem{}
	}
	end := min(start+itemsPerPage, len(items))
	return items[start:end:end]
}

// ComparatorFromValue builds a comparator ordering items by CompareValues of
// the extracted value.
func ComparatorFromValue[TItem any](value func(TItem) any) func(a, b TItem) int {
	return func(a, b TItem) int {
		return CompareValues(value(a), value(b))
	}
}

// CompareValues orders nil first, then strings case-insensitively, numbers,
// booleans (false first) and times. Values of different kinds compare by
// their formatted text.
func CompareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			if c := cmp.Compare(strings.ToLower(av), strings.ToLower(bv)); c != 0 {
				return c
			}
			return cmp.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return cmp.Compare(af, bf)
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
