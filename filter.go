package controls

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/goliatone/go-table-controls/internal/hydrate"
	"github.com/goliatone/go-table-controls/pkg/state"
)

// FilterState holds the selected values per filter category.
type FilterState struct {
	mu     sync.RWMutex
	values FilterValues
	known  map[string]bool
	p      *persister
}

func newFilterState(ctx context.Context, p *persister, categories []string, initial FilterValues) *FilterState {
	f := &FilterState{
		known: make(map[string]bool, len(categories)),
		p:     p,
	}
	for _, key := range categories {
		f.known[key] = true
	}
	f.values = f.sanitize(initial)

	snapshot, ok := p.load(ctx)
	if !ok {
		return f
	}
	if snapshot.Get(fieldFilters) == "" {
		f.values = FilterValues{}
		return f
	}
	decoded, ok := decodeJSONField(ctx, p, snapshot, fieldFilters,
		hydrate.WithPostHook[FilterValues](func(_ hydrate.Context, values *FilterValues) error {
			*values = f.sanitize(*values)
			return nil
		}),
	)
	if ok {
		f.values = decoded
	}
	return f
}

// sanitize drops unknown categories and empty selections.
func (f *FilterState) sanitize(values FilterValues) FilterValues {
	out := FilterValues{}
	for key, selected := range values {
		if !f.known[key] || len(selected) == 0 {
			continue
		}
		out[key] = slices.Clone(selected)
	}
	return out
}

// Values returns a copy of the current selections.
func (f *FilterState) Values() FilterValues {
	if f == nil {
		return FilterValues{}
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values.Clone()
}

// HasActiveFilters reports whether any category constrains the result.
func (f *FilterState) HasActiveFilters() bool {
	if f == nil {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.values) > 0
}

// SetFilterValues replaces every selection.
func (f *FilterState) SetFilterValues(ctx context.Context, values FilterValues) {
	if f == nil {
		return
	}
	f.replace(ctx, f.sanitize(values))
}

// SetCategoryValues replaces the selection of one category. No values
// removes the category.
func (f *FilterState) SetCategoryValues(ctx context.Context, key string, values ...string) {
	if f == nil || !f.known[key] {
		return
	}
	next := f.Values()
	if len(values) == 0 {
		delete(next, key)
	} else {
		next[key] = slices.Clone(values)
	}
	f.replace(ctx, next)
}

// ClearFilters removes every selection.
func (f *FilterState) ClearFilters(ctx context.Context) {
	if f == nil {
		return
	}
	f.replace(ctx, FilterValues{})
}

func (f *FilterState) replace(ctx context.Context, next FilterValues) {
	f.mu.Lock()
	if maps.EqualFunc(f.values, next, slices.Equal[[]string]) {
		f.mu.Unlock()
		return
	}
	old := f.values
	f.values = next
	snapshot := f.snapshotLocked()
	f.mu.Unlock()
	f.p.commit(ctx, snapshot, old, next.Clone())
}

func (f *FilterState) snapshotLocked() state.Snapshot {
	snapshot := state.Snapshot{}
	if len(f.values) > 0 {
		encodeJSONField(snapshot, fieldFilters, f.values)
	}
	return snapshot
}
