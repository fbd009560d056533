package controls

import (
	"context"
	"slices"
	"sync"

	"github.com/goliatone/go-table-controls/pkg/state"
)

// SelectionState holds the selected item ids in selection order.
type SelectionState struct {
	mu  sync.RWMutex
	ids []string
	p   *persister
}

func newSelectionState(ctx context.Context, p *persister) *SelectionState {
	s := &SelectionState{p: p}
	if snapshot, ok := p.load(ctx); ok {
		for _, id := range snapshot[fieldSelectedItems] {
			if id != "" && !slices.Contains(s.ids, id) {
				s.ids = append(s.ids, id)
			}
		}
	}
	return s
}

// SelectedIDs returns the selected ids in selection order.
func (s *SelectionState) SelectedIDs() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ids)
}

func (s *SelectionState) IsSelected(id string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.ids, id)
}

// Select adds or removes ids.
func (s *SelectionState) Select(ctx context.Context, selected bool, ids ...string) {
	if s == nil {
		return
	}
	s.mu.RLock()
	next := slices.Clone(s.ids)
	s.mu.RUnlock()
	for _, id := range ids {
		if id == "" {
			continue
		}
		has := slices.Contains(next, id)
		switch {
		case selected && !has:
			next = append(next, id)
		case !selected && has:
			next = slices.DeleteFunc(next, func(v string) bool { return v == id })
		}
	}
	s.replace(ctx, next)
}

// SelectOnly replaces the selection with ids.
func (s *SelectionState) SelectOnly(ctx context.Context, ids ...string) {
	if s == nil {
		return
	}
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	s.replace(ctx, next)
}

func (s *SelectionState) ClearSelection(ctx context.Context) {
	s.SelectOnly(ctx)
}

func (s *SelectionState) replace(ctx context.Context, next []string) {
	s.mu.Lock()
	if slices.Equal(s.ids, next) {
		s.mu.Unlock()
		return
	}
	old := s.ids
	s.ids = next
	snapshot := state.Snapshot{}
	snapshot.Set(fieldSelectedItems, next...)
	s.mu.Unlock()
	s.p.commit(ctx, snapshot, old, slices.Clone(next))
}
