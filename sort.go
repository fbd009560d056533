package controls

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-table-controls/pkg/state"
)

// SortState holds the active sort column and direction.
type SortState struct {
	mu       sync.RWMutex
	active   *ActiveSort
	sortable []string
	p        *persister
}

func newSortState(ctx context.Context, p *persister, sortable []string, initial *ActiveSort) *SortState {
	s := &SortState{sortable: sortable, p: p}
	if initial != nil && s.valid(*initial) == nil {
		copied := *initial
		s.active = &copied
	}

	snapshot, ok := p.load(ctx)
	if !ok {
		return s
	}
	column := snapshot.Get(fieldSortColumn)
	if column == "" {
		s.active = nil
		return s
	}
	restored := ActiveSort{ColumnKey: column, Direction: Direction(snapshot.Get(fieldSortDirection))}
	if restored.Direction == "" {
		restored.Direction = SortAsc
	}
	if err := s.valid(restored); err != nil {
		p.reset(ctx, err)
		return s
	}
	s.active = &restored
	return s
}

func (s *SortState) valid(sort ActiveSort) error {
	if !s.IsSortable(sort.ColumnKey) {
		return fmt.Errorf("%w: %q", ErrColumnNotSortable, sort.ColumnKey)
	}
	if !sort.Direction.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, sort.Direction)
	}
	return nil
}

// IsSortable reports whether columnKey may be sorted.
func (s *SortState) IsSortable(columnKey string) bool {
	if s == nil {
		return false
	}
	for _, key := range s.sortable {
		if key == columnKey {
			return true
		}
	}
	return false
}

// SortableColumns returns the sortable column keys.
func (s *SortState) SortableColumns() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.sortable...)
}

// ActiveSort returns the current sort, or nil when unsorted.
func (s *SortState) ActiveSort() *ActiveSort {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return nil
	}
	copied := *s.active
	return &copied
}

// SetActiveSort stores sort verbatim. Toggling is left to the caller.
func (s *SortState) SetActiveSort(ctx context.Context, sort ActiveSort) error {
	if s == nil {
		return nil
	}
	if err := s.valid(sort); err != nil {
		return err
	}
	s.set(ctx, &sort)
	return nil
}

// ClearSort restores the input order.
func (s *SortState) ClearSort(ctx context.Context) {
	if s == nil {
		return
	}
	s.set(ctx, nil)
}

func (s *SortState) set(ctx context.Context, next *ActiveSort) {
	s.mu.Lock()
	old := s.active
	if sameSort(old, next) {
		s.mu.Unlock()
		return
	}
	s.active = next
	snapshot := state.Snapshot{}
	if next != nil {
		snapshot.Set(fieldSortColumn, next.ColumnKey)
		snapshot.Set(fieldSortDirection, string(next.Direction))
	}
	s.mu.Unlock()
	s.p.commit(ctx, snapshot, old, next)
}

func sameSort(a, b *ActiveSort) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
