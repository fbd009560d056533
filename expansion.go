package controls

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/goliatone/go-table-controls/internal/hydrate"
	"github.com/goliatone/go-table-controls/pkg/state"
)

// ExpansionState tracks expanded rows (single variant) or expanded cells
// (compound variant). Ids that no longer match an item are simply never
// rendered as expanded.
type ExpansionState struct {
	mu      sync.RWMutex
	variant ExpansionVariant
	columns []string
	item    string
	cells   map[string][]string
	p       *persister
}

func newExpansionState(ctx context.Context, p *persister, variant ExpansionVariant, columns []string) *ExpansionState {
	s := &ExpansionState{
		variant: variant,
		columns: columns,
		cells:   map[string][]string{},
		p:       p,
	}
	snapshot, ok := p.load(ctx)
	if !ok {
		return s
	}
	if variant == ExpansionSingle {
		s.item = snapshot.Get(fieldExpandedItem)
		return s
	}
	decoded, ok := decodeJSONField(ctx, p, snapshot, fieldExpandedCells,
		hydrate.WithPostHook[map[string][]string](func(_ hydrate.Context, cells *map[string][]string) error {
			for id, keys := range *cells {
				for _, key := range keys {
					if !slices.Contains(columns, key) {
						return fmt.Errorf("%w: %q", ErrUnknownColumn, key)
					}
				}
				(*cells)[id] = s.ordered(keys)
				if len((*cells)[id]) == 0 {
					delete(*cells, id)
				}
			}
			return nil
		}),
	)
	if ok {
		s.cells = decoded
	}
	return s
}

// Variant returns the configured expansion variant.
func (s *ExpansionState) Variant() ExpansionVariant {
	if s == nil {
		return ""
	}
	return s.variant
}

// ordered returns keys deduplicated in column order.
func (s *ExpansionState) ordered(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, column := range s.columns {
		if slices.Contains(keys, column) {
			out = append(out, column)
		}
	}
	return out
}

// Toggle flips the expansion of itemID. Single-expand collapses the
// previously expanded item and ignores columnKey; compound-expand flips the
// (itemID, columnKey) cell.
func (s *ExpansionState) Toggle(ctx context.Context, itemID, columnKey string) error {
	if s == nil {
		return nil
	}
	if s.variant == ExpansionSingle {
		s.SetItemExpanded(ctx, itemID, !s.IsItemExpanded(itemID))
		return nil
	}
	return s.SetCellExpanded(ctx, itemID, columnKey, !s.IsCellExpanded(itemID, columnKey))
}

// SetItemExpanded expands or collapses a row in single-expand mode. In
// compound mode collapsing clears every cell of the row.
func (s *ExpansionState) SetItemExpanded(ctx context.Context, itemID string, expanded bool) {
	if s == nil || itemID == "" {
		return
	}
	s.mu.Lock()
	if s.variant == ExpansionCompound {
		if expanded || len(s.cells[itemID]) == 0 {
			s.mu.Unlock()
			return
		}
		old := s.cloneCellsLocked()
		delete(s.cells, itemID)
		snapshot := s.snapshotLocked()
		next := s.cloneCellsLocked()
		s.mu.Unlock()
		s.p.commit(ctx, snapshot, old, next)
		return
	}
	old := s.item
	switch {
	case expanded:
		s.item = itemID
	case s.item == itemID:
		s.item = ""
	default:
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshotLocked()
	next := s.item
	s.mu.Unlock()
	s.p.commit(ctx, snapshot, old, next)
}

// SetCellExpanded expands or collapses one cell in compound mode.
func (s *ExpansionState) SetCellExpanded(ctx context.Context, itemID, columnKey string, expanded bool) error {
	if s == nil {
		return nil
	}
	if !slices.Contains(s.columns, columnKey) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, columnKey)
	}
	if s.variant != ExpansionCompound {
		s.SetItemExpanded(ctx, itemID, expanded)
		return nil
	}
	s.mu.Lock()
	current := s.cells[itemID]
	if slices.Contains(current, columnKey) == expanded {
		s.mu.Unlock()
		return nil
	}
	old := s.cloneCellsLocked()
	if expanded {
		s.cells[itemID] = s.ordered(append(slices.Clone(current), columnKey))
	} else {
		remaining := slices.DeleteFunc(slices.Clone(current), func(key string) bool { return key == columnKey })
		if len(remaining) == 0 {
			delete(s.cells, itemID)
		} else {
			s.cells[itemID] = remaining
		}
	}
	snapshot := s.snapshotLocked()
	next := s.cloneCellsLocked()
	s.mu.Unlock()
	s.p.commit(ctx, snapshot, old, next)
	return nil
}

// CollapseAll collapses every row and cell.
func (s *ExpansionState) CollapseAll(ctx context.Context) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.item == "" && len(s.cells) == 0 {
		s.mu.Unlock()
		return
	}
	old := any(s.item)
	if s.variant == ExpansionCompound {
		old = s.cloneCellsLocked()
	}
	s.item = ""
	s.cells = map[string][]string{}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.p.commit(ctx, snapshot, old, nil)
}

// IsItemExpanded reports whether the row, or any cell of it, is expanded.
func (s *ExpansionState) IsItemExpanded(itemID string) bool {
	if s == nil || itemID == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.variant == ExpansionSingle {
		return s.item == itemID
	}
	return len(s.cells[itemID]) > 0
}

// IsCellExpanded reports whether (itemID, columnKey) is expanded. In single
// mode it is true for every column of the expanded row.
func (s *ExpansionState) IsCellExpanded(itemID, columnKey string) bool {
	if s == nil || itemID == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.variant == ExpansionSingle {
		return s.item == itemID
	}
	return slices.Contains(s.cells[itemID], columnKey)
}

// ExpandedColumns returns the expanded column keys of itemID in column order.
func (s *ExpansionState) ExpandedColumns(itemID string) []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.cells[itemID])
}

// ExpandedItemIDs lists every expanded row, sorted.
func (s *ExpansionState) ExpandedItemIDs() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.variant == ExpansionSingle {
		if s.item == "" {
			return nil
		}
		return []string{s.item}
	}
	ids := make([]string, 0, len(s.cells))
	for id := range s.cells {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *ExpansionState) cloneCellsLocked() map[string][]string {
	out := make(map[string][]string, len(s.cells))
	for id, keys := range s.cells {
		out[id] = slices.Clone(keys)
	}
	return out
}

func (s *ExpansionState) snapshotLocked() state.Snapshot {
	snapshot := state.Snapshot{}
	if s.variant == ExpansionSingle {
		if s.item != "" {
			snapshot.Set(fieldExpandedItem, s.item)
		}
		return snapshot
	}
	if len(s.cells) > 0 {
		encodeJSONField(snapshot, fieldExpandedCells, s.cells)
	}
	return snapshot
}
