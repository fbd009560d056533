package controls

import (
	"context"
	"sync"

	"github.com/goliatone/go-table-controls/pkg/state"
)

// ActiveItemState holds the id of the item shown in the detail pane.
type ActiveItemState struct {
	mu sync.RWMutex
	id string
	p  *persister
}

func newActiveItemState(ctx context.Context, p *persister) *ActiveItemState {
	s := &ActiveItemState{p: p}
	if snapshot, ok := p.load(ctx); ok {
		s.id = snapshot.Get(fieldActiveItem)
	}
	return s
}

// ActiveItemID returns the active id, or "" when none is active.
func (s *ActiveItemState) ActiveItemID() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// SetActiveItemID activates id. An empty id clears the active item.
func (s *ActiveItemState) SetActiveItemID(ctx context.Context, id string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.id == id {
		s.mu.Unlock()
		return
	}
	old := s.id
	s.id = id
	snapshot := state.Snapshot{}
	if id != "" {
		snapshot.Set(fieldActiveItem, id)
	}
	s.mu.Unlock()
	s.p.commit(ctx, snapshot, old, id)
}

func (s *ActiveItemState) ClearActiveItem(ctx context.Context) {
	s.SetActiveItemID(ctx, "")
}
