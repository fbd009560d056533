package controls

import (
	"context"
	"slices"
	"sync"

	"github.com/goliatone/go-table-controls/internal/hydrate"
	"github.com/goliatone/go-table-controls/layering"
	"github.com/goliatone/go-table-controls/pkg/state"
)

// ColumnState holds per-column visibility. Identity columns are always
// visible.
type ColumnState struct {
	mu       sync.RWMutex
	settings []ColumnSetting
	p        *persister
}

func newColumnState(ctx context.Context, p *persister, columns []Column, overrides map[string]ColumnOverride) *ColumnState {
	visible, identity := true, false
	defaults := make(map[string]ColumnOverride, len(columns))
	for _, column := range columns {
		defaults[column.Key] = ColumnOverride{Visible: &visible, Identity: &identity}
	}
	resolved := layering.MergeLayers(overrides, defaults)

	s := &ColumnState{settings: make([]ColumnSetting, 0, len(columns)), p: p}
	for _, column := range columns {
		override := resolved[column.Key]
		setting := ColumnSetting{
			Key:      column.Key,
			Label:    column.Label,
			Visible:  override.Visible == nil || *override.Visible,
			Identity: override.Identity != nil && *override.Identity,
		}
		if setting.Identity {
			setting.Visible = true
		}
		s.settings = append(s.settings, setting)
	}

	snapshot, ok := p.load(ctx)
	if !ok {
		return s
	}
	persisted, ok := decodeJSONField(ctx, p, snapshot, fieldColumns,
		hydrate.WithPostHook[map[string]bool](func(_ hydrate.Context, visibility *map[string]bool) error {
			for key := range *visibility {
				if s.index(key) < 0 {
					delete(*visibility, key)
				}
			}
			return nil
		}),
	)
	if !ok {
		return s
	}
	for i := range s.settings {
		if v, found := persisted[s.settings[i].Key]; found && !s.settings[i].Identity {
			s.settings[i].Visible = v
		}
	}
	return s
}

func (s *ColumnState) index(key string) int {
	return slices.IndexFunc(s.settings, func(c ColumnSetting) bool { return c.Key == key })
}

// Columns returns every column setting in configured order.
func (s *ColumnState) Columns() []ColumnSetting {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.settings)
}

// VisibleColumns returns the visible column settings in configured order.
func (s *ColumnState) VisibleColumns() []ColumnSetting {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ColumnSetting, 0, len(s.settings))
	for _, setting := range s.settings {
		if setting.Visible {
			out = append(out, setting)
		}
	}
	return out
}

// GetColumnVisibility reports whether key is a visible column.
func (s *ColumnState) GetColumnVisibility(key string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(key)
	return i >= 0 && s.settings[i].Visible
}

// Label returns the configured label of key.
func (s *ColumnState) Label(key string) string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(key); i >= 0 {
		return s.settings[i].Label
	}
	return ""
}

// SetColumnVisibility shows or hides a column. Hiding an identity column and
// unknown keys are no-ops.
func (s *ColumnState) SetColumnVisibility(ctx context.Context, key string, visible bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	i := s.index(key)
	if i < 0 || s.settings[i].Identity || s.settings[i].Visible == visible {
		s.mu.Unlock()
		return
	}
	old := s.visibilityLocked()
	s.settings[i].Visible = visible
	next := s.visibilityLocked()
	snapshot := state.Snapshot{}
	encodeJSONField(snapshot, fieldColumns, next)
	s.mu.Unlock()
	s.p.commit(ctx, snapshot, old, next)
}

func (s *ColumnState) visibilityLocked() map[string]bool {
	out := make(map[string]bool, len(s.settings))
	for _, setting := range s.settings {
		out[setting.Key] = setting.Visible
	}
	return out
}
