package controls

import "context"

// localCache remembers the last local derivation. It is keyed on the identity
// of the item slice and the state version; mutating items in place is not
// detected.
type localCache[TItem any] struct {
	valid   bool
	first   *TItem
	length  int
	version uint64
	derived DerivedState[TItem]
}

func (lc *localCache[TItem]) hit(items []TItem, version uint64) bool {
	return lc.valid && lc.version == version && lc.length == len(items) && lc.first == firstElem(items)
}

func firstElem[TItem any](items []TItem) *TItem {
	if len(items) == 0 {
		return nil
	}
	return &items[0]
}

// LocalDerivedState runs the local calculator over items with the current
// state. The result is reused until items or the state change.
func (c *Controls[TItem]) LocalDerivedState(items []TItem) DerivedState[TItem] {
	version := c.Version()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache.hit(items, version) {
		return c.cache.derived
	}
	derived := GetLocalDerivedState(items, c.State(), c.LocalFeatures())
	c.cache = localCache[TItem]{
		valid:   true,
		first:   firstElem(items),
		length:  len(items),
		version: version,
		derived: derived,
	}
	return derived
}

// Reconcile applies the effects of a new derived state: the page number is
// clamped into the range of TotalItemCount, and an active item missing from
// the current page is cleared. Nothing happens while loading because a
// pending query reports a transient total. It reports whether any state
// changed.
func (c *Controls[TItem]) Reconcile(ctx context.Context, derived DerivedState[TItem], isLoading bool) bool {
	if isLoading {
		return false
	}
	changed := c.pagination.Reconcile(ctx, derived.TotalItemCount)

	if id := c.activeItem.ActiveItemID(); id != "" {
		if _, ok := c.ActiveItemIn(derived.CurrentPageItems); !ok {
			c.activeItem.ClearActiveItem(ctx)
			changed = true
		}
	}
	return changed
}

// Local derives state from items, reconciles it and composes the prop
// helpers. It is the usual entry point for client-side tables.
func (c *Controls[TItem]) Local(ctx context.Context, items []TItem, args RenderArgs[TItem]) *TableControls[TItem] {
	derived := c.LocalDerivedState(items)
	if c.Reconcile(ctx, derived, args.IsLoading) {
		derived = c.LocalDerivedState(items)
	}
	return c.Props(derived, args)
}

// NewLocal builds the table state and returns the composed controls for
// items in one call.
func NewLocal[TItem any](ctx context.Context, cfg Config[TItem], items []TItem, args RenderArgs[TItem], opts ...Option) (*TableControls[TItem], error) {
	c, err := New(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return c.Local(ctx, items, args), nil
}
