package controls

import (
	"context"
	"slices"
)

// RenderArgs are render-only inputs of the prop-helper composer.
type RenderArgs[TItem any] struct {
	Variant                 string
	HasActionsColumn        bool
	ForceNumRenderedColumns int
	IsLoading               bool
	// DataNameField labels rows, e.g. for test selectors.
	DataNameField func(TItem) string
}

// TableControls is the rendering contract bound by a presentation layer. It
// is recomputed from state on every render and holds no state of its own.
type TableControls[TItem any] struct {
	Controls *Controls[TItem]
	Derived  DerivedState[TItem]

	NumColumnsBeforeData int
	NumColumnsAfterData  int
	NumRenderedColumns   int

	args RenderArgs[TItem]
}

type TableProps struct {
	Name              string
	Variant           string
	IsLoading         bool
	IsExpandable      bool
	HasSelectableRows bool
}

type ThProps struct {
	ColumnKey   string
	Label       string
	Visible     bool
	Sortable    bool
	IsSortedBy  bool
	Direction   Direction
	ColumnIndex int
	// OnSort flips the direction of the active column, or sorts ascending.
	// Nil for columns that cannot be sorted.
	OnSort func(context.Context) error
}

type TrProps struct {
	ItemID     string
	DataName   string
	IsActive   bool
	IsSelected bool
	IsExpanded bool
	// OnClick toggles the active item. Nil without the active-item feature.
	OnClick func(context.Context)
}

type CompoundToggle[TItem any] struct {
	Item     TItem
	RowIndex int
}

type ExpandProps struct {
	RowIndex   int
	IsExpanded bool
	OnToggle   func(context.Context) error
}

type SelectProps struct {
	RowIndex   int
	IsSelected bool
	OnSelect   func(ctx context.Context, selected bool)
}

type TdProps struct {
	ColumnKey string
	DataLabel string
	Visible   bool
	ColSpan   int

	CompoundExpand *ExpandProps
	Expand         *ExpandProps
	Select         *SelectProps
}

type ExpandedContentProps struct {
	ItemID     string
	ColSpan    int
	IsExpanded bool
	ColumnKeys []string
	DataLabels []string
}

type PaginationProps struct {
	ItemCount       int
	Page            int
	PerPage         int
	LastPage        int
	PerPageOptions  []int
	IsDisabled      bool
	OnSetPage       func(ctx context.Context, page int)
	OnPerPageSelect func(ctx context.Context, perPage int)
}

type FilterCategoryProps struct {
	Key     string
	Title   string
	Type    FilterType
	Options []FilterOption
	Values  []string
}

type FilterToolbarProps struct {
	Categories       []FilterCategoryProps
	Values           FilterValues
	HasActiveFilters bool
	IsDisabled       bool
	OnChange         func(ctx context.Context, values FilterValues)
	OnCategoryChange func(ctx context.Context, key string, values ...string)
	OnClear          func(ctx context.Context)
}

// Props composes the rendering helpers for derived, which may come from
// LocalDerivedState or from a server query.
func (c *Controls[TItem]) Props(derived DerivedState[TItem], args RenderArgs[TItem]) *TableControls[TItem] {
	before := 0
	if c.cfg.Selection.Enabled {
		before++
	}
	if c.cfg.Expansion.Enabled && c.cfg.expansionVariant() == ExpansionSingle {
		before++
	}
	after := 0
	if args.HasActionsColumn {
		after++
	}
	rendered := args.ForceNumRenderedColumns
	if rendered <= 0 {
		rendered = len(c.columns.VisibleColumns()) + before + after
	}
	return &TableControls[TItem]{
		Controls:             c,
		Derived:              derived,
		NumColumnsBeforeData: before,
		NumColumnsAfterData:  after,
		NumRenderedColumns:   rendered,
		args:                 args,
	}
}

func (t *TableControls[TItem]) TableProps() TableProps {
	c := t.Controls
	return TableProps{
		Name:              c.cfg.TableName,
		Variant:           t.args.Variant,
		IsLoading:         t.args.IsLoading,
		IsExpandable:      c.cfg.Expansion.Enabled && c.cfg.expansionVariant() == ExpansionSingle,
		HasSelectableRows: c.cfg.Selection.Enabled,
	}
}

// ThProps describes the header cell of columnKey.
func (t *TableControls[TItem]) ThProps(columnKey string) ThProps {
	c := t.Controls
	props := ThProps{
		ColumnKey:   columnKey,
		Label:       c.columns.Label(columnKey),
		Visible:     c.columns.GetColumnVisibility(columnKey),
		ColumnIndex: slices.Index(c.cfg.columnKeys(), columnKey),
	}
	if !c.cfg.Sort.Enabled || !c.sort.IsSortable(columnKey) {
		return props
	}
	props.Sortable = true
	active := c.sort.ActiveSort()
	next := ActiveSort{ColumnKey: columnKey, Direction: SortAsc}
	if active != nil && active.ColumnKey == columnKey {
		props.IsSortedBy = true
		props.Direction = active.Direction
		next.Direction = active.Direction.Flip()
	}
	props.OnSort = func(ctx context.Context) error {
		return c.sort.SetActiveSort(ctx, next)
	}
	return props
}

// TrProps describes the row of item.
func (t *TableControls[TItem]) TrProps(item TItem) TrProps {
	c := t.Controls
	id := c.ItemID(item)
	props := TrProps{
		ItemID:     id,
		IsActive:   c.IsActive(item),
		IsSelected: c.selection.IsSelected(id),
		IsExpanded: c.expansion.IsItemExpanded(id),
	}
	if t.args.DataNameField != nil {
		props.DataName = t.args.DataNameField(item)
	}
	if c.cfg.ActiveItem.Enabled {
		props.OnClick = func(ctx context.Context) {
			if c.activeItem.ActiveItemID() == id {
				c.activeItem.ClearActiveItem(ctx)
				return
			}
			c.activeItem.SetActiveItemID(ctx, id)
		}
	}
	return props
}

// TdProps describes a data cell. toggle makes it a compound-expand toggle
// cell when the table uses compound expansion.
func (t *TableControls[TItem]) TdProps(columnKey string, toggle *CompoundToggle[TItem]) TdProps {
	c := t.Controls
	props := TdProps{
		ColumnKey: columnKey,
		DataLabel: c.columns.Label(columnKey),
		Visible:   c.columns.GetColumnVisibility(columnKey),
	}
	if toggle == nil || !c.cfg.Expansion.Enabled || c.expansion.Variant() != ExpansionCompound {
		return props
	}
	id := c.ItemID(toggle.Item)
	props.CompoundExpand = &ExpandProps{
		RowIndex:   toggle.RowIndex,
		IsExpanded: c.expansion.IsCellExpanded(id, columnKey),
		OnToggle: func(ctx context.Context) error {
			return c.expansion.Toggle(ctx, id, columnKey)
		},
	}
	return props
}

// SingleExpandTdProps describes the leading expand-toggle cell.
func (t *TableControls[TItem]) SingleExpandTdProps(item TItem, rowIndex int) TdProps {
	c := t.Controls
	id := c.ItemID(item)
	return TdProps{
		Expand: &ExpandProps{
			RowIndex:   rowIndex,
			IsExpanded: c.expansion.IsItemExpanded(id),
			OnToggle: func(ctx context.Context) error {
				return c.expansion.Toggle(ctx, id, "")
			},
		},
	}
}

// ExpandedContentTdProps describes the full-width cell rendered below an
// expanded row.
func (t *TableControls[TItem]) ExpandedContentTdProps(item TItem) ExpandedContentProps {
	c := t.Controls
	id := c.ItemID(item)
	props := ExpandedContentProps{
		ItemID:     id,
		ColSpan:    t.NumRenderedColumns,
		IsExpanded: c.expansion.IsItemExpanded(id),
	}
	if c.expansion.Variant() == ExpansionCompound {
		props.ColumnKeys = c.expansion.ExpandedColumns(id)
		for _, key := range props.ColumnKeys {
			props.DataLabels = append(props.DataLabels, c.columns.Label(key))
		}
	}
	return props
}

// SelectTdProps describes the leading selection checkbox cell.
func (t *TableControls[TItem]) SelectTdProps(item TItem, rowIndex int) TdProps {
	c := t.Controls
	id := c.ItemID(item)
	return TdProps{
		Select: &SelectProps{
			RowIndex:   rowIndex,
			IsSelected: c.selection.IsSelected(id),
			OnSelect: func(ctx context.Context, selected bool) {
				c.selection.Select(ctx, selected, id)
			},
		},
	}
}

func (t *TableControls[TItem]) PaginationProps() PaginationProps {
	c := t.Controls
	return PaginationProps{
		ItemCount:      t.Derived.TotalItemCount,
		Page:           c.pagination.PageNumber(),
		PerPage:        c.pagination.ItemsPerPage(),
		LastPage:       c.pagination.LastPage(t.Derived.TotalItemCount),
		PerPageOptions: c.pagination.PerPageOptions(),
		IsDisabled:     t.args.IsLoading,
		OnSetPage: func(ctx context.Context, page int) {
			c.pagination.SetPageNumber(ctx, page)
		},
		OnPerPageSelect: func(ctx context.Context, perPage int) {
			c.pagination.SetItemsPerPage(ctx, perPage)
		},
	}
}

func (t *TableControls[TItem]) FilterToolbarProps() FilterToolbarProps {
	c := t.Controls
	values := c.filter.Values()
	categories := make([]FilterCategoryProps, 0, len(c.cfg.Filter.Categories))
	for _, category := range c.cfg.Filter.Categories {
		kind := category.Type
		if kind == "" {
			kind = FilterSelect
		}
		categories = append(categories, FilterCategoryProps{
			Key:     category.Key,
			Title:   category.Title,
			Type:    kind,
			Options: slices.Clone(category.Options),
			Values:  values[category.Key],
		})
	}
	return FilterToolbarProps{
		Categories:       categories,
		Values:           values,
		HasActiveFilters: len(values) > 0,
		IsDisabled:       t.args.IsLoading,
		OnChange: func(ctx context.Context, next FilterValues) {
			c.filter.SetFilterValues(ctx, next)
		},
		OnCategoryChange: func(ctx context.Context, key string, selected ...string) {
			c.filter.SetCategoryValues(ctx, key, selected...)
		},
		OnClear: func(ctx context.Context) {
			c.filter.ClearFilters(ctx)
		},
	}
}

// ColumnVisibility reports whether columnKey is rendered.
func (t *TableControls[TItem]) ColumnVisibility(columnKey string) bool {
	return t.Controls.columns.GetColumnVisibility(columnKey)
}
