package controls

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-table-controls/pkg/state"
)

// Controls aggregates the enabled feature states of one table instance.
// Feature accessors return nil for disabled features; every state method is
// safe to call on nil.
type Controls[TItem any] struct {
	cfg    Config[TItem]
	opts   optionsConfig
	prefix string

	filter     *FilterState
	sort       *SortState
	pagination *PaginationState
	expansion  *ExpansionState
	activeItem *ActiveItemState
	columns    *ColumnState
	selection  *SelectionState

	matchers    map[string]ItemMatcher[TItem]
	comparators map[string]func(a, b TItem) int
	traces      map[Feature]Trace
	targets     map[Feature]string

	version atomic.Uint64

	mu    sync.Mutex
	cache localCache[TItem]
}

// New validates cfg, resolves each feature's persistence target and hydrates
// the feature states from it. Configuration problems are returned as
// *ConfigError.
func New[TItem any](ctx context.Context, cfg Config[TItem], opts ...Option) (*Controls[TItem], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	options := applyOptions(opts)
	if len(options.errs) > 0 {
		return nil, configError(cfg.TableName, "", "options", fmt.Errorf("%w: %w", ErrInvalidOption, errors.Join(options.errs...)))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Controls[TItem]{
		cfg:     cfg,
		opts:    options,
		prefix:  cfg.KeyPrefix(),
		traces:  map[Feature]Trace{},
		targets: map[Feature]string{},
	}
	if err := c.buildMatchers(); err != nil {
		return nil, err
	}
	c.buildComparators()

	ephemeral := state.NewMemoryStore()
	emitter := newEmitter(options)
	persisterFor := func(feature Feature) (*persister, error) {
		resolved, err := resolvePersistence(cfg, options, ephemeral, feature)
		if err != nil {
			return nil, err
		}
		c.traces[feature] = resolved.trace
		c.targets[feature] = resolved.target
		return &persister{
			table:   cfg.TableName,
			feature: feature,
			ref:     state.Ref{Prefix: c.prefix, Feature: string(feature), Keys: featureFields[feature]},
			store:   resolved.store,
			target:  resolved.target,
			logger:  options.stateLoggerOrNoop(),
			emitter: emitter,
			changed: c.touch,
		}, nil
	}

	for _, feature := range Features() {
		if !cfg.enabled(feature) {
			continue
		}
		p, err := persisterFor(feature)
		if err != nil {
			return nil, err
		}
		switch feature {
		case FeatureFilter:
			categories := make([]string, len(cfg.Filter.Categories))
			for i, category := range cfg.Filter.Categories {
				categories[i] = category.Key
			}
			c.filter = newFilterState(ctx, p, categories, cfg.Filter.Initial)
		case FeatureSort:
			c.sort = newSortState(ctx, p, cfg.Sort.SortableColumns, cfg.Sort.Initial)
		case FeaturePagination:
			c.pagination = newPaginationState(ctx, p, cfg.Pagination)
		case FeatureExpansion:
			c.expansion = newExpansionState(ctx, p, cfg.expansionVariant(), cfg.columnKeys())
		case FeatureActiveItem:
			c.activeItem = newActiveItemState(ctx, p)
		case FeatureColumns:
			c.columns = newColumnState(ctx, p, cfg.Columns, cfg.InitialColumns)
		case FeatureSelection:
			c.selection = newSelectionState(ctx, p)
		}
	}
	return c, nil
}

// buildMatchers compiles filter expressions up front so invalid ones fail New.
func (c *Controls[TItem]) buildMatchers() error {
	c.matchers = map[string]ItemMatcher[TItem]{}
	if !c.cfg.Filter.Enabled {
		return nil
	}
	var evaluator Evaluator
	for _, category := range c.cfg.Filter.Categories {
		if category.Match == nil && category.Expression == "" {
			if !category.hasExtractor() {
				if c.cfg.ItemFields == nil {
					continue
				}
				category.GetItemValues = fieldValues(c.cfg.ItemFields, category.Key)
			}
			c.matchers[category.Key] = DefaultMatcher(category)
			continue
		}
		if category.Match != nil {
			c.matchers[category.Key] = category.Match
			continue
		}
		if evaluator == nil {
			resolved, err := resolveEvaluator(c.opts)
			if err != nil {
				return configError(c.cfg.TableName, FeatureFilter, category.Key, err)
			}
			evaluator = resolved
		}
		rule, err := evaluator.Compile(category.Expression)
		if err != nil {
			return configError(c.cfg.TableName, FeatureFilter, category.Key, fmt.Errorf("%w: %w", ErrInvalidExpression, err))
		}
		c.matchers[category.Key] = expressionMatcher(category, rule, evaluatorEngineName(evaluator),
			c.cfg.ItemFields, c.cfg.GetItemID, c.opts.args, c.opts.evaluatorLogger())
	}
	return nil
}

func (c *Controls[TItem]) buildComparators() {
	c.comparators = map[string]func(a, b TItem) int{}
	for key, value := range c.cfg.Sort.SortValues {
		if value != nil {
			c.comparators[key] = ComparatorFromValue(value)
		}
	}
	for key, compare := range c.cfg.Sort.Comparators {
		if compare != nil {
			c.comparators[key] = compare
		}
	}
}

func (c *Controls[TItem]) touch() {
	c.version.Add(1)
}

// Version increases on every state mutation.
func (c *Controls[TItem]) Version() uint64 {
	return c.version.Load()
}

// Config returns the configuration the table was built with.
func (c *Controls[TItem]) Config() Config[TItem] {
	return c.cfg
}

// KeyPrefix returns the namespace of persisted keys.
func (c *Controls[TItem]) KeyPrefix() string {
	return c.prefix
}

// Enabled reports whether feature is active on this table.
func (c *Controls[TItem]) Enabled(feature Feature) bool {
	return c.cfg.enabled(feature)
}

func (c *Controls[TItem]) Filter() *FilterState         { return c.filter }
func (c *Controls[TItem]) Sort() *SortState             { return c.sort }
func (c *Controls[TItem]) Pagination() *PaginationState { return c.pagination }
func (c *Controls[TItem]) Expansion() *ExpansionState   { return c.expansion }
func (c *Controls[TItem]) ActiveItem() *ActiveItemState { return c.activeItem }
func (c *Controls[TItem]) Columns() *ColumnState        { return c.columns }
func (c *Controls[TItem]) Selection() *SelectionState   { return c.selection }

// PersistenceTrace explains which scope chose the feature's target.
func (c *Controls[TItem]) PersistenceTrace(feature Feature) (Trace, bool) {
	trace, ok := c.traces[feature]
	return trace, ok
}

// PersistenceTarget names the resolved target of feature, e.g. "urlParams".
func (c *Controls[TItem]) PersistenceTarget(feature Feature) string {
	return c.targets[feature]
}

// State returns the current source-of-truth state used by local derivation.
func (c *Controls[TItem]) State() State {
	return State{
		FilterValues: c.filter.Values(),
		ActiveSort:   c.sort.ActiveSort(),
		PageNumber:   c.pagination.PageNumber(),
		ItemsPerPage: c.pagination.ItemsPerPage(),
	}
}

// LocalFeatures returns the matchers and comparators of this table.
func (c *Controls[TItem]) LocalFeatures() LocalFeatures[TItem] {
	return LocalFeatures[TItem]{
		FilterEnabled:     c.cfg.Filter.Enabled,
		Matchers:          maps.Clone(c.matchers),
		SortEnabled:       c.cfg.Sort.Enabled,
		Comparators:       maps.Clone(c.comparators),
		PaginationEnabled: c.cfg.Pagination.Enabled,
	}
}

// ItemID returns the id of item, or "" without GetItemID.
func (c *Controls[TItem]) ItemID(item TItem) string {
	if c.cfg.GetItemID == nil {
		return ""
	}
	return c.cfg.GetItemID(item)
}

// SetActiveItem activates item by id.
func (c *Controls[TItem]) SetActiveItem(ctx context.Context, item TItem) {
	c.activeItem.SetActiveItemID(ctx, c.ItemID(item))
}

// IsActive compares item with the active item by id.
func (c *Controls[TItem]) IsActive(item TItem) bool {
	id := c.activeItem.ActiveItemID()
	return id != "" && id == c.ItemID(item)
}

// ActiveItemIn returns the active item when it is part of items.
func (c *Controls[TItem]) ActiveItemIn(items []TItem) (TItem, bool) {
	var zero TItem
	id := c.activeItem.ActiveItemID()
	if id == "" {
		return zero, false
	}
	for _, item := range items {
		if c.ItemID(item) == id {
			return item, true
		}
	}
	return zero, false
}

// ToggleExpansion toggles item, or the (item, columnKey) cell in compound mode.
func (c *Controls[TItem]) ToggleExpansion(ctx context.Context, item TItem, columnKey string) error {
	return c.expansion.Toggle(ctx, c.ItemID(item), columnKey)
}

// IsExpanded reports whether item is expanded. With a columnKey it checks a
// single compound cell.
func (c *Controls[TItem]) IsExpanded(item TItem, columnKey string) bool {
	if columnKey == "" {
		return c.expansion.IsItemExpanded(c.ItemID(item))
	}
	return c.expansion.IsCellExpanded(c.ItemID(item), columnKey)
}

// SelectItems adds or removes items from the selection.
func (c *Controls[TItem]) SelectItems(ctx context.Context, selected bool, items ...TItem) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, c.ItemID(item))
	}
	c.selection.Select(ctx, selected, ids...)
}

// SelectedItems returns the members of items that are selected.
func (c *Controls[TItem]) SelectedItems(items []TItem) []TItem {
	out := make([]TItem, 0)
	for _, item := range items {
		if c.selection.IsSelected(c.ItemID(item)) {
			out = append(out, item)
		}
	}
	return out
}

// AreAllSelected reports whether every item is selected. It is false for an
// empty list.
func (c *Controls[TItem]) AreAllSelected(items []TItem) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !c.selection.IsSelected(c.ItemID(item)) {
			return false
		}
	}
	return true
}
