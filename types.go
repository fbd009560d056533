package controls

import (
	"maps"
	"slices"
	"time"

	"github.com/goliatone/go-table-controls/pkg/activity"
	"github.com/goliatone/go-table-controls/pkg/state"
)

// Feature identifies an independently toggleable table capability.
type Feature string

const (
	FeatureFilter     Feature = "filter"
	FeatureSort       Feature = "sort"
	FeaturePagination Feature = "pagination"
	FeatureSelection  Feature = "selection"
	FeatureExpansion  Feature = "expansion"
	FeatureActiveItem Feature = "activeItem"
	FeatureColumns    Feature = "columns"
)

// Features lists every feature in a stable order.
func Features() []Feature {
	return []Feature{
		FeatureFilter,
		FeatureSort,
		FeaturePagination,
		FeatureSelection,
		FeatureExpansion,
		FeatureActiveItem,
		FeatureColumns,
	}
}

// Valid reports whether f names a known feature.
func (f Feature) Valid() bool {
	return slices.Contains(Features(), f)
}

// Direction is a sort direction.
type Direction string

const (
	SortAsc  Direction = "asc"
	SortDesc Direction = "desc"
)

func (d Direction) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// ActiveSort is the current sort column and direction.
type ActiveSort struct {
	ColumnKey string    `json:"columnKey"`
	Direction Direction `json:"direction"`
}

// FilterValues maps a filter category key to its selected values. A missing
// key means the category does not constrain the result.
type FilterValues map[string][]string

// Clone returns a deep copy without empty selections.
func (f FilterValues) Clone() FilterValues {
	out := make(FilterValues, len(f))
	for key, values := range f {
		if len(values) == 0 {
			continue
		}
		out[key] = slices.Clone(values)
	}
	return out
}

// Keys returns the category keys sorted alphabetically.
func (f FilterValues) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// FilterType selects the toolbar control and default matcher of a category.
type FilterType string

const (
	FilterSelect      FilterType = "select"
	FilterMultiselect FilterType = "multiselect"
	FilterSearch      FilterType = "search"
)

// SearchCategoryKey is reserved for free-text search.
const SearchCategoryKey = "search"

// FilterOption is one selectable value of a select category.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// FilterCategory describes one filterable attribute. Matching uses Match when
// set, then Expression, then the type default: exact equality for select
// types and case-insensitive substring or glob matching for search. Without
// an extractor the default reads the item field named Key from
// Config.ItemFields; a category with neither does not constrain the result.
type FilterCategory[TItem any] struct {
	Key     string
	Title   string
	Type    FilterType
	Options []FilterOption

	GetItemValue  func(TItem) string
	GetItemValues func(TItem) []string
	Match         func(item TItem, value string) bool

	// Expression is evaluated per item and selected value. It sees the item
	// fields (Config.ItemFields) as "item" and at top level, the selected
	// value as "value" and the category key as "category".
	Expression string

	// ServerField names the API field used in request parameters. It
	// defaults to Key.
	ServerField string
}

func (c FilterCategory[TItem]) isSearch() bool {
	return c.Type == FilterSearch || c.Key == SearchCategoryKey
}

func (c FilterCategory[TItem]) hasExtractor() bool {
	return c.GetItemValues != nil || c.GetItemValue != nil
}

func (c FilterCategory[TItem]) itemValues(item TItem) []string {
	if c.GetItemValues != nil {
		return c.GetItemValues(item)
	}
	if c.GetItemValue != nil {
		return []string{c.GetItemValue(item)}
	}
	return nil
}

// Column is one displayable column.
type Column struct {
	Key   string
	Label string
}

// ColumnOverride adjusts the default visibility of a column. Nil fields keep
// the default: visible and not identity.
type ColumnOverride struct {
	Visible  *bool
	Identity *bool
}

// ColumnSetting is the resolved state of one column.
type ColumnSetting struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Visible  bool   `json:"visible"`
	Identity bool   `json:"identity"`
}

// ExpansionVariant is fixed per table.
type ExpansionVariant string

const (
	ExpansionSingle   ExpansionVariant = "single"
	ExpansionCompound ExpansionVariant = "compound"
)

type FilterConfig[TItem any] struct {
	Enabled    bool
	Categories []FilterCategory[TItem]
	Initial    FilterValues
}

type SortConfig[TItem any] struct {
	Enabled         bool
	SortableColumns []string
	Initial         *ActiveSort

	// Comparators take precedence over SortValues for the same column.
	Comparators map[string]func(a, b TItem) int
	SortValues  map[string]func(TItem) any

	// ServerFields maps column keys to API sort fields.
	ServerFields map[string]string
}

type PaginationConfig struct {
	Enabled             bool
	InitialItemsPerPage int
	PerPageOptions      []int
}

type ExpansionConfig struct {
	Enabled bool
	Variant ExpansionVariant
}

type ActiveItemConfig struct {
	Enabled bool
}

type SelectionConfig struct {
	Enabled bool
}

// Config is the static configuration of one table instance. Columns are
// always tracked; every other feature is opt-in.
type Config[TItem any] struct {
	TableName string

	// PersistenceKeyPrefix namespaces persisted keys. It defaults to
	// TableName and must not contain state.KeyDelimiter.
	PersistenceKeyPrefix string

	Columns        []Column
	InitialColumns map[string]ColumnOverride

	GetItemID  func(TItem) string
	ItemFields func(TItem) map[string]any

	Filter     FilterConfig[TItem]
	Sort       SortConfig[TItem]
	Pagination PaginationConfig
	Expansion  ExpansionConfig
	ActiveItem ActiveItemConfig
	Selection  SelectionConfig

	PersistTo        Persistence
	FeaturePersistTo map[Feature]Persistence
}

// KeyPrefix returns the namespace applied to persisted keys.
func (c Config[TItem]) KeyPrefix() string {
	if c.PersistenceKeyPrefix != "" {
		return c.PersistenceKeyPrefix
	}
	return c.TableName
}

// State is the source-of-truth input of the local derived-state calculator.
type State struct {
	FilterValues FilterValues `json:"filterValues,omitempty"`
	ActiveSort   *ActiveSort  `json:"activeSort,omitempty"`
	PageNumber   int          `json:"pageNumber"`
	ItemsPerPage int          `json:"itemsPerPage"`
}

// DerivedState is computed locally or supplied from a server query.
// FilteredItems is only populated by the local calculator.
type DerivedState[TItem any] struct {
	FilteredItems    []TItem
	CurrentPageItems []TItem
	TotalItemCount   int
}

// RuleContext carries the inputs of one filter expression evaluation.
type RuleContext struct {
	Item     map[string]any
	Value    string
	Category string
	Args     map[string]any
	Now      *time.Time
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Item == nil {
		ctx.Item = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaults()
	return *ctx.Now
}

func (ctx RuleContext) label() string {
	if ctx.Category != "" {
		return ctx.Category
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

type Option func(*optionsConfig)

type optionsConfig struct {
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	logger          EvaluatorLogger
	stateLogger     StateLogger
	activityHooks   activity.Hooks
	activityChannel string
	urlParams       state.Store
	localStorage    state.Store
	sessionStorage  state.Store
	args            map[string]any
	errs            []error
}

func applyOptions(opts []Option) optionsConfig {
	cfg := optionsConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg optionsConfig) evaluatorLogger() EvaluatorLogger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopEvaluatorLogger{}
}

func (cfg optionsConfig) stateLoggerOrNoop() StateLogger {
	if cfg.stateLogger != nil {
		return cfg.stateLogger
	}
	return noopStateLogger{}
}

// WithExpressionArgs exposes args to every filter expression as "args".
func WithExpressionArgs(args map[string]any) Option {
	return func(cfg *optionsConfig) {
		cfg.args = maps.Clone(args)
	}
}
