package controls

import (
	"errors"
	"fmt"
	"slices"

	"github.com/goliatone/go-table-controls/pkg/state"
)

// Validate reports the first configuration error as a *ConfigError.
func (c Config[TItem]) Validate() error {
	table := c.TableName

	if err := state.ValidatePrefix(c.KeyPrefix()); err != nil {
		return configError(table, "", "persistenceKeyPrefix", fmt.Errorf("%w: %q", ErrInvalidKeyPrefix, c.KeyPrefix()))
	}

	keys := make([]string, 0, len(c.Columns))
	for _, column := range c.Columns {
		if column.Key == "" {
			return configError(table, FeatureColumns, "columns", fmt.Errorf("%w: empty key", ErrUnknownColumn))
		}
		if slices.Contains(keys, column.Key) {
			return configError(table, FeatureColumns, "columns", fmt.Errorf("%w: %q", ErrDuplicateColumn, column.Key))
		}
		keys = append(keys, column.Key)
	}
	isColumn := func(key string) bool { return slices.Contains(keys, key) }

	for key := range c.InitialColumns {
		if !isColumn(key) {
			return configError(table, FeatureColumns, "initialColumns", fmt.Errorf("%w: %q", ErrUnknownColumn, key))
		}
	}

	if c.Filter.Enabled {
		if err := c.validateFilter(); err != nil {
			return err
		}
	}

	if c.Sort.Enabled {
		for _, key := range c.Sort.SortableColumns {
			if !isColumn(key) {
				return configError(table, FeatureSort, "sortableColumns", fmt.Errorf("%w: %q", ErrUnknownColumn, key))
			}
		}
		if initial := c.Sort.Initial; initial != nil {
			if !slices.Contains(c.Sort.SortableColumns, initial.ColumnKey) {
				return configError(table, FeatureSort, "initial", fmt.Errorf("%w: %q", ErrColumnNotSortable, initial.ColumnKey))
			}
			if !initial.Direction.Valid() {
				return configError(table, FeatureSort, "initial", fmt.Errorf("%w: %q", ErrInvalidDirection, initial.Direction))
			}
		}
		for key := range c.Sort.Comparators {
			if !isColumn(key) {
				return configError(table, FeatureSort, "comparators", fmt.Errorf("%w: %q", ErrUnknownColumn, key))
			}
		}
		for key := range c.Sort.SortValues {
			if !isColumn(key) {
				return configError(table, FeatureSort, "sortValues", fmt.Errorf("%w: %q", ErrUnknownColumn, key))
			}
		}
	}

	if c.Expansion.Enabled {
		switch c.Expansion.Variant {
		case "", ExpansionSingle, ExpansionCompound:
		default:
			return configError(table, FeatureExpansion, "variant", fmt.Errorf("%w: %q", ErrInvalidVariant, c.Expansion.Variant))
		}
	}

	for _, feature := range []Feature{FeatureExpansion, FeatureActiveItem, FeatureSelection} {
		if c.enabled(feature) && c.GetItemID == nil {
			return configError(table, feature, "getItemID", ErrMissingItemID)
		}
	}

	for feature, persistence := range c.FeaturePersistTo {
		if !feature.Valid() {
			return configError(table, feature, "featurePersistTo", fmt.Errorf("%w: %q", ErrUnknownFeature, feature))
		}
		if err := validatePersistence(persistence); err != nil {
			return configError(table, feature, "featurePersistTo", err)
		}
	}
	if err := validatePersistence(c.PersistTo); err != nil {
		return configError(table, "", "persistTo", err)
	}
	return nil
}

func (c Config[TItem]) validateFilter() error {
	seen := make(map[string]bool, len(c.Filter.Categories))
	for _, category := range c.Filter.Categories {
		if category.Key == "" || seen[category.Key] {
			return configError(c.TableName, FeatureFilter, "categories", fmt.Errorf("%w: %q", ErrDuplicateCategory, category.Key))
		}
		seen[category.Key] = true
		switch category.Type {
		case "", FilterSelect, FilterMultiselect, FilterSearch:
		default:
			return configError(c.TableName, FeatureFilter, category.Key, fmt.Errorf("%w: %q", ErrInvalidFilterType, category.Type))
		}
		if category.Expression != "" && category.Match == nil && c.ItemFields == nil {
			return configError(c.TableName, FeatureFilter, category.Key, ErrMissingItemFields)
		}
	}
	return nil
}

func validatePersistence(p Persistence) error {
	switch v := p.(type) {
	case nil:
		return nil
	case PersistTarget:
		if v != "" && !v.Valid() {
			return fmt.Errorf("%w: persist target %q", ErrInvalidOption, string(v))
		}
	case CustomPersistence:
		if v.Store == nil {
			return fmt.Errorf("%w: custom store is nil", ErrPersistenceUnavailable)
		}
	default:
		return errors.New("controls: unsupported persistence value")
	}
	return nil
}

func (c Config[TItem]) enabled(feature Feature) bool {
	switch feature {
	case FeatureFilter:
		return c.Filter.Enabled
	case FeatureSort:
		return c.Sort.Enabled
	case FeaturePagination:
		return c.Pagination.Enabled
	case FeatureExpansion:
		return c.Expansion.Enabled
	case FeatureActiveItem:
		return c.ActiveItem.Enabled
	case FeatureSelection:
		return c.Selection.Enabled
	case FeatureColumns:
		return true
	}
	return false
}

func (c Config[TItem]) columnKeys() []string {
	keys := make([]string, len(c.Columns))
	for i, column := range c.Columns {
		keys[i] = column.Key
	}
	return keys
}

func (c Config[TItem]) expansionVariant() ExpansionVariant {
	if c.Expansion.Variant == "" {
		return ExpansionSingle
	}
	return c.Expansion.Variant
}
