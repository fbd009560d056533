package controls

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-table-controls/internal/hydrate"
	"github.com/goliatone/go-table-controls/pkg/state"
)

// Persisted snapshot fields.
const (
	fieldFilters       = "filters"
	fieldSortColumn    = "sortColumn"
	fieldSortDirection = "sortDirection"
	fieldPageNumber    = "pageNumber"
	fieldItemsPerPage  = "itemsPerPage"
	fieldExpandedItem  = "expandedItem"
	fieldExpandedCells = "expandedCells"
	fieldActiveItem    = "activeItem"
	fieldColumns       = "columns"
	fieldSelectedItems = "selectedItems"
)

// featureFields lists the snapshot fields owned by each feature so per-field
// stores can clear stale entries.
var featureFields = map[Feature][]string{
	FeatureFilter:     {fieldFilters},
	FeatureSort:       {fieldSortColumn, fieldSortDirection},
	FeaturePagination: {fieldPageNumber, fieldItemsPerPage},
	FeatureExpansion:  {fieldExpandedItem, fieldExpandedCells},
	FeatureActiveItem: {fieldActiveItem},
	FeatureColumns:    {fieldColumns},
	FeatureSelection:  {fieldSelectedItems},
}

// decodeJSONField decodes a JSON object field through the hydrate decoder.
// A missing field reports ok=false without error; a malformed one is logged,
// emitted as a reset and reported as ok=false.
func decodeJSONField[T any](ctx context.Context, p *persister, snapshot state.Snapshot, field string, opts ...hydrate.DecoderOption[T]) (T, bool) {
	var zero T
	raw := snapshot.Get(field)
	if raw == "" {
		return zero, false
	}
	value, err := hydrate.NewDecoder(opts...).DecodeJSON(hydrate.Context{
		Table:   p.table,
		Feature: string(p.feature),
		Field:   field,
	}, raw)
	if err != nil {
		p.reset(ctx, err)
		return zero, false
	}
	return value, true
}

func encodeJSONField(snapshot state.Snapshot, field string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	snapshot.Set(field, string(raw))
}
