package controls

const (
	// Persistence precedence. Higher numbers win.
	ScopePriorityFallback = 100
	ScopePriorityTable    = 200
	ScopePriorityFeature  = 300
)

const (
	ScopeFeature  = "feature"
	ScopeTable    = "table"
	ScopeFallback = "fallback"
)

// FeatureTableFallback assembles the three-layer persistence stack used for
// every feature: the per-feature override, the table-wide target and the
// ephemeral fallback.
func FeatureTableFallback(feature Feature, override, table Persistence) (*Stack[Persistence], error) {
	layers := []Layer[Persistence]{
		NewLayer(NewScope(ScopeFeature, ScopePriorityFeature,
			WithScopeLabel("Feature override"),
			WithScopeMetadata(map[string]any{"feature": string(feature)}),
		), override),
		NewLayer(NewScope(ScopeTable, ScopePriorityTable, WithScopeLabel("Table default")), table),
		NewLayer(NewScope(ScopeFallback, ScopePriorityFallback, WithScopeLabel("Ephemeral")), Persistence(PersistState)),
	}
	return NewStack(layers...)
}
