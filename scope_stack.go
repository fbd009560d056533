package controls

import (
	"errors"
	"fmt"
	"sort"
)

// Scope models a named precedence bucket (feature, table, fallback). Higher
// priority values represent stronger layers.
type Scope struct {
	Name     string
	Label    string
	Priority int
	Metadata map[string]any
}

// ScopeOption configures metadata on Scope creation.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	label    string
	metadata map[string]any
}

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.label = label
	}
}

// WithScopeMetadata attaches arbitrary metadata to the scope. The map is copied
// so the resulting Scope remains immutable even if the caller mutates their
// reference.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(cfg *scopeConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = copyMetadata(metadata)
	}
}

// NewScope builds a Scope with the supplied configuration. Validation is
// deferred to Stack construction so callers can assemble scopes before deciding
// precedence.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return Scope{
		Name:     name,
		Label:    cfg.label,
		Priority: priority,
		Metadata: copyMetadata(cfg.metadata),
	}
}

// clone returns a copy of s, ensuring Metadata is detached from the original.
func (s Scope) clone() Scope {
	return Scope{
		Name:     s.Name,
		Label:    s.Label,
		Priority: s.Priority,
		Metadata: copyMetadata(s.Metadata),
	}
}

func (s Scope) isZero() bool {
	return s.Name == "" && s.Label == "" && s.Priority == 0 && len(s.Metadata) == 0
}

// Layer pairs a scope definition with the value configured at that scope.
// Snapshot is copied by value; it is never deep cloned because persistence
// stores carry unexported state.
type Layer[T any] struct {
	Scope      Scope
	Snapshot   T
	SnapshotID string
}

// LayerOption configures optional metadata for a layer.
type LayerOption[T any] func(*Layer[T])

// WithSnapshotID sets the snapshot identifier used for auditing.
func WithSnapshotID[T any](id string) LayerOption[T] {
	return func(layer *Layer[T]) {
		layer.SnapshotID = id
	}
}

// NewLayer constructs a Layer with a detached copy of the scope metadata.
func NewLayer[T any](scope Scope, snapshot T, opts ...LayerOption[T]) Layer[T] {
	layer := Layer[T]{
		Scope:    scope.clone(),
		Snapshot: snapshot,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&layer)
	}
	return layer
}

var (
	// ErrScopeNameRequired indicates a missing scope name.
	ErrScopeNameRequired = errors.New("scope: name must be provided")
	// ErrDuplicateScopeName indicates Stack construction received multiple
	// layers with the same scope name.
	ErrDuplicateScopeName = errors.New("scope: names must be unique")
	// ErrPriorityOrder indicates Stack construction detected duplicate or
	// unsorted priorities.
	ErrPriorityOrder = errors.New("scope: priorities must be strictly ordered")
)

// Stack is an immutable precedence configuration ordered from strongest to
// weakest scope.
type Stack[T any] struct {
	layers []Layer[T]
}

// NewStack validates and sorts the supplied layers so that the strongest scope
// (highest priority) is first.
func NewStack[T any](layers ...Layer[T]) (*Stack[T], error) {
	if len(layers) == 0 {
		return &Stack[T]{}, nil
	}

	seenNames := make(map[string]struct{}, len(layers))
	copied := make([]Layer[T], len(layers))
	for i, layer := range layers {
		layer := cloneLayer(layer)
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seenNames[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seenNames[layer.Scope.Name] = struct{}{}
		copied[i] = layer
	}

	sort.Slice(copied, func(i, j int) bool {
		if copied[i].Scope.Priority == copied[j].Scope.Priority {
			return copied[i].Scope.Name < copied[j].Scope.Name
		}
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority <= copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}

	return &Stack[T]{layers: copied}, nil
}

// Layers returns a copy of the layers, strongest first.
func (s *Stack[T]) Layers() []Layer[T] {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer[T], len(s.layers))
	for i := range s.layers {
		out[i] = cloneLayer(s.layers[i])
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Resolve walks the layers from strongest to weakest and returns the first
// one for which present reports true. The trace records every layer visited
// so callers can explain why a value won.
func (s *Stack[T]) Resolve(path string, present func(T) bool) (Layer[T], Trace, bool) {
	trace := Trace{Path: path}
	if s == nil || len(s.layers) == 0 {
		return Layer[T]{}, trace, false
	}
	var (
		winner Layer[T]
		found  bool
	)
	for _, layer := range s.layers {
		ok := present == nil || present(layer.Snapshot)
		entry := Provenance{
			Scope:      layer.Scope.clone(),
			SnapshotID: layer.SnapshotID,
			Path:       path,
			Found:      ok,
		}
		if ok {
			entry.Value = describeValue(layer.Snapshot)
		}
		trace.Layers = append(trace.Layers, entry)
		if ok && !found {
			winner = cloneLayer(layer)
			found = true
		}
	}
	return winner, trace, found
}

func describeValue(value any) any {
	if d, ok := value.(interface{ describe() string }); ok {
		return d.describe()
	}
	return value
}

func cloneLayer[T any](layer Layer[T]) Layer[T] {
	return Layer[T]{
		Scope:      layer.Scope.clone(),
		Snapshot:   layer.Snapshot,
		SnapshotID: layer.SnapshotID,
	}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
