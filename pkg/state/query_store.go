package state

import (
	"context"
	"net/url"
	"sync"
)

// QueryStore persists snapshots as URL query parameters. Each snapshot field
// becomes one entry named Ref.Key(field); the resulting query survives reloads
// and bookmarks of the page that carries it.
type QueryStore struct {
	mu     sync.RWMutex
	values url.Values
}

// NewQueryStore wraps a copy of values. A nil map starts an empty query.
func NewQueryStore(values url.Values) *QueryStore {
	return &QueryStore{values: cloneValues(values)}
}

// ParseQueryStore builds a store from a raw query string such as the one
// carried by a request URL.
func ParseQueryStore(rawQuery string) (*QueryStore, error) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, err
	}
	return &QueryStore{values: values}, nil
}

func (s *QueryStore) Load(_ context.Context, ref Ref) (Snapshot, Meta, bool, error) {
	if err := ValidatePrefix(ref.Prefix); err != nil {
		return nil, Meta{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := Snapshot{}
	for _, field := range ref.Keys {
		if values, ok := s.values[ref.Key(field)]; ok && len(values) > 0 {
			snapshot[field] = append([]string(nil), values...)
		}
	}
	if len(snapshot) == 0 {
		return nil, Meta{}, false, nil
	}
	return snapshot, Meta{}, true, nil
}

func (s *QueryStore) Save(_ context.Context, ref Ref, snapshot Snapshot, meta Meta) (Meta, error) {
	if err := ValidatePrefix(ref.Prefix); err != nil {
		return Meta{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.values == nil {
		s.values = url.Values{}
	}
	for _, field := range ref.Keys {
		s.values.Del(ref.Key(field))
	}
	for field, values := range snapshot {
		if len(values) == 0 {
			continue
		}
		s.values[ref.Key(field)] = append([]string(nil), values...)
	}
	return StampMeta(meta), nil
}

// Values returns a copy of the current query parameters.
func (s *QueryStore) Values() url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneValues(s.values)
}

// Encode renders the query string, sorted by key.
func (s *QueryStore) Encode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Encode()
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	return out
}
