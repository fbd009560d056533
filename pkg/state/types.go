package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KeyDelimiter separates the table prefix from the feature or field name in
// persisted keys. Prefixes must not contain it.
const KeyDelimiter = ":"

var ErrInvalidPrefix = errors.New("state: key prefix must not contain \":\"")

var ErrFeatureRequired = errors.New("state: feature is required")

// Snapshot is the serialized form of one feature's state: field name to
// values. It is JSON compatible and maps one to one onto query parameters.
type Snapshot map[string][]string

// Get returns the first value stored for field.
func (s Snapshot) Get(field string) string {
	if len(s[field]) == 0 {
		return ""
	}
	return s[field][0]
}

// Set replaces the values stored for field. An empty value list removes it.
func (s Snapshot) Set(field string, values ...string) {
	if len(values) == 0 {
		delete(s, field)
		return
	}
	s[field] = append([]string(nil), values...)
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Ref identifies one persisted snapshot: a feature of a table, namespaced by
// an optional prefix. Keys lists the snapshot fields the feature owns so that
// per-field stores (query strings) can clear stale entries.
type Ref struct {
	Prefix  string
	Feature string
	Keys    []string
}

// Identifier returns the storage key used by whole-snapshot stores, e.g.
// "vulns:filter" or "filter" when no prefix is configured.
func (r Ref) Identifier() (string, error) {
	if r.Feature == "" {
		return "", ErrFeatureRequired
	}
	if err := ValidatePrefix(r.Prefix); err != nil {
		return "", err
	}
	return r.Key(r.Feature), nil
}

// Key namespaces a single field name with the prefix.
func (r Ref) Key(field string) string {
	if r.Prefix == "" {
		return field
	}
	return r.Prefix + KeyDelimiter + field
}

// ValidatePrefix reports ErrInvalidPrefix when prefix contains the delimiter.
func ValidatePrefix(prefix string) error {
	if strings.Contains(prefix, KeyDelimiter) {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, prefix)
	}
	return nil
}

// Meta is storage-owned metadata recorded alongside a snapshot.
type Meta struct {
	SnapshotID string    `json:"snapshot_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Store loads/saves one snapshot for a single Ref. Implementations are the
// persistence targets; custom ones are plugged in verbatim.
type Store interface {
	Load(ctx context.Context, ref Ref) (snapshot Snapshot, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot Snapshot, meta Meta) (Meta, error)
}

// StampMeta fills a snapshot id and timestamp when the caller left them empty.
func StampMeta(meta Meta) Meta {
	if meta.SnapshotID == "" {
		if id, err := uuid.NewV7(); err == nil {
			meta.SnapshotID = id.String()
		} else {
			meta.SnapshotID = uuid.NewString()
		}
	}
	if meta.UpdatedAt.IsZero() {
		meta.UpdatedAt = time.Now().UTC()
	}
	return meta
}
