// Package sqlitestore implements the local-storage persistence target on a
// SQLite file. Snapshots are stored as JSON under Ref.Identifier() and
// survive process restarts until cleared.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-table-controls/pkg/state"
)

// DefaultFileName is used by OpenDir.
const DefaultFileName = "table-state.db"

const createSnapshots = `CREATE TABLE IF NOT EXISTS table_snapshots (
    state_key TEXT PRIMARY KEY,
    snapshot TEXT NOT NULL,
    snapshot_id TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

var ErrClosed = errors.New("sqlitestore: store is closed")

// Store is a state.Store backed by SQLite.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %q: %w", path, err)
	}
	if _, err := db.Exec(createSnapshots); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenDir creates dir when missing and opens DefaultFileName inside it.
func OpenDir(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sqlitestore: create dir: %w", err)
	}
	return Open(filepath.Join(dir, DefaultFileName))
}

func (s *Store) Load(ctx context.Context, ref state.Ref) (state.Snapshot, state.Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, state.Meta{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, state.Meta{}, false, ErrClosed
	}

	var payload, snapshotID, updatedAt string
	row := s.db.QueryRowContext(ctx,
		`SELECT snapshot, snapshot_id, updated_at FROM table_snapshots WHERE state_key = ?`, key)
	if err := row.Scan(&payload, &snapshotID, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, state.Meta{}, false, nil
		}
		return nil, state.Meta{}, false, fmt.Errorf("sqlitestore: load %q: %w", key, err)
	}

	var snapshot state.Snapshot
	if err := json.Unmarshal([]byte(payload), &snapshot); err != nil {
		return nil, state.Meta{}, false, fmt.Errorf("sqlitestore: decode %q: %w", key, err)
	}
	meta := state.Meta{SnapshotID: snapshotID}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		meta.UpdatedAt = ts
	}
	return snapshot, meta, true, nil
}

func (s *Store) Save(ctx context.Context, ref state.Ref, snapshot state.Snapshot, meta state.Meta) (state.Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return state.Meta{}, err
	}
	if snapshot == nil {
		snapshot = state.Snapshot{}
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return state.Meta{}, fmt.Errorf("sqlitestore: encode %q: %w", key, err)
	}
	meta = state.StampMeta(meta)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return state.Meta{}, ErrClosed
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO table_snapshots (state_key, snapshot, snapshot_id, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(state_key) DO UPDATE SET snapshot = excluded.snapshot,
    snapshot_id = excluded.snapshot_id, updated_at = excluded.updated_at`,
		key, string(payload), meta.SnapshotID, meta.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return state.Meta{}, fmt.Errorf("sqlitestore: save %q: %w", key, err)
	}
	return meta, nil
}

// Delete removes the snapshot stored for ref.
func (s *Store) Delete(ctx context.Context, ref state.Ref) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM table_snapshots WHERE state_key = ?`, key); err != nil {
		return fmt.Errorf("sqlitestore: delete %q: %w", key, err)
	}
	return nil
}

// Keys lists stored identifiers in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT state_key FROM table_snapshots ORDER BY state_key`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close releases the database handle. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
