package sqlitestore

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-table-controls/pkg/state"
)

func TestStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	ref := state.Ref{Prefix: "sb", Feature: "columns"}

	store, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	meta, err := store.Save(ctx, ref, state.Snapshot{"columns": {`{"name":false}`}}, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenDir(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	snap, gotMeta, ok, err := reopened.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if snap.Get("columns") != `{"name":false}` {
		t.Fatalf("unexpected snapshot %v", snap)
	}
	if gotMeta.SnapshotID != meta.SnapshotID {
		t.Fatalf("expected snapshot id %q, got %q", meta.SnapshotID, gotMeta.SnapshotID)
	}
	if gotMeta.UpdatedAt.IsZero() {
		t.Fatalf("expected updated_at to round trip")
	}
}

func TestStoreUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ref := state.Ref{Feature: "sort"}
	for _, dir := range []string{"asc", "desc"} {
		if _, err := store.Save(ctx, ref, state.Snapshot{"sortDirection": {dir}}, state.Meta{}); err != nil {
			t.Fatalf("save %s: %v", dir, err)
		}
	}
	snap, _, _, err := store.Load(ctx, ref)
	if err != nil || snap.Get("sortDirection") != "desc" {
		t.Fatalf("expected latest write to win, got %v (%v)", snap, err)
	}

	keys, err := store.Keys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != "sort" {
		t.Fatalf("unexpected keys %v (%v)", keys, err)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, ok, _ := store.Load(ctx, ref); ok {
		t.Fatalf("expected snapshot removed")
	}
}

func TestStoreClosed(t *testing.T) {
	store, err := OpenDir(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
	_, _, _, err = store.Load(context.Background(), state.Ref{Feature: "sort"})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
