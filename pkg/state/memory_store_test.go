package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-table-controls/pkg/state"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore()
	ref := state.Ref{Prefix: "a", Feature: "filter"}

	if _, _, ok, err := store.Load(ctx, ref); err != nil || ok {
		t.Fatalf("expected empty store, ok=%v err=%v", ok, err)
	}

	in := state.Snapshot{"filters": {`{"severity":["high"]}`}}
	meta, err := store.Save(ctx, ref, in, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.SnapshotID == "" || meta.UpdatedAt.IsZero() {
		t.Fatalf("expected stamped meta, got %+v", meta)
	}

	in["filters"][0] = "mutated"
	got, gotMeta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Get("filters") != `{"severity":["high"]}` {
		t.Fatalf("expected stored snapshot to be detached from caller, got %q", got.Get("filters"))
	}
	if gotMeta.SnapshotID != meta.SnapshotID {
		t.Fatalf("expected meta preserved, got %+v", gotMeta)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store after delete")
	}
}

func TestMemoryStoreRejectsInvalidPrefix(t *testing.T) {
	store := state.NewMemoryStore()
	_, err := store.Save(context.Background(), state.Ref{Prefix: "x:y", Feature: "sort"}, state.Snapshot{}, state.Meta{})
	if !errors.Is(err, state.ErrInvalidPrefix) {
		t.Fatalf("expected ErrInvalidPrefix, got %v", err)
	}
}

func TestSessionsIsolateAndEnd(t *testing.T) {
	ctx := context.Background()
	sessions := state.NewSessions()
	first, second := state.NewSessionID(), state.NewSessionID()
	if first == second {
		t.Fatalf("expected distinct session ids")
	}

	ref := state.Ref{Feature: "pagination"}
	if _, err := sessions.Session(first).Save(ctx, ref, state.Snapshot{"pageNumber": {"3"}}, state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, _, ok, _ := sessions.Session(second).Load(ctx, ref); ok {
		t.Fatalf("sessions must not share state")
	}
	if snap, _, ok, _ := sessions.Session(first).Load(ctx, ref); !ok || snap.Get("pageNumber") != "3" {
		t.Fatalf("expected session state to persist, got %v %v", snap, ok)
	}

	sessions.End(first)
	if _, _, ok, _ := sessions.Session(first).Load(ctx, ref); ok {
		t.Fatalf("expected ended session to start empty")
	}
	if sessions.Active() != 2 {
		t.Fatalf("expected 2 active sessions, got %d", sessions.Active())
	}
}
