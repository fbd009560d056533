package state_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-table-controls/pkg/state"
)

func TestQueryStoreWritesOneEntryPerField(t *testing.T) {
	ctx := context.Background()
	store := state.NewQueryStore(nil)
	ref := state.Ref{Prefix: "v", Feature: "sort", Keys: []string{"sortColumn", "sortDirection"}}

	if _, err := store.Save(ctx, ref, state.Snapshot{"sortColumn": {"severity"}, "sortDirection": {"desc"}}, state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := store.Encode(); got != "v%3AsortColumn=severity&v%3AsortDirection=desc" {
		t.Fatalf("unexpected query %q", got)
	}

	if _, err := store.Save(ctx, ref, state.Snapshot{"sortColumn": {"name"}}, state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	values := store.Values()
	if values.Get("v:sortDirection") != "" {
		t.Fatalf("expected stale field cleared, got %v", values)
	}
}

func TestQueryStoreSurvivesReload(t *testing.T) {
	ctx := context.Background()
	ref := state.Ref{Prefix: "a", Feature: "pagination", Keys: []string{"pageNumber", "itemsPerPage"}}
	store := state.NewQueryStore(nil)
	if _, err := store.Save(ctx, ref, state.Snapshot{"pageNumber": {"2"}, "itemsPerPage": {"20"}}, state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := state.ParseQueryStore(store.Encode())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	snap, _, ok, err := reloaded.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if snap.Get("pageNumber") != "2" || snap.Get("itemsPerPage") != "20" {
		t.Fatalf("unexpected snapshot %v", snap)
	}
}

func TestQueryStorePrefixesDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := state.NewQueryStore(nil)
	a := state.Ref{Prefix: "a", Feature: "filter", Keys: []string{"filters"}}
	b := state.Ref{Prefix: "b", Feature: "filter", Keys: []string{"filters"}}

	if _, err := store.Save(ctx, a, state.Snapshot{"filters": {`{"x":["1"]}`}}, state.Meta{}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save(ctx, b, state.Snapshot{"filters": {`{"y":["2"]}`}}, state.Meta{}); err != nil {
		t.Fatal(err)
	}

	gotA, _, _, _ := store.Load(ctx, a)
	gotB, _, _, _ := store.Load(ctx, b)
	if gotA.Get("filters") != `{"x":["1"]}` || gotB.Get("filters") != `{"y":["2"]}` {
		t.Fatalf("prefixes collided: a=%v b=%v", gotA, gotB)
	}
}

func TestQueryStoreIgnoresUnownedParams(t *testing.T) {
	store, err := state.ParseQueryStore("page=7&other=1")
	if err != nil {
		t.Fatal(err)
	}
	_, _, ok, err := store.Load(context.Background(), state.Ref{Feature: "pagination", Keys: []string{"pageNumber"}})
	if err != nil || ok {
		t.Fatalf("expected nothing loaded, ok=%v err=%v", ok, err)
	}
}
