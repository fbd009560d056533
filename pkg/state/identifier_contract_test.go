package state_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-table-controls/pkg/state"
)

func TestRefIdentifierContracts(t *testing.T) {
	cases := []struct {
		name    string
		ref     state.Ref
		want    string
		wantErr error
	}{
		{name: "prefixed", ref: state.Ref{Prefix: "vulns", Feature: "filter"}, want: "vulns:filter"},
		{name: "no prefix", ref: state.Ref{Feature: "sort"}, want: "sort"},
		{name: "delimiter in prefix", ref: state.Ref{Prefix: "a:b", Feature: "filter"}, wantErr: state.ErrInvalidPrefix},
		{name: "missing feature", ref: state.Ref{Prefix: "a"}, wantErr: state.ErrFeatureRequired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.ref.Identifier()
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRefKeyNamespacesFields(t *testing.T) {
	ref := state.Ref{Prefix: "sb", Feature: "pagination"}
	if got := ref.Key("pageNumber"); got != "sb:pageNumber" {
		t.Fatalf("expected sb:pageNumber, got %q", got)
	}
	if got := (state.Ref{Feature: "pagination"}).Key("pageNumber"); got != "pageNumber" {
		t.Fatalf("expected bare field, got %q", got)
	}
}

func TestSnapshotSetAndClone(t *testing.T) {
	snap := state.Snapshot{}
	snap.Set("sortColumn", "name")
	snap.Set("empty")
	if _, ok := snap["empty"]; ok {
		t.Fatalf("expected empty set to remove field")
	}
	clone := snap.Clone()
	clone["sortColumn"][0] = "changed"
	if snap.Get("sortColumn") != "name" {
		t.Fatalf("clone should be detached, got %q", snap.Get("sortColumn"))
	}
	if snap.Get("missing") != "" {
		t.Fatalf("expected empty value for missing field")
	}
}
