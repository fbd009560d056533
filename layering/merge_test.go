package layering

import (
	"reflect"
	"testing"
)

type columnOverride struct {
	Visible  *bool
	Identity *bool
}

type pageSettings struct {
	PageNumber   *int
	ItemsPerPage *int
	Options      []int
}

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func TestMergeLayersColumnOverrides(t *testing.T) {
	defaults := map[string]columnOverride{
		"name":     {Visible: boolPtr(true), Identity: boolPtr(false)},
		"severity": {Visible: boolPtr(true), Identity: boolPtr(false)},
	}
	overrides := map[string]columnOverride{
		"name":     {Identity: boolPtr(true)},
		"severity": {Visible: boolPtr(false)},
	}

	got := MergeLayers(overrides, defaults)

	if !*got["name"].Visible || !*got["name"].Identity {
		t.Fatalf("expected name visible identity, got %+v", got["name"])
	}
	if *got["severity"].Visible || *got["severity"].Identity {
		t.Fatalf("expected severity hidden non-identity, got %+v", got["severity"])
	}
	if !*defaults["name"].Visible || *defaults["name"].Identity {
		t.Fatalf("defaults must not be mutated: %+v", defaults["name"])
	}
}

func TestMergeLayersPointerFallThrough(t *testing.T) {
	cases := []struct {
		name   string
		layers []pageSettings
		expect pageSettings
	}{
		{
			name:   "hydrated page over defaults",
			layers: []pageSettings{{PageNumber: intPtr(3)}, {PageNumber: intPtr(1), ItemsPerPage: intPtr(10)}},
			expect: pageSettings{PageNumber: intPtr(3), ItemsPerPage: intPtr(10)},
		},
		{
			name:   "strong slice replaces weak slice",
			layers: []pageSettings{{Options: []int{5}}, {Options: []int{10, 20}}},
			expect: pageSettings{Options: []int{5}},
		},
		{
			name:   "nil slice falls through",
			layers: []pageSettings{{}, {Options: []int{10, 20}}},
			expect: pageSettings{Options: []int{10, 20}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeLayers(tc.layers...)
			if !reflect.DeepEqual(tc.expect, got) {
				t.Fatalf("merged mismatch:\nwant: %#v\n got: %#v", tc.expect, got)
			}
		})
	}
}

func TestMergeLayersZeroInput(t *testing.T) {
	type sample struct {
		Value int
	}
	var zero sample
	if got := MergeLayers[sample](); got != zero {
		t.Fatalf("expected MergeLayers() to return zero value, got %+v", got)
	}
}

func TestCloneDetachesMaps(t *testing.T) {
	original := map[string][]string{"severity": {"high"}}
	clone := Clone(original)
	clone["severity"][0] = "low"
	if original["severity"][0] != "high" {
		t.Fatalf("clone must not share backing arrays")
	}
}
