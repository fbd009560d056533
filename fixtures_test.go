package controls

import (
	"context"
	"slices"
	"testing"
)

type vuln struct {
	ID       string
	Name     string
	Severity string
	Score    float64
}

var severityRank = map[string]int{"unknown": 1, "none": 2, "low": 3, "medium": 4, "high": 5, "critical": 6}

func sampleVulns() []vuln {
	return []vuln{
		{ID: "1", Name: "openssl heap overflow", Severity: "low", Score: 3.1},
		{ID: "2", Name: "log4j lookup", Severity: "high", Score: 8.8},
		{ID: "3", Name: "zlib inflate", Severity: "high", Score: 7.5},
		{ID: "4", Name: "curl cookie leak", Severity: "critical", Score: 9.8},
		{ID: "5", Name: "glibc iconv", Severity: "medium", Score: 5.4},
	}
}

func vulnConfig() Config[vuln] {
	return Config[vuln]{
		TableName: "vulns",
		Columns: []Column{
			{Key: "id", Label: "ID"},
			{Key: "name", Label: "Name"},
			{Key: "severity", Label: "Severity"},
			{Key: "score", Label: "Score"},
		},
		InitialColumns: map[string]ColumnOverride{"id": {Identity: ptr(true)}},
		GetItemID:      func(v vuln) string { return v.ID },
		ItemFields: func(v vuln) map[string]any {
			return map[string]any{"id": v.ID, "name": v.Name, "severity": v.Severity, "score": v.Score}
		},
		Filter: FilterConfig[vuln]{
			Enabled: true,
			Categories: []FilterCategory[vuln]{
				{
					Key:          "severity",
					Title:        "Severity",
					Type:         FilterMultiselect,
					GetItemValue: func(v vuln) string { return v.Severity },
				},
				{
					Key:          "name",
					Title:        "Name",
					Type:         FilterSearch,
					GetItemValue: func(v vuln) string { return v.Name },
					ServerField:  "name",
				},
			},
		},
		Sort: SortConfig[vuln]{
			Enabled:         true,
			SortableColumns: []string{"name", "severity", "score"},
			Comparators: map[string]func(a, b vuln) int{
				"severity": func(a, b vuln) int { return severityRank[a.Severity] - severityRank[b.Severity] },
			},
			SortValues: map[string]func(vuln) any{
				"name":  func(v vuln) any { return v.Name },
				"score": func(v vuln) any { return v.Score },
			},
			ServerFields: map[string]string{"score": "base_score"},
		},
		Pagination: PaginationConfig{Enabled: true},
		Expansion:  ExpansionConfig{Enabled: true, Variant: ExpansionSingle},
		ActiveItem: ActiveItemConfig{Enabled: true},
		Selection:  SelectionConfig{Enabled: true},
	}
}

func newVulnControls(t *testing.T, cfg Config[vuln], opts ...Option) *Controls[vuln] {
	t.Helper()
	c, err := New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("new controls: %v", err)
	}
	return c
}

func ids(items []vuln) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func expectIDs(t *testing.T, label string, items []vuln, want ...string) {
	t.Helper()
	if got := ids(items); !slices.Equal(got, want) {
		t.Fatalf("%s: expected %v, got %v", label, want, got)
	}
}

func ptr[T any](v T) *T {
	return &v
}
