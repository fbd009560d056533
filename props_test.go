package controls

import (
	"context"
	"slices"
	"testing"
)

func TestPropsColumnCounts(t *testing.T) {
	cases := []struct {
		name          string
		mutate        func(*Config[vuln])
		args          RenderArgs[vuln]
		before, after int
		rendered      int
	}{
		{name: "selection and single expand", before: 2, rendered: 6},
		{name: "actions column", args: RenderArgs[vuln]{HasActionsColumn: true}, before: 2, after: 1, rendered: 7},
		{
			name:     "compound expand adds no toggle column",
			mutate:   func(c *Config[vuln]) { c.Expansion.Variant = ExpansionCompound },
			before:   1,
			rendered: 5,
		},
		{
			name: "plain table",
			mutate: func(c *Config[vuln]) {
				c.Selection.Enabled = false
				c.Expansion.Enabled = false
			},
			rendered: 4,
		},
		{name: "forced", args: RenderArgs[vuln]{ForceNumRenderedColumns: 9}, before: 2, rendered: 9},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := vulnConfig()
			if tc.mutate != nil {
				tc.mutate(&cfg)
			}
			c := newVulnControls(t, cfg)
			table := c.Props(c.LocalDerivedState(sampleVulns()), tc.args)
			if table.NumColumnsBeforeData != tc.before || table.NumColumnsAfterData != tc.after || table.NumRenderedColumns != tc.rendered {
				t.Fatalf("expected %d/%d/%d, got %d/%d/%d", tc.before, tc.after, tc.rendered,
					table.NumColumnsBeforeData, table.NumColumnsAfterData, table.NumRenderedColumns)
			}
		})
	}
}

func TestPropsHiddenColumnsShrinkColSpan(t *testing.T) {
	ctx := context.Background()
	c := newVulnControls(t, vulnConfig())
	c.Columns().SetColumnVisibility(ctx, "score", false)
	table := c.Props(DerivedState[vuln]{}, RenderArgs[vuln]{})

	if table.NumRenderedColumns != 5 {
		t.Fatalf("expected 5 rendered columns, got %d", table.NumRenderedColumns)
	}
	if table.ColumnVisibility("score") || !table.ColumnVisibility("name") {
		t.Fatalf("unexpected column visibility")
	}
	if got := table.ExpandedContentTdProps(sampleVulns()[0]).ColSpan; got != 5 {
		t.Fatalf("expected expanded content to span 5 columns, got %d", got)
	}
}

func TestThPropsCycleSort(t *testing.T) {
	ctx := context.Background()
	c := newVulnControls(t, vulnConfig())

	th := c.Props(DerivedState[vuln]{}, RenderArgs[vuln]{}).ThProps("severity")
	if !th.Sortable || th.IsSortedBy || th.Label != "Severity" || th.ColumnIndex != 2 {
		t.Fatalf("unexpected header props %+v", th)
	}
	if err := th.OnSort(ctx); err != nil {
		t.Fatal(err)
	}
	if got := c.Sort().ActiveSort(); got == nil || *got != (ActiveSort{ColumnKey: "severity", Direction: SortAsc}) {
		t.Fatalf("expected ascending sort, got %+v", got)
	}

	th = c.Props(DerivedState[vuln]{}, RenderArgs[vuln]{}).ThProps("severity")
	if !th.IsSortedBy || th.Direction != SortAsc {
		t.Fatalf("expected header to report the active sort, got %+v", th)
	}
	if err := th.OnSort(ctx); err != nil {
		t.Fatal(err)
	}
	if got := c.Sort().ActiveSort(); got.Direction != SortDesc {
		t.Fatalf("expected direction flipped, got %+v", got)
	}

	if id := c.Props(DerivedState[vuln]{}, RenderArgs[vuln]{}).ThProps("id"); id.Sortable || id.OnSort != nil {
		t.Fatalf("id is not sortable: %+v", id)
	}
}

func TestRowAndCellProps(t *testing.T) {
	ctx := context.Background()
	c := newVulnControls(t, vulnConfig())
	items := sampleVulns()
	args := RenderArgs[vuln]{DataNameField: func(v vuln) string { return v.Name }}

	tr := c.Props(DerivedState[vuln]{}, args).TrProps(items[0])
	if tr.ItemID != "1" || tr.DataName != "openssl heap overflow" || tr.IsActive {
		t.Fatalf("unexpected row props %+v", tr)
	}
	tr.OnClick(ctx)
	if !c.IsActive(items[0]) {
		t.Fatalf("expected row click to activate the item")
	}
	c.Props(DerivedState[vuln]{}, args).TrProps(items[0]).OnClick(ctx)
	if c.ActiveItem().ActiveItemID() != "" {
		t.Fatalf("expected second click to clear the active item")
	}

	stale := c.Props(DerivedState[vuln]{}, args).TrProps(items[1])
	c.ActiveItem().SetActiveItemID(ctx, "2")
	stale.OnClick(ctx)
	if c.ActiveItem().ActiveItemID() != "" {
		t.Fatalf("click toggles against the current active item, got %q", c.ActiveItem().ActiveItemID())
	}

	table := c.Props(DerivedState[vuln]{}, args)
	if err := table.SingleExpandTdProps(items[1], 1).Expand.OnToggle(ctx); err != nil {
		t.Fatal(err)
	}
	table.SelectTdProps(items[2], 2).Select.OnSelect(ctx, true)

	table = c.Props(DerivedState[vuln]{}, args)
	if !table.TrProps(items[1]).IsExpanded || !table.SelectTdProps(items[2], 2).Select.IsSelected {
		t.Fatalf("expected expansion and selection reflected in props")
	}
	if td := table.TdProps("name", &CompoundToggle[vuln]{Item: items[0]}); td.CompoundExpand != nil || td.DataLabel != "Name" {
		t.Fatalf("single-expand tables have no compound toggles: %+v", td)
	}
}

func TestCompoundCellProps(t *testing.T) {
	ctx := context.Background()
	cfg := vulnConfig()
	cfg.Expansion.Variant = ExpansionCompound
	c := newVulnControls(t, cfg)
	item := sampleVulns()[0]

	td := c.Props(DerivedState[vuln]{}, RenderArgs[vuln]{}).TdProps("severity", &CompoundToggle[vuln]{Item: item, RowIndex: 0})
	if td.CompoundExpand == nil || td.CompoundExpand.IsExpanded {
		t.Fatalf("expected collapsed compound toggle, got %+v", td)
	}
	if err := td.CompoundExpand.OnToggle(ctx); err != nil {
		t.Fatal(err)
	}

	content := c.Props(DerivedState[vuln]{}, RenderArgs[vuln]{}).ExpandedContentTdProps(item)
	if !content.IsExpanded || !slices.Equal(content.ColumnKeys, []string{"severity"}) || !slices.Equal(content.DataLabels, []string{"Severity"}) {
		t.Fatalf("unexpected expanded content %+v", content)
	}
}

func TestPaginationAndToolbarProps(t *testing.T) {
	ctx := context.Background()
	c := newVulnControls(t, vulnConfig())
	table := c.Props(DerivedState[vuln]{TotalItemCount: 42}, RenderArgs[vuln]{IsLoading: true})

	pagination := table.PaginationProps()
	if pagination.ItemCount != 42 || pagination.LastPage != 5 || !pagination.IsDisabled {
		t.Fatalf("unexpected pagination props %+v", pagination)
	}
	if !slices.Equal(pagination.PerPageOptions, DefaultPerPageOptions) {
		t.Fatalf("expected default per-page options, got %v", pagination.PerPageOptions)
	}
	pagination.OnSetPage(ctx, 3)
	pagination.OnPerPageSelect(ctx, 50)
	if c.Pagination().ItemsPerPage() != 50 || c.Pagination().PageNumber() != 1 {
		t.Fatalf("expected 50 per page on page 1")
	}

	toolbar := table.FilterToolbarProps()
	if len(toolbar.Categories) != 2 || toolbar.Categories[1].Type != FilterSearch || toolbar.HasActiveFilters {
		t.Fatalf("unexpected toolbar props %+v", toolbar)
	}
	toolbar.OnCategoryChange(ctx, "severity", "high", "critical")
	toolbar = c.Props(DerivedState[vuln]{}, RenderArgs[vuln]{}).FilterToolbarProps()
	if !toolbar.HasActiveFilters || !slices.Equal(toolbar.Categories[0].Values, []string{"high", "critical"}) {
		t.Fatalf("expected selected values in toolbar, got %+v", toolbar.Categories[0])
	}
	toolbar.OnClear(ctx)
	if c.Filter().HasActiveFilters() {
		t.Fatalf("expected filters cleared")
	}
}
