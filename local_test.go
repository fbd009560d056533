package controls

import (
	"context"
	"testing"
)

func TestReconcileClampsPageAndClearsActiveItem(t *testing.T) {
	ctx := context.Background()
	cfg := vulnConfig()
	cfg.Pagination.InitialItemsPerPage = 2
	c := newVulnControls(t, cfg)
	items := sampleVulns()

	c.Pagination().SetPageNumber(ctx, 3)
	c.SetActiveItem(ctx, items[4])
	c.Filter().SetCategoryValues(ctx, "severity", "high")

	derived := c.LocalDerivedState(items)
	if len(derived.CurrentPageItems) != 0 {
		t.Fatalf("expected an empty out-of-range page, got %v", ids(derived.CurrentPageItems))
	}
	if c.Reconcile(ctx, derived, true) {
		t.Fatalf("nothing is reconciled while loading")
	}
	if !c.Reconcile(ctx, derived, false) {
		t.Fatalf("expected reconcile to change state")
	}
	if c.Pagination().PageNumber() != 1 {
		t.Fatalf("expected page clamped to 1, got %d", c.Pagination().PageNumber())
	}
	if c.ActiveItem().ActiveItemID() != "" {
		t.Fatalf("expected stale active item cleared")
	}

	settled := c.LocalDerivedState(items)
	if c.Reconcile(ctx, settled, false) {
		t.Fatalf("a settled state must not change again")
	}
}

func TestReconcileKeepsVisibleActiveItem(t *testing.T) {
	ctx := context.Background()
	c := newVulnControls(t, vulnConfig())
	items := sampleVulns()
	c.SetActiveItem(ctx, items[1])

	if c.Reconcile(ctx, c.LocalDerivedState(items), false) {
		t.Fatalf("nothing to reconcile")
	}
	if active, ok := c.ActiveItemIn(items); !ok || active.ID != "2" {
		t.Fatalf("expected active item kept, got %+v", active)
	}
}

func TestLocalDerivedStateIsCached(t *testing.T) {
	ctx := context.Background()
	calls := 0
	cfg := vulnConfig()
	cfg.Filter.Categories[0].GetItemValue = func(v vuln) string {
		calls++
		return v.Severity
	}
	c := newVulnControls(t, cfg)
	c.Filter().SetCategoryValues(ctx, "severity", "high")
	items := sampleVulns()

	first := c.LocalDerivedState(items)
	c.LocalDerivedState(items)
	if calls != len(items) {
		t.Fatalf("expected one derivation, matcher ran %d times", calls)
	}

	c.Pagination().SetItemsPerPage(ctx, 20)
	c.LocalDerivedState(items)
	if calls != 2*len(items) {
		t.Fatalf("expected a state change to invalidate the cache, matcher ran %d times", calls)
	}

	c.LocalDerivedState(sampleVulns())
	if calls != 3*len(items) {
		t.Fatalf("expected a new item slice to invalidate the cache, matcher ran %d times", calls)
	}
	expectIDs(t, "filtered", first.FilteredItems, "2", "3")
}

func TestNewLocalComposesControls(t *testing.T) {
	ctx := context.Background()
	cfg := vulnConfig()
	cfg.Filter.Initial = FilterValues{"severity": {"high"}}
	cfg.Sort.Initial = &ActiveSort{ColumnKey: "score", Direction: SortAsc}
	cfg.Pagination.InitialItemsPerPage = 1

	table, err := NewLocal(ctx, cfg, sampleVulns(), RenderArgs[vuln]{})
	if err != nil {
		t.Fatal(err)
	}
	expectIDs(t, "current page", table.Derived.CurrentPageItems, "3")
	if table.Derived.TotalItemCount != 2 {
		t.Fatalf("expected 2 items, got %d", table.Derived.TotalItemCount)
	}

	table.PaginationProps().OnSetPage(ctx, 5)
	next := table.Controls.Local(ctx, sampleVulns(), RenderArgs[vuln]{})
	if next.Controls.Pagination().PageNumber() != 2 {
		t.Fatalf("expected page reconciled to the last page, got %d", next.Controls.Pagination().PageNumber())
	}
	expectIDs(t, "reconciled page", next.Derived.CurrentPageItems, "2")
}
