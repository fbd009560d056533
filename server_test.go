package controls

import (
	"context"
	"testing"
)

func TestRequestParams(t *testing.T) {
	ctx := context.Background()
	cfg := vulnConfig()
	cfg.Pagination.InitialItemsPerPage = 20
	c := newVulnControls(t, cfg)

	empty := c.RequestParams()
	if len(empty.Filters) != 0 || empty.Sort != nil || empty.Page == nil || empty.Page.Offset != 0 || empty.Page.Limit != 20 {
		t.Fatalf("unexpected default params %+v", empty)
	}

	c.Filter().SetFilterValues(ctx, FilterValues{"severity": {"high", "critical"}, "name": {"log|4j"}})
	if err := c.Sort().SetActiveSort(ctx, ActiveSort{ColumnKey: "score", Direction: SortDesc}); err != nil {
		t.Fatal(err)
	}
	c.Pagination().SetPageNumber(ctx, 3)

	values := c.RequestParams().Values()
	if got := values.Get("q"); got != `severity=high|critical&name~log\|4j` {
		t.Fatalf("unexpected q %q", got)
	}
	if got := values.Get("sort"); got != "base_score:desc" {
		t.Fatalf("unexpected sort %q", got)
	}
	if values.Get("offset") != "40" || values.Get("limit") != "20" {
		t.Fatalf("unexpected page window %v", values)
	}
}

func TestRequestParamsFreeTextSearch(t *testing.T) {
	cfg := vulnConfig()
	cfg.Pagination.Enabled = false
	cfg.Filter.Categories = append(cfg.Filter.Categories, FilterCategory[vuln]{
		Key:          SearchCategoryKey,
		GetItemValue: func(v vuln) string { return v.Name },
	})
	c := newVulnControls(t, cfg)
	c.Filter().SetCategoryValues(context.Background(), SearchCategoryKey, "a&b")

	values := c.RequestParams().Values()
	if got := values.Get("q"); got != `a\&b` {
		t.Fatalf("unexpected q %q", got)
	}
	if values.Has("offset") || values.Has("sort") {
		t.Fatalf("disabled features must not contribute: %v", values)
	}
}
