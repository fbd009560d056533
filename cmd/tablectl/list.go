package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	controls "github.com/goliatone/go-table-controls"
)

type listFlags struct {
	session sessionOptions

	items        string
	filters      []string
	search       string
	clearFilters bool
	sort         string
	page         int
	perPage      int
	hide         []string
	show         []string
	active       string
	expand       []string
	selectIDs    []string
	unselectIDs  []string
	request      bool
}

func newListCmd(a *app) *cobra.Command {
	f := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Render the current page of vulnerabilities",
		Long: `List loads vulnerability records, applies the requested state changes and
renders the current page. Filters, sorting, paging, column visibility,
expansion, the active row and the selection are persisted to the configured
target and restored by the next invocation.

Example:
  tablectl list --items vulns.json --filter severity=high,critical --sort score:desc
  tablectl list --items vulns.json --filter min_severity=medium --page 2
  tablectl list --items vulns.json --search log4j --expand CVE-2021-44228
  tablectl list --items vulns.json --hide published --show packages --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.items, "items", "", "JSON file with vulnerability records (required)")
	flags.StringArrayVar(&f.filters, "filter", nil, "category=value[,value...]; an empty value clears the category")
	flags.StringVar(&f.search, "search", "", "free-text search; glob patterns are supported")
	flags.BoolVar(&f.clearFilters, "clear-filters", false, "remove every filter before applying --filter and --search")
	flags.StringVar(&f.sort, "sort", "", "column[:asc|desc], or none")
	flags.IntVar(&f.page, "page", 0, "page number")
	flags.IntVar(&f.perPage, "per-page", 0, "items per page (resets the page to 1)")
	flags.StringSliceVar(&f.hide, "hide", nil, "columns to hide")
	flags.StringSliceVar(&f.show, "show", nil, "columns to show")
	flags.StringVar(&f.active, "active", "", "id of the active row, or none")
	flags.StringArrayVar(&f.expand, "expand", nil, "toggle expansion of id, or id:column with --compound")
	flags.StringSliceVar(&f.selectIDs, "select", nil, "ids to add to the selection")
	flags.StringSliceVar(&f.unselectIDs, "unselect", nil, "ids to remove from the selection")
	flags.BoolVar(&f.request, "request", false, "print the server request parameters for the current state")
	addSessionFlags(cmd, &f.session)
	_ = cmd.MarkFlagRequired("items")
	return cmd
}

func addSessionFlags(cmd *cobra.Command, opts *sessionOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.query, "query", "", "query string carrying the state when persist_to is urlParams")
	flags.BoolVar(&opts.compound, "compound", false, "expand individual cells instead of whole rows")
	flags.StringVar(&opts.engine, "engine", "expr", "filter expression engine: expr, cel or js")
	flags.StringVar(&opts.user, "user", "", "actor id recorded with state changes")
	flags.BoolVar(&opts.audit, "audit", false, "append state changes to the audit log in the data directory")
}

func (a *app) runList(cmd *cobra.Command, f *listFlags) error {
	items, err := loadVulnerabilities(f.items)
	if err != nil {
		return userError{err}
	}
	s, err := a.openSession(cmd.Context(), f.session)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := applyListFlags(s.ctx, cmd, s.table, f); err != nil {
		return userError{err}
	}

	view := s.table.Local(s.ctx, items, controls.RenderArgs[Vulnerability]{
		DataNameField: func(v Vulnerability) string { return v.Title },
	})

	if f.request {
		return a.printRequest(s.table.RequestParams())
	}
	out := newListOutput(view, s)
	if a.jsonOut {
		return writeJSON(a.stdout, out)
	}
	return renderList(a.stdout, view, out)
}

// applyListFlags turns flags into state changes in a fixed order: filters,
// sort, paging, columns, active row, expansion, selection.
func applyListFlags(ctx context.Context, cmd *cobra.Command, table *controls.Controls[Vulnerability], f *listFlags) error {
	filter := table.Filter()
	if f.clearFilters {
		filter.ClearFilters(ctx)
	}
	for _, raw := range f.filters {
		key, values, err := parseFilterFlag(raw)
		if err != nil {
			return err
		}
		if !hasCategory(table, key) {
			return fmt.Errorf("unknown filter category %q", key)
		}
		filter.SetCategoryValues(ctx, key, values...)
	}
	if cmd.Flags().Changed("search") {
		if strings.TrimSpace(f.search) == "" {
			filter.SetCategoryValues(ctx, controls.SearchCategoryKey)
		} else {
			filter.SetCategoryValues(ctx, controls.SearchCategoryKey, f.search)
		}
	}

	if f.sort != "" {
		if f.sort == "none" {
			table.Sort().ClearSort(ctx)
		} else {
			sort, err := parseSortFlag(f.sort)
			if err != nil {
				return err
			}
			if err := table.Sort().SetActiveSort(ctx, sort); err != nil {
				return err
			}
		}
	}

	if cmd.Flags().Changed("per-page") {
		if f.perPage < 1 {
			return fmt.Errorf("--per-page must be positive, got %d", f.perPage)
		}
		table.Pagination().SetItemsPerPage(ctx, f.perPage)
	}
	if cmd.Flags().Changed("page") {
		table.Pagination().SetPageNumber(ctx, f.page)
	}

	for _, key := range f.hide {
		if err := knownColumn(table, key); err != nil {
			return err
		}
		table.Columns().SetColumnVisibility(ctx, key, false)
	}
	for _, key := range f.show {
		if err := knownColumn(table, key); err != nil {
			return err
		}
		table.Columns().SetColumnVisibility(ctx, key, true)
	}

	switch f.active {
	case "":
	case "none":
		table.ActiveItem().ClearActiveItem(ctx)
	default:
		table.ActiveItem().SetActiveItemID(ctx, f.active)
	}

	for _, raw := range f.expand {
		id, column, _ := strings.Cut(raw, ":")
		if err := table.Expansion().Toggle(ctx, id, column); err != nil {
			return err
		}
	}

	table.Selection().Select(ctx, true, f.selectIDs...)
	table.Selection().Select(ctx, false, f.unselectIDs...)
	return nil
}

func parseFilterFlag(raw string) (string, []string, error) {
	key, list, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid filter %q (expected category=value[,value...])", raw)
	}
	var values []string
	for _, value := range strings.Split(list, ",") {
		if value = strings.TrimSpace(value); value != "" {
			values = append(values, value)
		}
	}
	return key, values, nil
}

func parseSortFlag(raw string) (controls.ActiveSort, error) {
	column, direction, _ := strings.Cut(raw, ":")
	sort := controls.ActiveSort{ColumnKey: strings.TrimSpace(column), Direction: controls.SortAsc}
	if direction != "" {
		sort.Direction = controls.Direction(strings.ToLower(strings.TrimSpace(direction)))
	}
	if !sort.Direction.Valid() {
		return controls.ActiveSort{}, fmt.Errorf("invalid sort direction %q (expected asc or desc)", direction)
	}
	return sort, nil
}

func hasCategory(table *controls.Controls[Vulnerability], key string) bool {
	for _, category := range table.Config().Filter.Categories {
		if category.Key == key {
			return true
		}
	}
	return false
}

func knownColumn(table *controls.Controls[Vulnerability], key string) error {
	for _, column := range table.Config().Columns {
		if column.Key == key {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", controls.ErrUnknownColumn, key)
}

func (a *app) printRequest(params controls.HubRequestParams) error {
	values := params.Values()
	if a.jsonOut {
		out := map[string]string{}
		for key := range values {
			out[key] = values.Get(key)
		}
		return writeJSON(a.stdout, out)
	}
	_, err := fmt.Fprintln(a.stdout, values.Encode())
	return err
}

// listOutput is the JSON form of one rendered page.
type listOutput struct {
	Table     string                `json:"table"`
	Page      int                   `json:"page"`
	PerPage   int                   `json:"perPage"`
	LastPage  int                   `json:"lastPage"`
	Total     int                   `json:"total"`
	Columns   []string              `json:"columns"`
	Rows      []map[string]string   `json:"rows"`
	Filters   controls.FilterValues `json:"filters,omitempty"`
	Sort      *controls.ActiveSort  `json:"sort,omitempty"`
	Active    string                `json:"active,omitempty"`
	Expanded  []string              `json:"expanded,omitempty"`
	Selected  []string              `json:"selected,omitempty"`
	Persisted string                `json:"persistedTo"`
	Query     string                `json:"query,omitempty"`
}

func newListOutput(view *controls.TableControls[Vulnerability], s *session) listOutput {
	table := view.Controls
	pagination := view.PaginationProps()
	out := listOutput{
		Table:     table.Config().TableName,
		Page:      pagination.Page,
		PerPage:   pagination.PerPage,
		LastPage:  pagination.LastPage,
		Total:     pagination.ItemCount,
		Rows:      []map[string]string{},
		Filters:   table.Filter().Values(),
		Sort:      table.Sort().ActiveSort(),
		Active:    table.ActiveItem().ActiveItemID(),
		Expanded:  table.Expansion().ExpandedItemIDs(),
		Selected:  table.Selection().SelectedIDs(),
		Persisted: string(s.target),
	}
	for _, column := range table.Columns().VisibleColumns() {
		out.Columns = append(out.Columns, column.Key)
	}
	for _, item := range view.Derived.CurrentPageItems {
		row := map[string]string{}
		for _, key := range out.Columns {
			row[key] = cell(item, key)
		}
		out.Rows = append(out.Rows, row)
	}
	if s.query != nil {
		out.Query = s.query.Encode()
	}
	return out
}
