package controls

import (
	"net/url"
	"strconv"
	"strings"
)

// HubFilter is one filter condition of a server-side query. An empty Field
// means free-text search across all fields.
type HubFilter struct {
	Field    string
	Operator string
	Values   []string
}

// Filter operators understood by the REST API.
const (
	OperatorEqual = "="
	OperatorLike  = "~"
)

type HubSort struct {
	Field     string
	Direction Direction
}

type HubPage struct {
	Offset int
	Limit  int
}

// HubRequestParams carries the table state to a server that filters, sorts
// and paginates on behalf of the table.
type HubRequestParams struct {
	Filters []HubFilter
	Sort    *HubSort
	Page    *HubPage
}

// RequestParams converts the current filter, sort and pagination state into
// request parameters. Disabled features contribute nothing.
func (c *Controls[TItem]) RequestParams() HubRequestParams {
	var params HubRequestParams

	values := c.filter.Values()
	for _, category := range c.cfg.Filter.Categories {
		selected := values[category.Key]
		if len(selected) == 0 {
			continue
		}
		filter := HubFilter{Field: category.ServerField, Operator: OperatorEqual, Values: selected}
		if category.isSearch() {
			filter.Operator = OperatorLike
			filter.Values = selected[:1]
			if category.ServerField == "" {
				filter.Field = ""
			}
		} else if filter.Field == "" {
			filter.Field = category.Key
		}
		params.Filters = append(params.Filters, filter)
	}

	if sort := c.sort.ActiveSort(); sort != nil {
		field := c.cfg.Sort.ServerFields[sort.ColumnKey]
		if field == "" {
			field = sort.ColumnKey
		}
		params.Sort = &HubSort{Field: field, Direction: sort.Direction}
	}

	if c.cfg.Pagination.Enabled {
		perPage := c.pagination.ItemsPerPage()
		params.Page = &HubPage{
			Offset: (c.pagination.PageNumber() - 1) * perPage,
			Limit:  perPage,
		}
	}
	return params
}

// Values encodes the parameters as query values: "q" holds the filters
// joined by "&", "sort" holds "field:direction", and "offset" and "limit"
// hold the page window. Literal "&", "|" and "\" in filter values are
// escaped with a backslash.
func (p HubRequestParams) Values() url.Values {
	out := url.Values{}
	if q := p.query(); q != "" {
		out.Set("q", q)
	}
	if p.Sort != nil && p.Sort.Field != "" {
		direction := p.Sort.Direction
		if !direction.Valid() {
			direction = SortAsc
		}
		out.Set("sort", p.Sort.Field+":"+string(direction))
	}
	if p.Page != nil {
		out.Set("offset", strconv.Itoa(p.Page.Offset))
		out.Set("limit", strconv.Itoa(p.Page.Limit))
	}
	return out
}

func (p HubRequestParams) query() string {
	parts := make([]string, 0, len(p.Filters))
	for _, filter := range p.Filters {
		if len(filter.Values) == 0 {
			continue
		}
		escaped := make([]string, len(filter.Values))
		for i, value := range filter.Values {
			escaped[i] = escapeFilterValue(value)
		}
		value := strings.Join(escaped, "|")
		if filter.Field == "" {
			parts = append(parts, value)
			continue
		}
		operator := filter.Operator
		if operator == "" {
			operator = OperatorEqual
		}
		parts = append(parts, filter.Field+operator+value)
	}
	return strings.Join(parts, "&")
}

var filterValueEscaper = strings.NewReplacer(`\`, `\\`, "&", `\&`, "|", `\|`)

func escapeFilterValue(value string) string {
	return filterValueEscaper.Replace(value)
}
