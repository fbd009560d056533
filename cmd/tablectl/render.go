package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	controls "github.com/goliatone/go-table-controls"
)

const (
	markSortAsc   = " ▲"
	markSortDesc  = " ▼"
	markExpanded  = "▾"
	markCollapsed = "▸"
	markSelected  = "[x]"
	markClear     = "[ ]"
)

type palette struct {
	header   lipgloss.Style
	cell     lipgloss.Style
	active   lipgloss.Style
	muted    lipgloss.Style
	expanded lipgloss.Style
	border   lipgloss.Style
}

func newPalette(r *lipgloss.Renderer) palette {
	return palette{
		header:   r.NewStyle().Bold(true).Padding(0, 1),
		cell:     r.NewStyle().Padding(0, 1),
		active:   r.NewStyle().Padding(0, 1).Reverse(true),
		muted:    r.NewStyle().Faint(true),
		expanded: r.NewStyle().PaddingLeft(2).Border(lipgloss.NormalBorder(), false, false, false, true),
		border:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// renderList draws the page with the prop helpers of view: header cells from
// ThProps, leading toggle cells from SelectTdProps and SingleExpandTdProps,
// detail blocks from ExpandedContentTdProps and the footer from
// PaginationProps and FilterToolbarProps.
func renderList(w io.Writer, view *controls.TableControls[Vulnerability], out listOutput) error {
	r := lipgloss.NewRenderer(w)
	p := newPalette(r)
	c := view.Controls
	selectable := c.Enabled(controls.FeatureSelection)
	singleExpand := c.Enabled(controls.FeatureExpansion) && c.Expansion().Variant() == controls.ExpansionSingle
	compound := c.Enabled(controls.FeatureExpansion) && !singleExpand

	var headers []string
	if selectable {
		headers = append(headers, "")
	}
	if singleExpand {
		headers = append(headers, "")
	}
	visible := c.Columns().VisibleColumns()
	for _, column := range visible {
		th := view.ThProps(column.Key)
		label := th.Label
		if th.IsSortedBy {
			if th.Direction == controls.SortDesc {
				label += markSortDesc
			} else {
				label += markSortAsc
			}
		}
		headers = append(headers, label)
	}

	page := view.Derived.CurrentPageItems
	rows := make([][]string, 0, len(page))
	activeRows := map[int]bool{}
	for i, item := range page {
		var row []string
		if selectable {
			mark := markClear
			if view.SelectTdProps(item, i).Select.IsSelected {
				mark = markSelected
			}
			row = append(row, mark)
		}
		if singleExpand {
			mark := markCollapsed
			if view.SingleExpandTdProps(item, i).Expand.IsExpanded {
				mark = markExpanded
			}
			row = append(row, mark)
		}
		for _, column := range visible {
			value := cell(item, column.Key)
			if compound {
				td := view.TdProps(column.Key, &controls.CompoundToggle[Vulnerability]{Item: item, RowIndex: i})
				if td.CompoundExpand != nil && td.CompoundExpand.IsExpanded {
					value += " " + markExpanded
				}
			}
			row = append(row, value)
		}
		activeRows[i] = view.TrProps(item).IsActive
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return p.header
			case activeRows[row]:
				return p.active
			}
			return p.cell
		})

	var b strings.Builder
	b.WriteString(t.String())
	b.WriteString("\n")

	for _, item := range page {
		content := view.ExpandedContentTdProps(item)
		if !content.IsExpanded {
			continue
		}
		b.WriteString(p.expanded.Render(expandedDetails(item, content)))
		b.WriteString("\n")
	}

	pagination := view.PaginationProps()
	b.WriteString(p.muted.Render(fmt.Sprintf("Page %d of %d · %d items · %d per page",
		pagination.Page, pagination.LastPage, pagination.ItemCount, pagination.PerPage)))
	b.WriteString("\n")

	toolbar := view.FilterToolbarProps()
	if toolbar.HasActiveFilters {
		var parts []string
		for _, category := range toolbar.Categories {
			if len(category.Values) > 0 {
				parts = append(parts, category.Title+": "+strings.Join(category.Values, ", "))
			}
		}
		b.WriteString(p.muted.Render("Filters: " + strings.Join(parts, " · ")))
		b.WriteString("\n")
	}
	if out.Query != "" {
		b.WriteString(p.muted.Render("Query: ?" + out.Query))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func expandedDetails(item Vulnerability, content controls.ExpandedContentProps) string {
	lines := []string{item.ID + ": " + item.Title}
	if len(content.ColumnKeys) > 0 {
		for i, key := range content.ColumnKeys {
			lines = append(lines, content.DataLabels[i]+": "+cell(item, key))
		}
		return strings.Join(lines, "\n")
	}
	if item.Description != "" {
		lines = append(lines, item.Description)
	}
	if len(item.Packages) > 0 {
		lines = append(lines, "Packages: "+strings.Join(item.Packages, ", "))
	}
	return strings.Join(lines, "\n")
}
