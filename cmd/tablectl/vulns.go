package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	controls "github.com/goliatone/go-table-controls"
)

// Vulnerability is one advisory affecting a scanned SBOM.
type Vulnerability struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Severity    string    `json:"severity"`
	Score       float64   `json:"score"`
	Published   time.Time `json:"published"`
	Packages    []string  `json:"packages,omitempty"`
	Description string    `json:"description,omitempty"`
}

var severities = []string{"unknown", "none", "low", "medium", "high", "critical"}

// severityRank orders severities from unknown (1) to critical (6). Unknown
// labels rank 0.
func severityRank(severity string) int {
	for i, s := range severities {
		if strings.EqualFold(s, severity) {
			return i + 1
		}
	}
	return 0
}

// severityRankFunction exposes severityRank to filter expressions.
func severityRankFunction(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("severityRank expects 1 argument, got %d", len(args))
	}
	value, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("severityRank expects a string, got %T", args[0])
	}
	return severityRank(value), nil
}

func loadVulnerabilities(path string) ([]Vulnerability, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	var items []Vulnerability
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse items %s: %w", path, err)
	}
	for i, item := range items {
		if item.ID == "" {
			return nil, fmt.Errorf("parse items %s: record %d has no id", path, i)
		}
	}
	return items, nil
}

const (
	colID        = "id"
	colTitle     = "title"
	colSeverity  = "severity"
	colScore     = "score"
	colPublished = "published"
	colPackages  = "packages"

	categorySeverity    = "severity"
	categoryMinSeverity = "min_severity"
	categoryPackage     = "package"
)

// tableConfig describes the vulnerability table. Every feature is enabled;
// compound expansion is used when compound is set.
func tableConfig(name, prefix string, perPage int, persistTo controls.Persistence, compound bool) controls.Config[Vulnerability] {
	variant := controls.ExpansionSingle
	if compound {
		variant = controls.ExpansionCompound
	}
	severityOptions := make([]controls.FilterOption, 0, len(severities))
	for i := len(severities) - 1; i >= 0; i-- {
		severityOptions = append(severityOptions, controls.FilterOption{Value: severities[i], Label: strings.ToUpper(severities[i][:1]) + severities[i][1:]})
	}

	return controls.Config[Vulnerability]{
		TableName:            name,
		PersistenceKeyPrefix: prefix,
		Columns: []controls.Column{
			{Key: colID, Label: "ID"},
			{Key: colTitle, Label: "Title"},
			{Key: colSeverity, Label: "Severity"},
			{Key: colScore, Label: "CVSS"},
			{Key: colPublished, Label: "Published"},
			{Key: colPackages, Label: "Packages"},
		},
		InitialColumns: map[string]controls.ColumnOverride{
			colID:       {Identity: ptr(true)},
			colPackages: {Visible: ptr(false)},
		},
		GetItemID:  func(v Vulnerability) string { return v.ID },
		ItemFields: vulnerabilityFields,
		Filter: controls.FilterConfig[Vulnerability]{
			Enabled: true,
			Categories: []controls.FilterCategory[Vulnerability]{
				{
					Key:          categorySeverity,
					Title:        "Severity",
					Type:         controls.FilterMultiselect,
					Options:      severityOptions,
					GetItemValue: func(v Vulnerability) string { return strings.ToLower(v.Severity) },
				},
				{
					Key:         categoryMinSeverity,
					Title:       "Minimum severity",
					Type:        controls.FilterSelect,
					Options:     severityOptions,
					Expression:  "severityRank(item.severity) >= severityRank(value)",
					ServerField: "severity_min",
				},
				{
					Key:           categoryPackage,
					Title:         "Package",
					Type:          controls.FilterSearch,
					GetItemValues: func(v Vulnerability) []string { return v.Packages },
					ServerField:   "purl",
				},
				{
					Key:   controls.SearchCategoryKey,
					Title: "Search",
					Type:  controls.FilterSearch,
					GetItemValues: func(v Vulnerability) []string {
						return []string{v.ID, v.Title, v.Description}
					},
				},
			},
		},
		Sort: controls.SortConfig[Vulnerability]{
			Enabled:         true,
			SortableColumns: []string{colID, colTitle, colSeverity, colScore, colPublished},
			Comparators: map[string]func(a, b Vulnerability) int{
				colSeverity: func(a, b Vulnerability) int { return severityRank(a.Severity) - severityRank(b.Severity) },
			},
			SortValues: map[string]func(Vulnerability) any{
				colID:        func(v Vulnerability) any { return v.ID },
				colTitle:     func(v Vulnerability) any { return v.Title },
				colScore:     func(v Vulnerability) any { return v.Score },
				colPublished: func(v Vulnerability) any { return v.Published },
			},
			ServerFields: map[string]string{colScore: "base_score"},
		},
		Pagination: controls.PaginationConfig{
			Enabled:             true,
			InitialItemsPerPage: perPage,
		},
		Expansion:  controls.ExpansionConfig{Enabled: true, Variant: variant},
		ActiveItem: controls.ActiveItemConfig{Enabled: true},
		Selection:  controls.SelectionConfig{Enabled: true},
		PersistTo:  persistTo,
	}
}

func vulnerabilityFields(v Vulnerability) map[string]any {
	return map[string]any{
		"id":        v.ID,
		"title":     v.Title,
		"severity":  strings.ToLower(v.Severity),
		"score":     v.Score,
		"published": v.Published,
		"packages":  v.Packages,
	}
}

// cell formats the value of column for display.
func cell(v Vulnerability, column string) string {
	switch column {
	case colID:
		return v.ID
	case colTitle:
		return v.Title
	case colSeverity:
		return v.Severity
	case colScore:
		return strconv.FormatFloat(v.Score, 'f', 1, 64)
	case colPublished:
		if v.Published.IsZero() {
			return ""
		}
		return v.Published.Format(time.DateOnly)
	case colPackages:
		return strings.Join(v.Packages, ", ")
	}
	return ""
}

func ptr[T any](v T) *T {
	return &v
}
