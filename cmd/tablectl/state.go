package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	controls "github.com/goliatone/go-table-controls"
)

func newStateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or clear the persisted table state",
	}
	cmd.AddCommand(newStateShowCmd(a), newStateResetCmd(a))
	return cmd
}

type featureState struct {
	Feature  string         `json:"feature"`
	Target   string         `json:"target"`
	Scope    string         `json:"scope"`
	Value    any            `json:"value,omitempty"`
	Resolved controls.Trace `json:"trace"`
}

type stateOutput struct {
	Table    string         `json:"table"`
	Prefix   string         `json:"prefix"`
	Features []featureState `json:"features"`
	Query    string         `json:"query,omitempty"`
}

func newStateShowCmd(a *app) *cobra.Command {
	opts := &sessionOptions{}
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted state and where each feature keeps it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			defer s.Close()

			out := describeState(s)
			if a.jsonOut {
				return writeJSON(a.stdout, out)
			}
			return printState(a, out)
		},
	}
	addSessionFlags(cmd, opts)
	return cmd
}

func newStateResetCmd(a *app) *cobra.Command {
	opts := &sessionOptions{}
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the persisted state of every feature",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), *opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.reset(); err != nil {
				return err
			}
			if s.query != nil {
				_, err = fmt.Fprintln(a.stdout, "Query: ?")
				return err
			}
			_, err = fmt.Fprintf(a.stdout, "Cleared %s state of table %q\n", s.target, s.table.Config().TableName)
			return err
		},
	}
	addSessionFlags(cmd, opts)
	return cmd
}

func describeState(s *session) stateOutput {
	table := s.table
	out := stateOutput{
		Table:  table.Config().TableName,
		Prefix: table.KeyPrefix(),
	}
	if s.query != nil {
		out.Query = s.query.Encode()
	}
	for _, feature := range controls.Features() {
		if !table.Enabled(feature) {
			continue
		}
		entry := featureState{
			Feature: string(feature),
			Target:  table.PersistenceTarget(feature),
			Value:   featureValue(table, feature),
		}
		if trace, ok := table.PersistenceTrace(feature); ok {
			entry.Resolved = trace
			if winner, ok := trace.Winner(); ok {
				entry.Scope = winner.Scope.Name
			}
		}
		out.Features = append(out.Features, entry)
	}
	return out
}

func featureValue(table *controls.Controls[Vulnerability], feature controls.Feature) any {
	switch feature {
	case controls.FeatureFilter:
		return table.Filter().Values()
	case controls.FeatureSort:
		return table.Sort().ActiveSort()
	case controls.FeaturePagination:
		return map[string]int{
			"pageNumber":   table.Pagination().PageNumber(),
			"itemsPerPage": table.Pagination().ItemsPerPage(),
		}
	case controls.FeatureExpansion:
		return table.Expansion().ExpandedItemIDs()
	case controls.FeatureActiveItem:
		return table.ActiveItem().ActiveItemID()
	case controls.FeatureColumns:
		hidden := []string{}
		for _, column := range table.Columns().Columns() {
			if !column.Visible {
				hidden = append(hidden, column.Key)
			}
		}
		return map[string][]string{"hidden": hidden}
	case controls.FeatureSelection:
		return table.Selection().SelectedIDs()
	}
	return nil
}

func printState(a *app, out stateOutput) error {
	r := lipgloss.NewRenderer(a.stdout)
	title := r.NewStyle().Bold(true)
	key := r.NewStyle().Width(12)
	muted := r.NewStyle().Faint(true)

	var b strings.Builder
	b.WriteString(title.Render(fmt.Sprintf("%s (prefix %s)", out.Table, out.Prefix)))
	b.WriteString("\n")
	for _, feature := range out.Features {
		b.WriteString(key.Render(feature.Feature))
		b.WriteString(fmt.Sprintf("%v ", feature.Value))
		b.WriteString(muted.Render(fmt.Sprintf("[%s via %s]", feature.Target, feature.Scope)))
		b.WriteString("\n")
	}
	if out.Query != "" {
		b.WriteString(muted.Render("Query: ?" + out.Query))
		b.WriteString("\n")
	}
	_, err := fmt.Fprint(a.stdout, b.String())
	return err
}
