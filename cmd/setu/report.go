package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/setu/internal/analytics"
	"github.com/JaimeStill/setu/internal/filters"
	"github.com/JaimeStill/setu/internal/recommendations"
	"github.com/JaimeStill/setu/pkg/formatting"
)

// selectionFlags builds an applied selection through the filter reducer,
// so the CLI obeys the same cascade rules as the dashboard.
type selectionFlags struct {
	org    string
	branch string
	dept   int
	from   string
	to     string
	period string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.org, "org", "", "organization id")
	fs.StringVar(&f.branch, "branch", "", "branch id (requires --org)")
	fs.IntVar(&f.dept, "dept", 0, "department id (requires --branch)")
	fs.StringVar(&f.from, "from", "", "start date (YYYY-MM-DD)")
	fs.StringVar(&f.to, "to", "", "end date (YYYY-MM-DD)")
	fs.StringVar(&f.period, "period", "", "trend bucket: day, week, month, or year")
}

func (f *selectionFlags) applied() (filters.Selection, error) {
	var actions []filters.Action
	if f.org != "" {
		actions = append(actions, filters.SetOrganization(f.org))
	}
	if f.branch != "" {
		actions = append(actions, filters.SetBranch(f.branch))
	}
	if f.dept != 0 {
		actions = append(actions, filters.SetDepartment(f.dept))
	}
	if f.from != "" || f.to != "" {
		actions = append(actions, filters.SetDateRange(f.from, f.to))
	}
	if f.period != "" {
		actions = append(actions, filters.SetPeriod(f.period))
	}
	actions = append(actions, filters.Apply())

	state, err := filters.Dispatch(filters.State{}, actions...)
	if err != nil {
		return filters.Selection{}, err
	}
	return state.Applied, nil
}

func (c *cli) dashboard(cmd *cobra.Command, sel *selectionFlags) (*analytics.Dashboard, analytics.System, error) {
	applied, err := sel.applied()
	if err != nil {
		return nil, nil, err
	}
	if !applied.HasOrganization() {
		return nil, nil, errors.New("--org is required")
	}

	sys, err := c.connect(cmd)
	if err != nil {
		return nil, nil, err
	}

	d, err := sys.analytics.Refresh(cmd.Context(), applied, 1)
	if err != nil {
		return nil, nil, detailError(err)
	}
	return d, sys.analytics, nil
}

func (c *cli) analyticsCmd() *cobra.Command {
	sel := &selectionFlags{}
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Print emission KPIs, breakdowns, and top emitters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, _, err := c.dashboard(cmd, sel)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), d, func(w io.Writer) error {
				return printDashboard(w, d)
			})
		},
	}
	sel.register(cmd)
	return cmd
}

func printDashboard(w io.Writer, d *analytics.Dashboard) error {
	fmt.Fprintf(w, "Scope: %s\n\n", d.Scope)

	kpis := make([][]string, len(d.KPIs))
	for i, k := range d.KPIs {
		kpis[i] = []string{k.Title, k.Value, k.Detail}
	}
	if err := table(w, []string{"KPI", "VALUE", "DETAIL"}, kpis); err != nil {
		return err
	}

	if len(d.Categories) > 0 {
		fmt.Fprintln(w)
		rows := make([][]string, len(d.Categories))
		for i, s := range d.Categories {
			rows[i] = []string{s.Name, formatting.FormatEmissions(s.Value), s.Share}
		}
		if err := table(w, []string{"CATEGORY", "EMISSIONS", "SHARE"}, rows); err != nil {
			return err
		}
	}

	if len(d.Trend) > 0 {
		fmt.Fprintln(w)
		rows := make([][]string, len(d.Trend))
		for i, p := range d.Trend {
			rows[i] = []string{p.Label, formatting.FormatEmissions(p.Value)}
		}
		if err := table(w, []string{"PERIOD", "EMISSIONS"}, rows); err != nil {
			return err
		}
	}

	if len(d.TopEmitters) > 0 {
		fmt.Fprintln(w)
		rows := make([][]string, len(d.TopEmitters))
		for i, e := range d.TopEmitters {
			rows[i] = []string{e.Department, e.Category, formatting.FormatEmissions(e.Value), e.Share}
		}
		if err := table(w, []string{"DEPARTMENT", "CATEGORY", "EMISSIONS", "SHARE"}, rows); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) exportCmd() *cobra.Command {
	sel := &selectionFlags{}
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the analytics report as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, sys, err := c.dashboard(cmd, sel)
			if err != nil {
				return err
			}

			report, err := sys.Export(d)
			if errors.Is(err, analytics.ErrNothingToExport) {
				fmt.Fprintln(cmd.ErrOrStderr(), "No category data to export.")
				return nil
			}
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(report.Data)
				return err
			}
			if output == "" {
				output = report.Filename
			}
			if info, err := os.Stat(output); err == nil && info.IsDir() {
				output = filepath.Join(output, report.Filename)
			}
			if err := os.WriteFile(output, report.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s).\n", output, formatting.FormatBytes(int64(len(report.Data))))
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "file or directory to write, - for stdout (default: report filename)")
	return cmd
}

func (c *cli) recommendationsCmd() *cobra.Command {
	sel := &selectionFlags{}
	cmd := &cobra.Command{
		Use:     "recommendations",
		Aliases: []string{"recs"},
		Short:   "Print reduction recommendations for a selection",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applied, err := sel.applied()
			if err != nil {
				return err
			}

			sys, err := c.connect(cmd)
			if err != nil {
				return err
			}

			view, err := sys.recommendations.Load(cmd.Context(), applied)
			if err != nil {
				return detailError(err)
			}
			return c.print(cmd.OutOrStdout(), view, func(w io.Writer) error {
				return printRecommendations(w, view)
			})
		},
	}
	sel.register(cmd)
	return cmd
}

func printRecommendations(w io.Writer, v *recommendations.View) error {
	switch {
	case v.Empty:
		_, err := fmt.Fprintln(w, v.Prompt)
		return err
	case v.None():
		_, err := fmt.Fprintln(w, recommendations.NoneFound)
		return err
	}

	rows := make([][]string, len(v.Items))
	for i, item := range v.Items {
		rows[i] = []string{item.Action, item.Difficulty, item.Impact, item.Description}
	}
	return table(w, []string{"ACTION", "DIFFICULTY", "IMPACT", "DESCRIPTION"}, rows)
}
