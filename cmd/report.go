package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/report"
	"github.com/Tiliavir/architrack/internal/timecalc"
)

var (
	reportProject string
	reportFrom    string
	reportTo      string
	reportWeek    bool
	reportFormat  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show hours per project (or per day for one project)",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportProject, "project", "p", report.AllProjects, `Project code or id, or "all"`)
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "First day (YYYY-MM-DD); empty for the full history")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "Last day (YYYY-MM-DD); defaults to today")
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Report on this week")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	now := time.Now()

	if !slices.Contains(report.Formats, reportFormat) {
		fmt.Fprintf(os.Stderr, "unknown format %q (want md, csv or json)\n", reportFormat)
		os.Exit(1)
	}
	f := report.Filter{Project: reportProject, Start: reportFrom, End: reportTo}
	if f.End == "" {
		f.End = timecalc.Today(now)
	}
	if reportWeek {
		f.Start, f.End = timecalc.WeekDates(now)
	}
	for _, d := range []string{f.Start, f.End} {
		if d == "" {
			continue
		}
		if _, err := timecalc.ParseDate(d); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	a := mustApp(ctx, appOptions{needStore: true})
	defer a.close()

	projects, err := a.tracker.ListProjects(ctx)
	if err != nil {
		exitOn(err)
	}
	logs, err := a.tracker.ListLogs(ctx)
	if err != nil {
		exitOn(err)
	}
	if f.Project != report.AllProjects {
		p, err := resolveProject(projects, f.Project)
		if err != nil {
			exitOn(fmt.Errorf("%w: %w", model.ErrValidation, err))
		}
		f.Project = p.ID
	}

	if err := report.Render(os.Stdout, report.Build(projects, logs, f), reportFormat, projects); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}
