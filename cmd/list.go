package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/report"
	"github.com/Tiliavir/architrack/internal/timecalc"
)

var (
	listToday   bool
	listWeek    bool
	listProject string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"logs"},
	Short:   "List work logs",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show today's logs")
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show this week's logs")
	listCmd.Flags().StringVarP(&listProject, "project", "p", "", "Only logs of this project (code or id)")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	now := time.Now()

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

	f := report.Filter{Project: report.AllProjects}
	switch {
	case listWeek:
		f.Start, f.End = timecalc.WeekDates(now)
	case listToday:
		f.Start, f.End = timecalc.Today(now), timecalc.Today(now)
	}
	if listProject != "" {
		p, err := resolveProject(projects, listProject)
		if err != nil {
			exitOn(fmt.Errorf("%w: %w", model.ErrValidation, err))
		}
		f.Project = p.ID
	}

	printList(os.Stdout, report.Build(projects, logs, f).Rows)
	return nil
}

// printList groups rows by date and prints them.
func printList(w io.Writer, rows []report.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No work logs found.")
		return
	}

	var currentDay string
	for _, r := range rows {
		if r.Date != currentDay {
			fmt.Fprintln(w, r.Date)
			currentDay = r.Date
		}
		desc := ""
		if r.Description != "" {
			desc = "  " + r.Description
		}
		fmt.Fprintf(w, "  %-28s %s%s\n", r.Project, timecalc.FormatHours(r.Hours), desc)
	}
}
