package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/timecalc"
)

var (
	logProject string
	logDate    string
	logHours   int
	logDesc    string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Register hours worked on a project",
	Example: `  architrack log --project LIB --hours 3
  architrack log -p LIB -H 2 --date 2024-01-15 -d "facade drawings"`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func init() {
	logCmd.Flags().StringVarP(&logProject, "project", "p", "", "Project code or id (required)")
	logCmd.Flags().IntVarP(&logHours, "hours", "H", 0, "Whole hours worked, at least 1 (required)")
	logCmd.Flags().StringVar(&logDate, "date", "", "Day worked (YYYY-MM-DD); defaults to today")
	logCmd.Flags().StringVarP(&logDesc, "desc", "d", "", "Optional description")
	_ = logCmd.MarkFlagRequired("project")
	_ = logCmd.MarkFlagRequired("hours")
}

func runLog(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	date := logDate
	if date == "" {
		date = timecalc.Today(time.Now())
	}
	// Catch bad input before any network call.
	if err := model.ValidateWorkLog(model.WorkLog{ProjectID: logProject, Date: date, Hours: logHours}.Normalize()); err != nil {
		exitOn(err)
	}

	a := mustApp(ctx, appOptions{needStore: true})
	defer a.close()

	projects, err := a.tracker.ListProjects(ctx)
	if err != nil {
		exitOn(err)
	}
	p, err := resolveProject(projects, logProject)
	if err != nil {
		exitOn(fmt.Errorf("%w: %w", model.ErrValidation, err))
	}

	l, err := a.tracker.LogHours(ctx, model.WorkLog{
		ProjectID:   p.ID,
		Date:        date,
		Hours:       logHours,
		Description: logDesc,
	})
	if err != nil {
		exitOn(err)
	}
	fmt.Printf("Registered %s on %s for %s\n", timecalc.FormatHours(l.Hours), l.Date, p.Label())
	return nil
}
