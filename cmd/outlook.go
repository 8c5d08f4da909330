package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/architrack/internal/msgraph"
	"github.com/Tiliavir/architrack/internal/timecalc"
)

var (
	outlookSyncFrom    string
	outlookSyncTo      string
	outlookSyncDate    string
	outlookSyncToday   bool
	outlookSyncDryRun  bool
	outlookSyncProject string
	outlookSyncTZ      string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import Outlook calendar events as work logs",
	Args:  cobra.NoArgs,
	RunE:  runOutlookSync,
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncToday, "today", false, "Sync only today (default)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	outlookSyncCmd.Flags().StringVarP(&outlookSyncProject, "project", "p", "", "Project code or id that receives the imported hours")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (default from config)")
	_ = outlookSyncCmd.MarkFlagRequired("project")
	outlookCmd.AddCommand(outlookSyncCmd)
}

// syncRange turns the date flags into an inclusive time range.
func syncRange(now time.Time) (time.Time, time.Time, error) {
	switch {
	case outlookSyncDate != "":
		d, err := timecalc.ParseDate(outlookSyncDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--date: %w", err)
		}
		return timecalc.StartOfDay(d), timecalc.EndOfDay(d), nil

	case outlookSyncFrom != "" || outlookSyncTo != "":
		if outlookSyncFrom == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--from is required when --to is specified")
		}
		from, err := timecalc.ParseDate(outlookSyncFrom)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
		}
		to := now
		if outlookSyncTo != "" {
			if to, err = timecalc.ParseDate(outlookSyncTo); err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
			}
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("--to is before --from")
		}
		return timecalc.StartOfDay(from), timecalc.EndOfDay(to), nil
	}
	return timecalc.StartOfDay(now), timecalc.EndOfDay(now), nil
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	from, to, err := syncRange(time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	a := mustApp(ctx, appOptions{needStore: true})
	defer a.close()

	projects, err := a.tracker.ListProjects(ctx)
	if err != nil {
		exitOn(err)
	}
	project, err := resolveProject(projects, outlookSyncProject)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	timezone := outlookSyncTZ
	if timezone == "" {
		timezone = a.cfg.Outlook.Timezone
	}

	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Printf("Syncing Outlook events into %s (%s → %s)%s...\n",
		project.Label(), timecalc.Today(from), timecalc.Today(to), dryTag)
	fmt.Println()

	auth := &msgraph.Authenticator{
		TenantID:  a.cfg.Outlook.TenantID,
		ClientID:  a.cfg.Outlook.ClientID,
		TokenFile: msgraph.TokenPath(a.base),
		Prompt:    os.Stdout,
		Logger:    a.logger,
	}
	authCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: a.reg})
	httpClient, err := auth.HTTPClient(authCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
		os.Exit(2)
	}

	events, err := msgraph.NewClient(httpClient, "").GetCalendarView(ctx, from, to, timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch calendar events: %v\n", err)
		os.Exit(2)
	}

	result, err := msgraph.SyncEvents(ctx, a.tracker, events, msgraph.SyncOptions{
		ProjectID: project.ID,
		Timezone:  timezone,
		DryRun:    outlookSyncDryRun,
		Out:       os.Stdout,
	})
	if err != nil {
		exitOn(err)
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  %d imported\n", result.Imported)
	fmt.Printf("  %d skipped\n", result.Skipped)
	fmt.Printf("  %d filtered\n", result.Filtered)
	if result.Errors > 0 {
		fmt.Printf("  %d errors\n", result.Errors)
		os.Exit(2)
	}
	return nil
}
