package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/architrack/internal/config"
	"github.com/Tiliavir/architrack/internal/report"
	"github.com/Tiliavir/architrack/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's hours, the offline cache and the theme",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	now := time.Now()

	a := mustApp(ctx, appOptions{})
	defer a.close()

	if err := a.cfg.RequireStore(); err != nil {
		fmt.Println("Store: not configured")
	} else if err := a.openStore(ctx); err != nil {
		fmt.Printf("Store: unavailable (%v)\n", err)
	} else {
		logs, err := a.store.ListWorkLogs(ctx)
		if err != nil {
			fmt.Printf("Store: unavailable (%v)\n", err)
		} else {
			today := timecalc.Today(now)
			r := report.Build(nil, logs, report.Filter{Start: today, End: today})
			weekStart, weekEnd := timecalc.WeekDates(now)
			week := report.Build(nil, logs, report.Filter{Start: weekStart, End: weekEnd})
			fmt.Printf("Today: %s logged.\n", timecalc.FormatHours(r.TotalHours))
			fmt.Printf("Week %s: %s logged.\n", timecalc.ISOWeekLabel(now), timecalc.FormatHours(week.TotalHours))
		}
	}

	printCacheStatus(ctx, a)

	theme, err := config.LoadTheme(a.base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	fmt.Printf("Theme: %s\n", theme)
	return nil
}
