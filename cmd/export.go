package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/report"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all projects and work logs to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
}

// exportData is the json export: the two tables as the store returns them.
type exportData struct {
	Projects []model.Project `json:"projects"`
	WorkLogs []model.WorkLog `json:"work_logs"`
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
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

	switch exportFormat {
	case "json":
		data, err := json.MarshalIndent(exportData{Projects: projects, WorkLogs: logs}, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error encoding JSON:", err)
			os.Exit(2)
		}
		fmt.Println(string(data))
	case "md":
		printList(os.Stdout, report.Build(projects, logs, report.Filter{}).Rows)
	default: // csv
		if err := report.Render(os.Stdout, report.Build(projects, logs, report.Filter{}), "csv", projects); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	return nil
}
