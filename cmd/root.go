package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "architrack",
	Short: "Architrack – register hours against projects and report on them",
	Long: `architrack registers whole hours worked against projects kept in a hosted
database, manages the project list and reports on the logged hours.

Every HTTP request goes through a versioned offline cache so the app shell
keeps working without a network. Settings live in ~/.architrack/config.json.`,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(outlookCmd)
}
