package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/architrack/internal/shell"
)

var uiCmd = &cobra.Command{
	Use:       "ui [register|projects|reports]",
	Short:     "Render one tab of the app shell",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"register", "projects", "reports"},
	RunE:      runUI,
}

func runUI(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := mustApp(ctx, appOptions{needStore: true})
	defer a.close()

	c := shell.NewController(shell.Views(a.tracker, time.Now))
	if len(args) == 1 {
		c.Navigate(shell.ParseTab(args[0]))
	}
	if err := c.Render(ctx, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}
