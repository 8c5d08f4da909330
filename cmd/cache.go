package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/architrack/internal/offline"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the offline cache",
}

var cacheInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Prime the app shell into the current cache version and activate it",
	Args:  cobra.NoArgs,
	RunE:  runCacheInstall,
}

var cacheActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Delete every cache bucket except the current version",
	Args:  cobra.NoArgs,
	RunE:  runCacheActivate,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cache buckets and their entry counts",
	Args:  cobra.NoArgs,
	RunE:  runCacheStatus,
}

var cacheFetchCmd = &cobra.Command{
	Use:   "fetch URL",
	Short: "Fetch a URL through the offline worker and print the body",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheFetch,
}

func init() {
	cacheCmd.AddCommand(cacheInstallCmd, cacheActivateCmd, cacheStatusCmd, cacheFetchCmd)
}

func runCacheInstall(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := mustApp(ctx, appOptions{})
	defer a.close()

	fresh := a.newWorker()
	if err := a.reg.Register(ctx, fresh); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Printf("Installed and activated %s\n", fresh.Version())
	printCacheStatus(ctx, a)
	return nil
}

func runCacheActivate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := mustApp(ctx, appOptions{})
	defer a.close()

	if a.reg.Active() == nil {
		fmt.Fprintf(os.Stderr, "cache %s is not installed; run `architrack cache install`\n", a.cfg.Offline.Version)
		os.Exit(1)
	}
	if err := a.worker.Activate(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	printCacheStatus(ctx, a)
	return nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := mustApp(ctx, appOptions{})
	defer a.close()

	printCacheStatus(ctx, a)
	return nil
}

func runCacheFetch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a := mustApp(ctx, appOptions{})
	defer a.close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, args[0], nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	policy := a.worker.Rules().Classify(req)
	resp, err := a.reg.RoundTrip(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", policy, err)
		os.Exit(2)
	}
	defer resp.Body.Close()

	source := "network"
	if resp.Header.Get(offline.CacheHeader) != "" {
		source = "cache"
	}
	fmt.Fprintf(os.Stderr, "%d %s (%s, from %s)\n", resp.StatusCode, http.StatusText(resp.StatusCode), policy, source)
	if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}

func printCacheStatus(ctx context.Context, a *app) {
	w := a.reg.Active()
	if w == nil {
		fmt.Printf("Cache: %s not installed\n", a.cfg.Offline.Version)
		return
	}
	st, err := w.Status(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cache: %v\n", err)
		return
	}
	fmt.Printf("Cache: %s (%s)\n", st.Version, st.State)
	for _, name := range slices.Sorted(maps.Keys(st.Buckets)) {
		fmt.Printf("  %-24s %d entries\n", name, st.Buckets[name])
	}
}
