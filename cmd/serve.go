package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/architrack/internal/shell"
	"github.com/Tiliavir/architrack/internal/tracker"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the app shell and the JSON API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
}

// serveOptions logs to stderr. Alerts are dropped: the failure is already
// logged and the client gets it in the JSON error body.
func serveOptions() appOptions {
	return appOptions{needStore: true, logTo: os.Stderr, notifier: tracker.Discard}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := mustApp(ctx, serveOptions())
	defer a.close()

	if a.cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// A failed install leaves the restored version (if any) in control.
	if err := a.reg.Register(ctx, a.newWorker()); err != nil {
		a.logger.Warn("offline cache not updated", "error", err)
	}

	router := shell.NewRouter(shell.Deps{
		Tracker:      a.tracker,
		Controller:   shell.NewController(shell.Views(a.tracker, time.Now)),
		Registration: a.reg,
		Origin:       a.cfg.Offline.Origin,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		Logger:       a.logger,
		Now:          time.Now,
	})

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	case <-ctx.Done():
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("shutdown", "error", err)
		}
	}
	return nil
}
