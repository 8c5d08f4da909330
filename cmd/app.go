package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Tiliavir/architrack/internal/config"
	"github.com/Tiliavir/architrack/internal/logger"
	"github.com/Tiliavir/architrack/internal/model"
	"github.com/Tiliavir/architrack/internal/offline"
	"github.com/Tiliavir/architrack/internal/storage"
	"github.com/Tiliavir/architrack/internal/store"
	"github.com/Tiliavir/architrack/internal/store/postgres"
	"github.com/Tiliavir/architrack/internal/tracker"
)

// app is the runtime every command shares: config, logger, the offline
// worker every HTTP request goes through, and the tracker on top of the store.
type app struct {
	cfg    config.Config
	base   string
	logger *slog.Logger

	caches   offline.CacheStorage
	manifest []string
	rules    offline.Rules
	reg      *offline.Registration
	worker   *offline.Worker

	store   store.Store
	tracker *tracker.Service

	closers []func()
}

type appOptions struct {
	// needStore opens the hosted database.
	needStore bool
	// logTo overrides the default log destination (~/.architrack/architrack.log).
	logTo io.Writer
	// notifier receives tracker alerts; nil prints them to stderr.
	notifier tracker.Notifier
}

func (o appOptions) alerts() tracker.Notifier {
	if o.notifier == nil {
		return tracker.ConsoleNotifier{W: os.Stderr}
	}
	return o.notifier
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	base, err := config.BaseDir()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, base: base}

	w := opts.logTo
	if w == nil {
		f, err := openLogFile(base)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { f.Close() })
		w = f
	}
	a.logger = logger.New(cfg.Env, w)

	if err := a.openCaches(ctx); err != nil {
		a.close()
		return nil, err
	}

	a.manifest, err = offline.ResolveManifest(cfg.Offline.Origin, cfg.Offline.Manifest)
	if err != nil {
		a.close()
		return nil, err
	}
	a.rules = offline.Rules{DatabaseURL: cfg.Store.URL, CDNHosts: cfg.Offline.CDNHosts}
	a.reg = offline.NewRegistration(http.DefaultTransport, a.logger)
	a.worker = a.newWorker()
	if _, err := a.reg.Restore(ctx, a.worker); err != nil {
		a.logger.Warn("offline cache unavailable", "error", err)
	}

	if opts.needStore {
		if err := a.openStore(ctx); err != nil {
			a.close()
			return nil, err
		}
		a.tracker = tracker.NewService(a.store, opts.alerts(), a.logger)
	}
	return a, nil
}

// newWorker returns a worker for the configured cache version. Its network
// is the real transport, never the registration.
func (a *app) newWorker() *offline.Worker {
	return offline.NewWorker(offline.Options{
		Version:  a.cfg.Offline.Version,
		Manifest: a.manifest,
		Rules:    a.rules,
		Caches:   a.caches,
		Network:  http.DefaultTransport,
		Logger:   a.logger,
	})
}

func openLogFile(base string) (*os.File, error) {
	if err := os.MkdirAll(base, 0o700); err != nil {
		return nil, fmt.Errorf("storage error creating %s: %w", base, err)
	}
	f, err := os.OpenFile(filepath.Join(base, "architrack.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("storage error opening log file: %w", err)
	}
	return f, nil
}

func (a *app) openCaches(ctx context.Context) error {
	if a.cfg.Offline.RedisURL != "" {
		client, err := storage.DialRedis(ctx, a.cfg.Offline.RedisURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { client.Close() })
		a.caches = storage.NewRedisStorage(client)
		return nil
	}
	fs, err := storage.NewFileStorage(filepath.Join(a.base, "caches"))
	if err != nil {
		return err
	}
	a.caches = fs
	return nil
}

// openStore prefers a direct database connection when one is configured;
// otherwise it talks REST through the offline worker.
func (a *app) openStore(ctx context.Context) error {
	if err := a.cfg.RequireStore(); err != nil {
		return err
	}
	if a.cfg.Store.DatabaseURL != "" {
		pg, err := postgres.Open(ctx, a.cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pg.Close)
		a.store = pg
		return nil
	}
	a.store = store.NewClient(ctx, a.cfg.Store.URL, a.cfg.Store.APIKey, a.reg)
	return nil
}

func (a *app) close() {
	if a.reg != nil {
		a.reg.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// mustApp builds the runtime or exits: 1 for configuration problems, 2 for
// storage or network failures.
func mustApp(ctx context.Context, opts appOptions) *app {
	a, err := newApp(ctx, opts)
	if err == nil {
		return a
	}
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, config.ErrStoreNotConfigured) {
		os.Exit(1)
	}
	os.Exit(2)
	return nil
}

// exitOn terminates the command after a failed operation. Tracker alerts
// were already printed by the notifier.
func exitOn(err error) {
	var alert *tracker.Alert
	if !errors.As(err, &alert) {
		fmt.Fprintln(os.Stderr, err)
	}
	if errors.Is(err, model.ErrValidation) {
		os.Exit(1)
	}
	os.Exit(2)
}

// resolveProject finds a project by id or, case-insensitively, by code.
func resolveProject(projects []model.Project, ref string) (model.Project, error) {
	ref = strings.TrimSpace(ref)
	if p := model.FindProject(projects, ref); p != nil {
		return *p, nil
	}
	for _, p := range projects {
		if strings.EqualFold(p.Code, ref) {
			return p, nil
		}
	}
	return model.Project{}, fmt.Errorf("unknown project %q (use a project code or id)", ref)
}
